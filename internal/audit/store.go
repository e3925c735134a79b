package audit

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store persists audit records to SQLite so an external verifier can
// replay the chain without the JSONL file. Records are stored verbatim,
// in append order.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) a SQLite-backed record store.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open store: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_records (
		seq         INTEGER PRIMARY KEY,
		identity    TEXT NOT NULL,
		action      TEXT NOT NULL,
		decision    TEXT NOT NULL,
		reason      TEXT NOT NULL,
		ts          TEXT NOT NULL,
		policy_hash TEXT NOT NULL DEFAULT '',
		trace_id    TEXT NOT NULL DEFAULT '',
		prev_hash   TEXT NOT NULL,
		hash        TEXT NOT NULL
	);`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("audit: migrate store: %w", err)
	}
	return nil
}

// Insert stores one record. The seq primary key rejects duplicates, so
// a store can never hold two records claiming the same chain position.
func (s *Store) Insert(r Record) error {
	query := `INSERT INTO audit_records (
		seq, identity, action, decision, reason, ts, policy_hash, trace_id, prev_hash, hash
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		r.Seq, r.Identity, r.Action, r.Decision, r.Reason,
		r.Timestamp, r.PolicyHash, r.TraceID, r.PrevHash, r.Hash,
	)
	if err != nil {
		return fmt.Errorf("audit: insert record: %w", err)
	}
	return nil
}

// List returns all records in append order.
func (s *Store) List() ([]Record, error) {
	query := `
	SELECT seq, identity, action, decision, reason, ts, policy_hash, trace_id, prev_hash, hash
	FROM audit_records
	ORDER BY seq ASC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("audit: list records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.Seq, &r.Identity, &r.Action, &r.Decision, &r.Reason,
			&r.Timestamp, &r.PolicyHash, &r.TraceID, &r.PrevHash, &r.Hash,
		); err != nil {
			return nil, fmt.Errorf("audit: scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: list records: %w", err)
	}
	return records, nil
}

// Verify replays the stored chain from genesis.
func (s *Store) Verify() (VerifyResult, error) {
	records, err := s.List()
	if err != nil {
		return VerifyResult{}, err
	}
	return VerifyRecords(records), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
