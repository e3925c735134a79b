// Package audit implements an append-only, hash-chained record of gate
// decisions. The log is a pure recorder: it never inspects governance
// outcomes and never rejects an append. Appends are serialized globally
// so sequence numbers and the chain reflect a single total order.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Sink receives every appended record, e.g. a SQLite store. Sink errors
// fail the append: a gate that cannot persist its record must not
// report success.
type Sink interface {
	Insert(r Record) error
}

// Log is the hash-chained decision log. The zero value is not usable;
// construct with New or Open.
type Log struct {
	mu       sync.Mutex
	records  []Record
	seq      uint64
	headHash string
	file     *os.File
	sink     Sink
	now      func() time.Time
}

// New creates an in-memory log starting at the genesis hash.
func New() *Log {
	return &Log{
		headHash: GenesisHash,
		now:      time.Now,
	}
}

// Open creates a log that also persists records to an append-only JSONL
// file. If the file already exists, the chain tail (sequence number and
// head hash) is recovered from its last line.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}

	l := New()

	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		last, err := lastRecord(path)
		if err != nil {
			return nil, err
		}
		l.seq = last.Seq
		l.headHash = last.Hash
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}
	l.file = file
	return l, nil
}

// SetSink attaches a secondary record store. Call before the first
// append; the sink does not receive records already on disk.
func (l *Log) SetSink(s Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink = s
}

// Append assigns the next sequence number, stamps the current time,
// chains the record to the head hash, and stores it. It never inspects
// the decision being recorded.
func (l *Log) Append(e Entry) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	r := Record{
		Seq:        l.seq,
		Identity:   e.Identity,
		Action:     e.Action,
		Decision:   string(e.Decision),
		Reason:     e.Reason,
		Timestamp:  l.now().UTC().Format(TimestampFormat),
		PolicyHash: e.PolicyHash,
		TraceID:    e.TraceID,
		PrevHash:   l.headHash,
	}
	r.Hash = HashRecord(r)

	if l.file != nil {
		line, err := json.Marshal(r)
		if err != nil {
			l.seq--
			return Record{}, fmt.Errorf("audit: marshal record: %w", err)
		}
		if _, err := l.file.Write(append(line, '\n')); err != nil {
			l.seq--
			return Record{}, fmt.Errorf("audit: write record: %w", err)
		}
		if err := l.file.Sync(); err != nil {
			l.seq--
			return Record{}, fmt.Errorf("audit: sync: %w", err)
		}
	}

	// Commit the chain head before the sink write: the record is part
	// of the chain once it hits the primary log, even if a secondary
	// store lags behind.
	l.records = append(l.records, r)
	l.headHash = r.Hash

	if l.sink != nil {
		if err := l.sink.Insert(r); err != nil {
			return Record{}, fmt.Errorf("audit: sink: %w", err)
		}
	}
	return r, nil
}

// Records returns a snapshot of the records appended through this log
// instance. Records recovered from disk are not included; use
// VerifyFile for the full persisted chain.
func (l *Log) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Head returns the current chain head hash.
func (l *Log) Head() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.headHash
}

// Close flushes and closes the underlying file, if any.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// lastRecord reads the final JSONL line of an existing log file.
func lastRecord(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("audit: read existing log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxRecordLine)
	var lastLine []byte
	for scanner.Scan() {
		lastLine = append(lastLine[:0], scanner.Bytes()...)
	}
	if err := scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("audit: scan existing log: %w", err)
	}
	if len(lastLine) == 0 {
		return Record{}, fmt.Errorf("audit: existing log has no records")
	}

	var r Record
	if err := json.Unmarshal(lastLine, &r); err != nil {
		return Record{}, fmt.Errorf("audit: parse chain tail: %w", err)
	}
	return r, nil
}
