package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/invincible-jha/agent-benchmark-governance/internal/model"
)

// GenesisHash is the prev_hash of the first record in a new chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// TimestampFormat is the wire format for record timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// MaxRecordLine bounds a single serialized record line when reading a
// JSONL log. Identities, actions, and reasons are caller-supplied, so
// lines can exceed bufio's default 64 KiB token limit.
const MaxRecordLine = 1 << 20

// Record is one immutable entry in the hash-chained decision log.
// Hash is a pure function of (Seq, Identity, Action, Decision, Reason,
// Timestamp, PrevHash); PolicyHash and TraceID are correlation fields
// carried alongside the chain.
type Record struct {
	Seq        uint64 `json:"seq"`
	Identity   string `json:"identity"`
	Action     string `json:"action"`
	Decision   string `json:"decision"`
	Reason     string `json:"reason"`
	Timestamp  string `json:"ts"`
	PolicyHash string `json:"policy_hash,omitempty"`
	TraceID    string `json:"trace_id,omitempty"`
	PrevHash   string `json:"prev_hash"`
	Hash       string `json:"hash"`
}

// Entry is the caller-supplied portion of a record. Sequence number,
// timestamp, and hashes are assigned by the log at append time.
type Entry struct {
	Identity   string
	Action     string
	Decision   model.Decision
	Reason     string
	PolicyHash string
	TraceID    string
}

// HashRecord computes the SHA-256 of the record's chained fields.
// Fields are length-prefixed so no two field sequences concatenate to
// the same input.
func HashRecord(r Record) string {
	h := sha256.New()
	for _, f := range []string{
		strconv.FormatUint(r.Seq, 10),
		r.Identity,
		r.Action,
		r.Decision,
		r.Reason,
		r.Timestamp,
		r.PrevHash,
	} {
		fmt.Fprintf(h, "%d:%s;", len(f), f)
	}
	return hex.EncodeToString(h.Sum(nil))
}
