package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// VerifyResult holds the outcome of a chain verification. A mismatch is
// fatal to trust in the log segment from BadSeq onward and must be
// surfaced to an operator, never auto-repaired.
type VerifyResult struct {
	Valid   bool   `json:"valid"`
	Records int    `json:"records"`
	Error   string `json:"error,omitempty"`
	BadSeq  uint64 `json:"bad_seq,omitempty"`
}

// VerifyRecords replays a chain from genesis, independent of the append
// logic: sequence numbers must run 1..N with no gaps, each record's
// prev_hash must equal the previous record's hash (genesis for the
// first), and each stored hash must match its recomputation.
func VerifyRecords(records []Record) VerifyResult {
	prevHash := GenesisHash
	for i, r := range records {
		want := uint64(i + 1)
		if r.Seq != want {
			return VerifyResult{
				Error:  fmt.Sprintf("sequence discontinuity: expected %d, got %d", want, r.Seq),
				BadSeq: r.Seq,
			}
		}
		if r.PrevHash != prevHash {
			return VerifyResult{
				Error:  fmt.Sprintf("broken chain at seq %d: prev_hash %s does not match %s", r.Seq, r.PrevHash, prevHash),
				BadSeq: r.Seq,
			}
		}
		if recomputed := HashRecord(r); r.Hash != recomputed {
			return VerifyResult{
				Error:  fmt.Sprintf("hash mismatch at seq %d: stored %s, recomputed %s", r.Seq, r.Hash, recomputed),
				BadSeq: r.Seq,
			}
		}
		prevHash = r.Hash
	}
	return VerifyResult{Valid: true, Records: len(records)}
}

// VerifyFile reads a JSONL audit log and validates the full chain.
func VerifyFile(path string) VerifyResult {
	f, err := os.Open(path)
	if err != nil {
		return VerifyResult{Error: fmt.Sprintf("open: %v", err)}
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxRecordLine)
	line := 0
	for scanner.Scan() {
		line++
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			return VerifyResult{Error: fmt.Sprintf("parse error at line %d: %v", line, err)}
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return VerifyResult{Error: fmt.Sprintf("scan: %v", err)}
	}

	return VerifyRecords(records)
}
