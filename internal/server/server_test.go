package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/invincible-jha/agent-benchmark-governance/internal/audit"
)

const testConfig = `
breaker:
  failure_threshold: 5
  cooldown: 30s
rate_limit:
  capacity: 10
  refill_per_second: 1
policies:
  - action: read_calendar
    min_trust: low
    allowed_scopes: [personal]
budgets:
  agent-1: 100.0
trust:
  agent-1: medium
`

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "gate.yaml")
	if err := os.WriteFile(cfgPath, []byte(testConfig), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	s, err := New(Config{
		Addr:         "127.0.0.1:0",
		ConfigPath:   cfgPath,
		AuditLogPath: filepath.Join(dir, "audit.jsonl"),
	})
	if err != nil {
		t.Fatalf("create server: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, filepath.Join(dir, "audit.jsonl")
}

func postEvaluate(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestEvaluateAllow(t *testing.T) {
	s, auditPath := newTestServer(t)

	w := postEvaluate(t, s.Handler(),
		`{"identity":"agent-1","action":"read_calendar","scope":"personal","cost":0.5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp evalResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Allowed {
		t.Errorf("expected allow, got reason %s", resp.Reason)
	}
	if resp.TraceID == "" {
		t.Error("expected server-minted trace id")
	}

	result := audit.VerifyFile(auditPath)
	if !result.Valid || result.Records != 1 {
		t.Errorf("expected 1 valid audit record, got %+v", result)
	}
}

func TestEvaluateDenyUnassignedIdentity(t *testing.T) {
	s, _ := newTestServer(t)

	// No trust in request and no assignment in config: fail-closed.
	w := postEvaluate(t, s.Handler(),
		`{"identity":"stranger","action":"read_calendar","scope":"personal"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp evalResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Allowed {
		t.Error("expected deny for unassigned identity")
	}
	if resp.Reason != "insufficient_trust_level" {
		t.Errorf("expected insufficient_trust_level, got %s", resp.Reason)
	}
}

func TestEvaluateExplicitTrustOverridesAssignment(t *testing.T) {
	s, _ := newTestServer(t)

	w := postEvaluate(t, s.Handler(),
		`{"identity":"stranger","trust":"owner","action":"read_calendar","scope":"personal"}`)
	var resp evalResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Allowed {
		t.Error("expected deny: stranger has no budget allocation")
	}
	if resp.Reason != "budget_exceeded" {
		t.Errorf("expected budget_exceeded, got %s", resp.Reason)
	}
}

func TestEvaluateMalformedBody(t *testing.T) {
	s, auditPath := newTestServer(t)

	w := postEvaluate(t, s.Handler(), `{"identity":`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	result := audit.VerifyFile(auditPath)
	if result.Records != 0 {
		t.Errorf("expected no audit records for malformed request, got %d", result.Records)
	}
}

type failingSink struct{}

func (failingSink) Insert(audit.Record) error {
	return errors.New("store unavailable")
}

func TestEvaluatePersistenceFailureIsServerError(t *testing.T) {
	s, _ := newTestServer(t)
	s.log.SetSink(failingSink{})

	w := postEvaluate(t, s.Handler(),
		`{"identity":"agent-1","action":"read_calendar","scope":"personal"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 when the decision cannot be persisted, got %d: %s",
			w.Code, w.Body.String())
	}
}

func TestEvaluateUnknownTrustString(t *testing.T) {
	s, _ := newTestServer(t)

	w := postEvaluate(t, s.Handler(),
		`{"identity":"agent-1","trust":"root","action":"read_calendar","scope":"personal"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown trust rank, got %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestReloadKeepsAuditChain(t *testing.T) {
	s, auditPath := newTestServer(t)

	postEvaluate(t, s.Handler(),
		`{"identity":"agent-1","action":"read_calendar","scope":"personal"}`)

	if err := s.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	postEvaluate(t, s.Handler(),
		`{"identity":"agent-1","action":"read_calendar","scope":"personal"}`)

	result := audit.VerifyFile(auditPath)
	if !result.Valid {
		t.Fatalf("expected valid chain across reload: %s", result.Error)
	}
	if result.Records != 2 {
		t.Errorf("expected 2 records, got %d", result.Records)
	}
}
