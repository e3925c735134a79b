// Package server exposes the gate over HTTP. The façade preserves the
// request and result fields verbatim; evaluation itself stays
// in-process and synchronous.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/invincible-jha/agent-benchmark-governance/internal/audit"
	"github.com/invincible-jha/agent-benchmark-governance/internal/config"
	"github.com/invincible-jha/agent-benchmark-governance/internal/gate"
	"github.com/invincible-jha/agent-benchmark-governance/internal/model"
)

// Config holds server configuration.
type Config struct {
	Addr         string
	ConfigPath   string
	AuditLogPath string
	AuditDBPath  string
}

// Server serves gate evaluations over HTTP with hot-reloadable
// configuration. The audit log survives reloads so the chain stays
// unbroken while rules change.
type Server struct {
	mu    sync.RWMutex
	g     *gate.Gate
	cfg   *config.Config
	conf  Config
	log   *audit.Log
	store *audit.Store

	httpSrv *http.Server
}

// New loads configuration, opens the audit log (and optional SQLite
// store), and assembles the gate.
func New(conf Config) (*Server, error) {
	s := &Server{conf: conf}

	if conf.AuditLogPath != "" {
		log, err := audit.Open(conf.AuditLogPath)
		if err != nil {
			return nil, fmt.Errorf("server: open audit log: %w", err)
		}
		s.log = log
	} else {
		s.log = audit.New()
	}

	if conf.AuditDBPath != "" {
		store, err := audit.OpenStore(conf.AuditDBPath)
		if err != nil {
			return nil, fmt.Errorf("server: open audit store: %w", err)
		}
		s.store = store
		s.log.SetSink(store)
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}

	s.httpSrv = &http.Server{
		Addr:              conf.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Reload re-reads the configuration file and swaps in a fresh gate.
// Breaker, limiter, and budget state restart from the new configuration;
// the audit chain is carried over untouched.
func (s *Server) Reload() error {
	cfg, hash, err := config.LoadWithHash(s.conf.ConfigPath)
	if err != nil {
		return err
	}
	g, err := gate.FromConfig(cfg, hash, s.log)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.g = g
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("GET /v1/healthz", s.handleHealthz)
	return mux
}

// ListenAndServe blocks serving HTTP until Shutdown.
func (s *Server) ListenAndServe() error {
	return s.httpSrv.ListenAndServe()
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Close releases the audit log and store.
func (s *Server) Close() error {
	if s.store != nil {
		s.store.Close()
	}
	return s.log.Close()
}

// evalRequest is the wire form of one evaluation request. Trust is
// optional: when omitted, the identity's configured assignment applies
// (none if unassigned — fail-closed).
type evalRequest struct {
	Identity string  `json:"identity"`
	Trust    string  `json:"trust,omitempty"`
	Action   string  `json:"action"`
	Scope    string  `json:"scope"`
	Cost     float64 `json:"cost"`
	Consent  bool    `json:"consent"`
	TraceID  string  `json:"trace_id,omitempty"`
}

type evalResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
	TraceID string `json:"trace_id"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	s.mu.RLock()
	g := s.g
	cfg := s.cfg
	s.mu.RUnlock()

	var trust model.TrustLevel
	if req.Trust != "" {
		parsed, err := model.ParseTrustLevel(req.Trust)
		if err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		trust = parsed
	} else {
		trust = cfg.TrustFor(req.Identity)
	}

	traceID := req.TraceID
	if traceID == "" {
		traceID = uuid.NewString()
	}

	result, err := g.Evaluate(model.Request{
		Identity: req.Identity,
		Trust:    trust,
		Action:   req.Action,
		Scope:    req.Scope,
		Cost:     req.Cost,
		Consent:  req.Consent,
		TraceID:  traceID,
	})
	if err != nil {
		// Malformed input is the caller's fault; anything else (an
		// audit persistence failure) is ours.
		if errors.Is(err, gate.ErrInvalidRequest) {
			httpError(w, http.StatusBadRequest, err.Error())
		} else {
			httpError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, evalResponse{
		Allowed: result.Allowed,
		Reason:  result.Reason,
		TraceID: traceID,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func httpError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
