// Package webhook is the thin HTTP adapter onto the Session Manager: it
// translates call-started/call-ended webhook deliveries and status/health
// polls into Session Manager calls, and nothing else.
package webhook

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/solpercival/thoth/internal/session"
)

// Server serves the webhook surface described in the external interfaces
// table: call-started, call-ended, status, and health.
type Server struct {
	manager *session.Manager
}

// New creates a Server backed by manager.
func New(manager *session.Manager) *Server {
	return &Server{manager: manager}
}

// Handler returns an http.Handler serving the webhook surface:
//
//	POST /webhook/call-started — starts a Session for call_id
//	POST /webhook/call-ended   — stops call_id's Session
//	GET  /status               — snapshot of live sessions
//	GET  /health               — liveness probe
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/call-started", s.handleCallStarted)
	mux.HandleFunc("POST /webhook/call-ended", s.handleCallEnded)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// callStartedRequest is the JSON body for /webhook/call-started.
type callStartedRequest struct {
	CallID string `json:"call_id"`
	From   string `json:"from"`
}

// callStartedResponse is the JSON body returned from /webhook/call-started.
type callStartedResponse struct {
	Status      string `json:"status"`
	CallID      string `json:"call_id"`
	CallerPhone string `json:"caller_phone"`
}

func (s *Server) handleCallStarted(w http.ResponseWriter, r *http.Request) {
	var req callStartedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.CallID == "" {
		http.Error(w, "call_id is required", http.StatusBadRequest)
		return
	}

	if err := s.manager.Start(r.Context(), req.CallID, req.From); err != nil {
		if errors.Is(err, session.ErrAlreadyExists) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, "failed to start session: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, callStartedResponse{Status: "success", CallID: req.CallID, CallerPhone: req.From})
}

// callEndedRequest is the JSON body for /webhook/call-ended.
type callEndedRequest struct {
	CallID string `json:"call_id"`
}

// callEndedResponse is the JSON body returned from /webhook/call-ended.
type callEndedResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleCallEnded(w http.ResponseWriter, r *http.Request) {
	var req callEndedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.CallID == "" {
		http.Error(w, "call_id is required", http.StatusBadRequest)
		return
	}

	if err := s.manager.Stop(req.CallID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "failed to stop session: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, callEndedResponse{Status: "success"})
}

// statusSession is one entry in the /status response.
type statusSession struct {
	CallID    string `json:"call_id"`
	UptimeSec int64  `json:"uptime_seconds"`
	StartedAt string `json:"started_at"`
}

// statusResponse is the JSON body returned from /status.
type statusResponse struct {
	ActiveSessions int             `json:"active_sessions"`
	Sessions       []statusSession `json:"sessions"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.manager.Status()
	res := statusResponse{ActiveSessions: st.Count, Sessions: make([]statusSession, 0, len(st.Sessions))}
	for _, sess := range st.Sessions {
		res.Sessions = append(res.Sessions, statusSession{
			CallID:    sess.CallID,
			UptimeSec: int64(sess.Uptime.Seconds()),
			StartedAt: sess.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON encodes v as JSON and writes it with the given status code. On
// encoding failure it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
