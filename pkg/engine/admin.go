// Reserved admin endpoints served next to the stubs.

package engine

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/getmockd/contractmock/pkg/stub"
)

// AdminPrefix is the path prefix reserved for admin endpoints. Requests under
// it never reach the stub table or the transformer.
const AdminPrefix = "/__contractmock/"

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of admin errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// StubSummary describes a loaded stub.
type StubSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Source      string `json:"source,omitempty"`
	Method      string `json:"method,omitempty"`
	Path        string `json:"path,omitempty"`
	PathPattern string `json:"pathPattern,omitempty"`
	Status      int    `json:"status"`
	DelayMs     int    `json:"delayMs,omitempty"`
}

// SummarizeStub returns the listing form of s.
func SummarizeStub(s *stub.Stub) StubSummary {
	return StubSummary{
		ID:          s.ID,
		Name:        s.Name,
		Source:      s.Source,
		Method:      strings.ToUpper(s.Request.Method),
		Path:        s.Request.Path,
		PathPattern: s.Request.PathPattern,
		Status:      s.Response.Status,
		DelayMs:     s.Response.DelayMs,
	}
}

// StubListResponse is the body of the stubs endpoint.
type StubListResponse struct {
	Service string        `json:"service"`
	Count   int           `json:"count"`
	Stubs   []StubSummary `json:"stubs"`
}

// RequestListResponse is the body of the request journal endpoint.
type RequestListResponse struct {
	Count    int             `json:"count"`
	Requests []*JournalEntry `json:"requests"`
}

func (h *Handler) adminRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+AdminPrefix+"health", h.handleHealth)
	mux.HandleFunc("GET "+AdminPrefix+"stubs", h.handleListStubs)
	mux.HandleFunc("GET "+AdminPrefix+"requests", h.handleListRequests)
	mux.HandleFunc("DELETE "+AdminPrefix+"requests", h.handleClearRequests)
	mux.Handle("GET "+AdminPrefix+"metrics", h.metrics.Handler())
	mux.HandleFunc(AdminPrefix, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "unknown admin endpoint "+r.URL.Path)
	})
	return mux
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, errCode, message string) {
	writeJSON(w, status, ErrorResponse{Error: errCode, Message: message})
}

// handleHealth handles the liveness probe endpoint.
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleListStubs lists the loaded stubs in declaration order.
func (h *Handler) handleListStubs(w http.ResponseWriter, _ *http.Request) {
	stubs := h.table.Stubs()
	summaries := make([]StubSummary, 0, len(stubs))
	for _, s := range stubs {
		summaries = append(summaries, SummarizeStub(s))
	}
	writeJSON(w, http.StatusOK, StubListResponse{
		Service: h.service,
		Count:   len(summaries),
		Stubs:   summaries,
	})
}

// handleListRequests lists journal entries, newest first.
func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &JournalFilter{
		Method:  q.Get("method"),
		Path:    q.Get("path"),
		StubID:  q.Get("stubId"),
		Outcome: q.Get("outcome"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	entries := h.journal.List(filter)
	writeJSON(w, http.StatusOK, RequestListResponse{Count: len(entries), Requests: entries})
}

// handleClearRequests empties the journal.
func (h *Handler) handleClearRequests(w http.ResponseWriter, _ *http.Request) {
	h.journal.Clear()
	w.WriteHeader(http.StatusNoContent)
}
