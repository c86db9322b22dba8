// Core HTTP request handler for the contract mock.

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/contractmock/internal/matching"
	"github.com/getmockd/contractmock/pkg/exchange"
	"github.com/getmockd/contractmock/pkg/fixture"
	"github.com/getmockd/contractmock/pkg/logging"
	"github.com/getmockd/contractmock/pkg/metrics"
	"github.com/getmockd/contractmock/pkg/stub"
	"github.com/getmockd/contractmock/pkg/transform"
)

// MaxRequestBodySize is the maximum allowed request body size for stub matching (10MB).
const MaxRequestBodySize = 10 << 20 // 10MB

// NearMissHeader carries the number of near misses on unmatched requests.
const NearMissHeader = "X-Contractmock-Near-Misses"

// journalBodyLimit caps request bodies kept in the journal.
const journalBodyLimit = 4 << 10

// nearMissCount is how many near misses are explained for an unmatched request.
const nearMissCount = 3

// Handler serves stubs and passes every exchange through the transformer.
type Handler struct {
	service     string
	table       *StubTable
	transformer *transform.Transformer
	fixtures    *fixture.Loader
	journal     *Journal
	metrics     *metrics.Registry
	log         *slog.Logger
	maxBodySize int64
	admin       *http.ServeMux
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithTransformer sets the contract interceptor. Without one, candidates are
// written as they are.
func WithTransformer(t *transform.Transformer) HandlerOption {
	return func(h *Handler) {
		h.transformer = t
	}
}

// WithFixtureLoader sets the loader for bodyFile responses.
func WithFixtureLoader(l *fixture.Loader) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.fixtures = l
		}
	}
}

// WithJournal sets the request journal.
func WithJournal(j *Journal) HandlerOption {
	return func(h *Handler) {
		if j != nil {
			h.journal = j
		}
	}
}

// WithMetricsRegistry records match hits and misses in reg and serves it on
// the metrics admin endpoint.
func WithMetricsRegistry(reg *metrics.Registry) HandlerOption {
	return func(h *Handler) {
		h.metrics = reg
	}
}

// WithOperationalLogger sets the logger for operational events.
func WithOperationalLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithMaxBodySize overrides MaxRequestBodySize.
func WithMaxBodySize(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodySize = n
		}
	}
}

// NewHandler creates a Handler serving table for service.
func NewHandler(service string, table *StubTable, opts ...HandlerOption) *Handler {
	h := &Handler{
		service:     service,
		table:       table,
		fixtures:    fixture.NewLoader(""),
		journal:     NewJournal(0),
		log:         logging.Nop(),
		maxBodySize: MaxRequestBodySize,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.table == nil {
		h.table = &StubTable{}
	}
	h.metrics.SetStubsLoaded(h.table.Len())
	h.admin = h.adminRoutes()
	return h
}

// Journal returns the request journal.
func (h *Handler) Journal() *Journal {
	return h.journal
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, AdminPrefix) {
		h.admin.ServeHTTP(w, r)
		return
	}

	startTime := time.Now()

	requestID := r.Header.Get(exchange.HeaderRequestID)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	// MaxBytesReader returns an error when the limit is exceeded, unlike
	// LimitReader which silently truncates.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.log.Warn("request body too large", "path", r.URL.Path, "limit", h.maxBodySize)
			w.Header().Set(exchange.HeaderRequestID, requestID)
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "Request body exceeds maximum allowed size")
			h.record(requestID, startTime, r, nil, "", http.StatusRequestEntityTooLarge, "", nil)
			return
		}
		h.log.Warn("failed to read request body", "path", r.URL.Path, "error", err)
	}

	req := exchange.NewRequest(r, bodyBytes)
	in := matching.NewInput(req)

	match := h.table.SelectBestMatch(in)

	// HEAD fallback: if no match for HEAD, retry as GET. The contract then
	// sees the GET it was stubbed for; net/http drops the body on the wire.
	if match == nil && r.Method == http.MethodHead {
		if match = h.table.SelectBestMatch(in.WithMethod(http.MethodGet)); match != nil {
			get := *req
			get.Method = http.MethodGet
			req = &get
		}
	}

	var (
		candidate  *exchange.Response
		matchedID  string
		nearMisses []matching.NearMiss
	)
	if match != nil {
		matchedID = match.Stub.ID
		h.log.Debug("request matched",
			"method", r.Method,
			"path", r.URL.Path,
			"stub_id", matchedID,
			"score", match.Score,
		)
		h.metrics.RecordMatchHit(matchedID)
		candidate = h.candidate(match.Stub.Response)
	} else {
		nearMisses = h.table.NearMisses(in, nearMissCount)
		h.metrics.RecordMatchMiss()
		candidate = exchange.NewTextResponse(http.StatusNotFound,
			fmt.Sprintf("No stub matched %s %s", r.Method, r.URL.Path))
		candidate.Header.Set(NearMissHeader, strconv.Itoa(len(nearMisses)))

		attrs := []any{"method", r.Method, "path", r.URL.Path, "near_misses", len(nearMisses)}
		if len(nearMisses) > 0 {
			attrs = append(attrs, "closest", nearMisses[0].StubID, "reason", nearMisses[0].Reason)
		}
		h.log.Info("no stub matched", attrs...)
	}

	resp, outcome := candidate, transform.Passed
	if h.transformer != nil {
		resp, outcome = h.transformer.Apply(r.Context(), req, candidate)
	}
	resp.Header.Set(exchange.HeaderRequestID, requestID)

	if err := sleep(r.Context(), resp.Delay); err != nil {
		h.log.Debug("client went away during delay", "path", r.URL.Path, "stub_id", matchedID)
		h.record(requestID, startTime, r, bodyBytes, matchedID, 0, outcome.String(), nearMisses)
		return
	}

	if err := resp.Write(w); err != nil {
		h.log.Debug("failed to write response", "path", r.URL.Path, "error", err)
	}
	h.record(requestID, startTime, r, bodyBytes, matchedID, resp.Status, outcome.String(), nearMisses)
}

// candidate builds the response a stub declares. Relative bodyFile names are
// read through the fixture loader, falling back to the CONFIGURATION_ERROR
// payload when the file cannot be read.
func (h *Handler) candidate(sr *stub.Response) *exchange.Response {
	resp := &exchange.Response{
		Status: sr.Status,
		Delay:  sr.Delay(),
	}

	names := make([]string, 0, len(sr.Headers))
	for name := range sr.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		resp.Header.Set(name, sr.Headers[name])
	}

	// Inline body first, then file
	switch {
	case sr.Body != "":
		resp.Body, resp.HasBody = sr.Body, true
	case sr.BodyFile != "":
		resp.Body, _ = h.fixtures.Load(sr.BodyFile)
		resp.HasBody = true
	}

	if resp.HasBody && !resp.Header.Has(exchange.HeaderContentType) {
		switch {
		case looksLikeJSON(resp.Body):
			resp.Header.Set(exchange.HeaderContentType, exchange.ContentTypeJSON)
		case looksLikeXML(resp.Body):
			resp.Header.Set(exchange.HeaderContentType, "application/xml")
		default:
			resp.Header.Set(exchange.HeaderContentType, exchange.ContentTypeTextPlain)
		}
	}
	return resp
}

// record appends the exchange to the journal. status 0 means nothing was
// written. Request bodies are kept up to journalBodyLimit bytes.
func (h *Handler) record(id string, start time.Time, r *http.Request, body []byte, stubID string, status int, outcome string, nearMisses []matching.NearMiss) {
	h.journal.Log(&JournalEntry{
		ID:          id,
		Timestamp:   start,
		Method:      r.Method,
		Path:        r.URL.Path,
		QueryString: r.URL.RawQuery,
		Body:        truncate(string(body), journalBodyLimit),
		StubID:      stubID,
		Status:      status,
		Outcome:     outcome,
		DurationMs:  int(time.Since(start).Milliseconds()),
		NearMisses:  nearMisses,
	})
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "...(truncated)"
	}
	return s
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// looksLikeJSON returns true if the string appears to be JSON content.
func looksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	return (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"))
}

// looksLikeXML returns true if the string appears to be XML content.
func looksLikeXML(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "<?xml") || strings.HasPrefix(s, "<")
}
