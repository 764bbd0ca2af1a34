// Package server exposes the lookup store over a JSON HTTP API. It is a
// collaborator of the core index: it validates input at the edge, invokes
// register/remove/query/clear, and renders results; all index semantics live
// in internal/index.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lookup-labs/doclookup/internal/cache"
	"github.com/lookup-labs/doclookup/internal/index"
	"github.com/lookup-labs/doclookup/internal/tokenizer"
	apperrors "github.com/lookup-labs/doclookup/pkg/errors"
	"github.com/lookup-labs/doclookup/pkg/logger"
	"github.com/lookup-labs/doclookup/pkg/metrics"
)

// RegisterRequest is the JSON body accepted by the register endpoint. Name
// and Content are pointers so a missing field can be rejected while the
// empty string stays a valid value for both.
type RegisterRequest struct {
	Name    *string `json:"name"`
	Content *string `json:"content"`
}

// RegisterResponse is returned after a document is registered.
type RegisterResponse struct {
	Name     string `json:"name"`
	Replaced bool   `json:"replaced"`
}

// RemoveResponse reports whether the named document existed.
type RemoveResponse struct {
	Name    string `json:"name"`
	Removed bool   `json:"removed"`
}

// LookupResponse is the result of a word lookup.
type LookupResponse struct {
	Word      string   `json:"word"`
	Token     string   `json:"token"`
	Documents []string `json:"documents"`
	Count     int      `json:"count"`
	CacheHit  bool     `json:"cache_hit"`
}

// StatsResponse reports store and cache counters.
type StatsResponse struct {
	Documents   int   `json:"documents"`
	Terms       int   `json:"terms"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
}

// Handler serves the document and lookup endpoints.
type Handler struct {
	store   *index.Store
	cache   *cache.LookupCache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Handler. lookupCache may be nil to disable caching; m may be
// nil in tests.
func New(store *index.Store, lookupCache *cache.LookupCache, m *metrics.Metrics) *Handler {
	return &Handler{
		store:   store,
		cache:   lookupCache,
		metrics: m,
		logger:  slog.Default().With("component", "lookup-handler"),
	}
}

// Register handles POST /api/v1/documents.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "request body must be valid JSON"))
		return
	}
	if req.Name == nil {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "field 'name' is required"))
		return
	}
	if req.Content == nil {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "field 'content' is required"))
		return
	}

	_, replaced := h.store.Content(*req.Name)
	h.store.Register(*req.Name, *req.Content)
	h.invalidateCache(r)
	h.recordMutation(replaced, false)

	log.Info("document registered",
		"name", *req.Name,
		"content_bytes", len(*req.Content),
		"replaced", replaced,
	)
	h.writeJSON(w, http.StatusOK, RegisterResponse{Name: *req.Name, Replaced: replaced})
}

// Remove handles DELETE /api/v1/documents. The name query parameter must be
// present; removing an unregistered name succeeds with removed=false.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if !r.URL.Query().Has("name") {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'name' is required"))
		return
	}
	name := r.URL.Query().Get("name")

	_, existed := h.store.Content(name)
	h.store.Remove(name)
	if existed {
		h.invalidateCache(r)
		h.recordMutation(false, true)
	}

	log.Info("document removed", "name", name, "existed", existed)
	h.writeJSON(w, http.StatusOK, RemoveResponse{Name: name, Removed: existed})
}

// Lookup handles GET /api/v1/lookup.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if !r.URL.Query().Has("word") {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'word' is required"))
		return
	}
	word := r.URL.Query().Get("word")
	token := tokenizer.Normalize(word)

	var names []string
	cacheHit := false
	if h.cache != nil {
		names, cacheHit = h.cache.GetOrCompute(ctx, token, func() []string {
			return h.store.Query(word)
		})
	} else {
		names = h.store.Query(word)
	}
	if names == nil {
		names = []string{}
	}

	h.recordLookup(len(names), cacheHit, time.Since(start))
	log.Debug("lookup completed",
		"word", word,
		"token", token,
		"count", len(names),
		"cache_hit", cacheHit,
	)
	h.writeJSON(w, http.StatusOK, LookupResponse{
		Word:      word,
		Token:     token,
		Documents: names,
		Count:     len(names),
		CacheHit:  cacheHit,
	})
}

// Clear handles POST /api/v1/index/clear.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.store.Clear()
	h.invalidateCache(r)
	if h.metrics != nil {
		h.metrics.IndexDocuments.Set(0)
		h.metrics.IndexTerms.Set(0)
	}
	logger.FromContext(ctx).Info("index cleared")
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		Documents: h.store.DocCount(),
		Terms:     h.store.TermCount(),
	}
	if h.cache != nil {
		resp.CacheHits, resp.CacheMisses = h.cache.Stats()
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) invalidateCache(r *http.Request) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
	}
}

func (h *Handler) recordMutation(replaced, removed bool) {
	if h.metrics == nil {
		return
	}
	switch {
	case removed:
		h.metrics.DocsRemovedTotal.Inc()
	case replaced:
		h.metrics.DocsReplacedTotal.Inc()
	default:
		h.metrics.DocsRegisteredTotal.Inc()
	}
	h.metrics.IndexDocuments.Set(float64(h.store.DocCount()))
	h.metrics.IndexTerms.Set(float64(h.store.TermCount()))
}

func (h *Handler) recordLookup(count int, cacheHit bool, elapsed time.Duration) {
	if h.metrics == nil {
		return
	}
	resultType := "hit"
	if count == 0 {
		resultType = "zero_result"
	}
	h.metrics.LookupsTotal.WithLabelValues(resultType).Inc()
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	} else if h.cache != nil {
		h.metrics.CacheMissesTotal.Inc()
	}
	h.metrics.LookupLatency.WithLabelValues(cacheStatus).Observe(elapsed.Seconds())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	msg := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	h.writeJSON(w, status, map[string]string{"error": msg})
}
