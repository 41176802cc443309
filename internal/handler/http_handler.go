package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sitepulse/sitepulse/internal/cache"
	"github.com/sitepulse/sitepulse/internal/engine"
)

// EventStore is the read contract the handlers need from the behavioral data
// store.
type EventStore interface {
	engine.ChunkSource
	GetHoverEvents(ctx context.Context, siteID, pagePath, deviceType string, tr engine.TimeRange) ([]engine.HoverRow, error)
	GetSessionAggregates(ctx context.Context, siteID, pagePath string, tr engine.TimeRange) ([]engine.SessionPathMetrics, error)
	GetRageClickPoints(ctx context.Context, siteID, pagePath, deviceType string, tr engine.TimeRange) ([]engine.RageClickPoint, error)
	GetVariantCounts(ctx context.Context, experimentID string, tr engine.TimeRange) ([]engine.VariantStats, error)
	GetVitalSamples(ctx context.Context, siteID, pagePath string, tr engine.TimeRange) ([]engine.VitalSample, error)
}

// ExperimentConfigStore resolves the configured variants of an experiment for
// the zero-filled presentation fallback.
type ExperimentConfigStore interface {
	GetExperimentVariants(ctx context.Context, experimentID string) ([]string, error)
}

// HTTPHandler translates dashboard requests into engine calls. Caching is
// applied here, never inside the engine: hover heatmaps for five minutes and
// experiment configuration for one minute by default.
type HTTPHandler struct {
	store       EventStore
	experiments ExperimentConfigStore

	reconstructor *engine.Reconstructor
	clusterer     *engine.Clusterer
	classifier    *engine.Classifier
	evaluator     *engine.Evaluator

	cache         cache.Cache
	heatmapTTL    time.Duration
	expConfigTTL  time.Duration
	defaultRadius float64
}

// Options bundle the caller-side tunables.
type Options struct {
	HeatmapTTL          time.Duration
	ExperimentConfigTTL time.Duration
	HotspotRadiusPx     float64
	ConfidenceLevel     float64
}

func NewHTTPHandler(store EventStore, experiments ExperimentConfigStore, c cache.Cache, opts Options) *HTTPHandler {
	return &HTTPHandler{
		store:         store,
		experiments:   experiments,
		reconstructor: engine.NewReconstructor(store),
		clusterer:     engine.NewClusterer(opts.HotspotRadiusPx),
		classifier:    engine.NewClassifier(),
		evaluator:     engine.NewEvaluator(opts.ConfidenceLevel),
		cache:         c,
		heatmapTTL:    opts.HeatmapTTL,
		expConfigTTL:  opts.ExperimentConfigTTL,
		defaultRadius: opts.HotspotRadiusPx,
	}
}

// Routes mounts every derived-view endpoint on the router.
func (h *HTTPHandler) Routes(r chi.Router) {
	r.Get("/v1/sites/{siteID}/sessions/{sessionID}/replay", h.HandleReplay)
	r.Get("/v1/sites/{siteID}/hotspots", h.HandleHotspots)
	r.Get("/v1/sites/{siteID}/attention", h.HandleAttention)
	r.Get("/v1/sites/{siteID}/patterns", h.HandlePatterns)
	r.Get("/v1/sites/{siteID}/vitals", h.HandleVitals)
	r.Get("/v1/experiments/{experimentID}/results", h.HandleExperimentResults)
}

func (h *HTTPHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.reconstructor.Reconstruct(r.Context(), siteID, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *HTTPHandler) HandleHotspots(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")
	pagePath := r.URL.Query().Get("page")
	if siteID == "" || pagePath == "" {
		writeError(w, engine.ErrInvalidArgument)
		return
	}

	radius := h.defaultRadius
	if raw := r.URL.Query().Get("radius"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			writeError(w, engine.ErrInvalidArgument)
			return
		}
		radius = parsed
	}

	points, err := h.store.GetRageClickPoints(r.Context(), siteID, pagePath,
		r.URL.Query().Get("device"), timeRange(r))
	if err != nil {
		writeError(w, err)
		return
	}

	clusterer := h.clusterer
	if radius != h.defaultRadius {
		clusterer = engine.NewClusterer(radius)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"hotspots": clusterer.Cluster(points),
	})
}

func (h *HTTPHandler) HandleAttention(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")
	pagePath := r.URL.Query().Get("page")
	if siteID == "" || pagePath == "" {
		writeError(w, engine.ErrInvalidArgument)
		return
	}
	deviceType := r.URL.Query().Get("device")
	tr := timeRange(r)

	cacheKey := "attention:" + siteID + ":" + pagePath + ":" + deviceType + ":" + tr.From.String() + ":" + tr.To.String()
	if cached, ok := h.cache.Get(r.Context(), cacheKey); ok {
		writeRawJSON(w, http.StatusOK, cached)
		return
	}

	rows, err := h.store.GetHoverEvents(r.Context(), siteID, pagePath, deviceType, tr)
	if err != nil {
		writeError(w, err)
		return
	}

	result := engine.AggregateHover(rows)
	body, err := json.Marshal(result)
	if err != nil {
		writeError(w, err)
		return
	}

	h.cache.Set(r.Context(), cacheKey, body, h.heatmapTTL)
	writeRawJSON(w, http.StatusOK, body)
}

func (h *HTTPHandler) HandlePatterns(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")
	if siteID == "" {
		writeError(w, engine.ErrInvalidArgument)
		return
	}

	sessions, err := h.store.GetSessionAggregates(r.Context(), siteID,
		r.URL.Query().Get("page"), timeRange(r))
	if err != nil {
		writeError(w, err)
		return
	}

	classifications := make([]engine.SessionPathClassification, 0, len(sessions))
	for _, m := range sessions {
		classifications = append(classifications, h.classifier.Classify(m))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions":  classifications,
		"breakdown": h.classifier.Breakdown(sessions),
	})
}

func (h *HTTPHandler) HandleVitals(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")
	pagePath := r.URL.Query().Get("page")
	if siteID == "" || pagePath == "" {
		writeError(w, engine.ErrInvalidArgument)
		return
	}

	samples, err := h.store.GetVitalSamples(r.Context(), siteID, pagePath, timeRange(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"vitals": engine.SummarizeVitals(samples),
	})
}

func (h *HTTPHandler) HandleExperimentResults(w http.ResponseWriter, r *http.Request) {
	experimentID := chi.URLParam(r, "experimentID")
	if experimentID == "" {
		writeError(w, engine.ErrInvalidArgument)
		return
	}

	variants, err := h.store.GetVariantCounts(r.Context(), experimentID, timeRange(r))
	if err != nil {
		writeError(w, err)
		return
	}

	// No recorded counts yet: present one zeroed row per configured variant
	// instead of erroring.
	if len(variants) == 0 {
		configured, err := h.configuredVariants(r.Context(), experimentID)
		if err != nil {
			writeError(w, err)
			return
		}
		if len(configured) == 0 {
			writeError(w, engine.ErrNotFound)
			return
		}
		variants = engine.ZeroFilledVariants(configured)
	}

	writeJSON(w, http.StatusOK, h.evaluator.Evaluate(experimentID, variants))
}

// configuredVariants resolves the experiment's variant list through the
// short-lived config cache.
func (h *HTTPHandler) configuredVariants(ctx context.Context, experimentID string) ([]string, error) {
	cacheKey := "expconfig:" + experimentID
	if cached, ok := h.cache.Get(ctx, cacheKey); ok {
		var variants []string
		if err := json.Unmarshal(cached, &variants); err == nil {
			return variants, nil
		}
	}

	variants, err := h.experiments.GetExperimentVariants(ctx, experimentID)
	if err != nil {
		return nil, err
	}

	if body, err := json.Marshal(variants); err == nil {
		h.cache.Set(ctx, cacheKey, body, h.expConfigTTL)
	}
	return variants, nil
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// timeRange reads optional unix-millisecond bounds from the query string.
// Unparseable bounds are ignored rather than rejected.
func timeRange(r *http.Request) engine.TimeRange {
	var tr engine.TimeRange
	if raw := r.URL.Query().Get("from"); raw != "" {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			tr.From = time.UnixMilli(ms)
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			tr.To = time.UnixMilli(ms)
		}
	}
	return tr
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// writeError maps engine errors onto the wire: missing keys are the caller's
// fault, absent data renders as "no data yet", everything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_argument"})
	case errors.Is(err, engine.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	default:
		log.Error().Err(err).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
	}
}

// RequestIDMiddleware tags every response with a fresh request id so
// dashboard-side errors can be matched against server logs.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

// CORSMiddleware allows the dashboard frontend to call the query API from
// another origin.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
