package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/streamscout/internal/domain"
	autocompleteuc "github.com/kailas-cloud/streamscout/internal/usecase/autocomplete"
	recommenduc "github.com/kailas-cloud/streamscout/internal/usecase/recommend"
	subscriptionuc "github.com/kailas-cloud/streamscout/internal/usecase/subscription"
)

// Error response codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeCacheMiss        = "cache_unavailable"
	codeRateLimited      = "rate_limited"
	codeProviderError    = "provider_error"
	codeInternalError    = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// streamSource reads the published enriched stream set.
type streamSource interface {
	GetStreams(ctx context.Context) ([]domain.EnrichedStream, error)
}

// pinger checks a dependency for the health endpoint.
type pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP API surface over the read-path services.
type Server struct {
	streams       streamSource
	recommend     *recommenduc.Service
	autocomplete  *autocompleteuc.Service
	subscriptions *subscriptionuc.Service
	db            pinger
	logger        *zap.Logger
	kick          func()
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	streams streamSource,
	recommend *recommenduc.Service,
	autocomplete *autocompleteuc.Service,
	subscriptions *subscriptionuc.Service,
	db pinger,
	logger *zap.Logger,
) *Server {
	s := &Server{
		streams:       streams,
		recommend:     recommend,
		autocomplete:  autocomplete,
		subscriptions: subscriptions,
		db:            db,
		logger:        logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrCacheMiss, http.StatusServiceUnavailable, codeCacheMiss),
		sentinelHandler(domain.ErrSnapshotUnavailable, http.StatusServiceUnavailable, codeCacheMiss),
		sentinelHandler(domain.ErrInvalidNamespace, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrSubscriberNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrInvalidResponse, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrEnrichmentProviderError, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeProviderError),
	}
	return s
}

// WithCacheMissKick registers a scheduler nudge fired when the stream
// listing hits an expired cache.
func (s *Server) WithCacheMissKick(kick func()) *Server {
	s.kick = kick
	return s
}

// Routes registers all endpoints on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/streams", s.ListStreams)
		r.Get("/recommendations", s.RecommendByTags)
		r.Post("/recommendations/semantic", s.RecommendBySimilarity)
		r.Get("/tags/autocomplete", s.AutocompleteTags)
		r.Route("/subscribers/{subscriberID}", func(r chi.Router) {
			r.Get("/tags", s.ListSubscriberTags)
			r.Put("/tags", s.ReplaceSubscriberTags)
			r.Put("/notifications", s.SetNotifications)
		})
	})
}

// ListStreams handles GET /v1/streams.
func (s *Server) ListStreams(w http.ResponseWriter, r *http.Request) {
	streams, err := s.streams.GetStreams(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) && s.kick != nil {
			s.kick()
		}
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, streamListResponse{
		Items: streams,
		Total: len(streams),
	})
}

// RecommendByTags handles GET /v1/recommendations?tags=a,b&limit=n.
func (s *Server) RecommendByTags(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("tags")
	if strings.TrimSpace(raw) == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "tags query parameter is required")
		return
	}
	tags := strings.Split(raw, ",")

	limit, ok := parseLimit(w, r.URL.Query().Get("limit"))
	if !ok {
		return
	}

	scored, err := s.recommend.ByTags(r.Context(), tags, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recommendationsResponse{Items: scored})
}

// RecommendBySimilarity handles POST /v1/recommendations/semantic.
func (s *Server) RecommendBySimilarity(w http.ResponseWriter, r *http.Request) {
	var req semanticRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query is required")
		return
	}

	scored, err := s.recommend.BySimilarity(r.Context(), req.Query, req.Limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recommendationsResponse{Items: scored})
}

// AutocompleteTags handles GET /v1/tags/autocomplete?namespace=&prefix=&limit=.
func (s *Server) AutocompleteTags(w http.ResponseWriter, r *http.Request) {
	ns, err := domain.ParseNamespace(r.URL.Query().Get("namespace"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	limit, ok := parseLimit(w, r.URL.Query().Get("limit"))
	if !ok {
		return
	}

	tags, err := s.autocomplete.Search(r.Context(), ns, r.URL.Query().Get("prefix"), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]suggestionItem, len(tags))
	for i, tag := range tags {
		items[i] = suggestionItem{Name: tag.Name, UsageCount: tag.UsageCount}
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{Items: items})
}

// ListSubscriberTags handles GET /v1/subscribers/{subscriberID}/tags.
func (s *Server) ListSubscriberTags(w http.ResponseWriter, r *http.Request) {
	subscriberID := chi.URLParam(r, "subscriberID")

	subs, err := s.subscriptions.List(r.Context(), subscriberID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := subscriptionsResponse{Items: make([]subscriptionItem, len(subs))}
	for i, sub := range subs {
		resp.Items[i] = subscriptionItem{Namespace: string(sub.Namespace), Name: sub.TagName}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ReplaceSubscriberTags handles PUT /v1/subscribers/{subscriberID}/tags.
func (s *Server) ReplaceSubscriberTags(w http.ResponseWriter, r *http.Request) {
	subscriberID := chi.URLParam(r, "subscriberID")

	var req replaceTagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ns, err := domain.ParseNamespace(req.Namespace)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if err := s.subscriptions.Replace(r.Context(), subscriberID, ns, req.Tags); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetNotifications handles PUT /v1/subscribers/{subscriberID}/notifications.
func (s *Server) SetNotifications(w http.ResponseWriter, r *http.Request) {
	subscriberID := chi.URLParam(r, "subscriberID")

	var req notificationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "enabled is required")
		return
	}

	if err := s.subscriptions.SetNotifications(r.Context(), subscriberID, *req.Enabled); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok"}
	status, httpStatus := "healthy", http.StatusOK
	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = "unavailable"
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{Status: status, Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type streamListResponse struct {
	Items []domain.EnrichedStream `json:"items"`
	Total int                     `json:"total"`
}

type recommendationsResponse struct {
	Items []recommenduc.Scored `json:"items"`
}

type semanticRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type suggestionItem struct {
	Name       string `json:"name"`
	UsageCount int64  `json:"usage_count"`
}

type suggestionsResponse struct {
	Items []suggestionItem `json:"items"`
}

type subscriptionItem struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

type subscriptionsResponse struct {
	Items []subscriptionItem `json:"items"`
}

type replaceTagsRequest struct {
	Namespace string   `json:"namespace"`
	Tags      []string `json:"tags"`
}

type notificationsRequest struct {
	Enabled *bool `json:"enabled"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func parseLimit(w http.ResponseWriter, raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must be a positive integer")
		return 0, false
	}
	return limit, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	// validation wrappers carry their own client-safe detail
	if errors.Is(err, domain.ErrValidation) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrCacheMiss,
		domain.ErrSnapshotUnavailable,
		domain.ErrInvalidNamespace,
		domain.ErrSubscriberNotFound,
		domain.ErrRateLimited,
		domain.ErrInvalidResponse,
		domain.ErrEnrichmentProviderError,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
