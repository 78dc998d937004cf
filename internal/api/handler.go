// Package api exposes the resolution and snapshot services over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"assignlens/internal/domain"
	"assignlens/internal/middleware"
	"assignlens/internal/service"
)

// Handler serves the device-resolution API.
type Handler struct {
	resolution  *service.ResolutionService
	snapshot    *service.SnapshotService
	snapshotDir string
	logger      *slog.Logger
}

// NewHandler creates a Handler. snapshotDir is the default import source
// for POST /v1/snapshots/import requests without an explicit dir.
func NewHandler(resolution *service.ResolutionService, snapshot *service.SnapshotService, snapshotDir string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		resolution:  resolution,
		snapshot:    snapshot,
		snapshotDir: snapshotDir,
		logger:      logger.With("component", "api"),
	}
}

// RouterConfig carries the middleware knobs for Router.
type RouterConfig struct {
	JWTSecret          []byte
	APIKeys            domain.APIKeyRepository
	RateLimit          middleware.RateLimitConfig
	CORSAllowedOrigins []string
}

// Router builds the chi router: a public health endpoint plus the
// authenticated /v1 API.
func (h *Handler) Router(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		}))
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		r.Use(middleware.RateLimiter(cfg.RateLimit))
	}

	r.Get("/healthz", h.health)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret, cfg.APIKeys))
		r.Get("/devices", h.listDevices)
		r.Get("/devices/{deviceID}/report", h.deviceReport)
		r.Post("/snapshots/import", h.importSnapshot)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.resolution.ListDevices(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if devices == nil {
		devices = []domain.Device{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices})
}

func (h *Handler) deviceReport(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	extended, _ := strconv.ParseBool(r.URL.Query().Get("extended"))

	report, err := h.resolution.BuildReport(r.Context(), deviceID, extended)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type importRequest struct {
	Dir string `json:"dir"`
}

func (h *Handler) importSnapshot(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, r, domain.ErrValidation("invalid request body"))
			return
		}
	}
	dir := req.Dir
	if dir == "" {
		dir = h.snapshotDir
	}
	if dir == "" {
		h.writeError(w, r, domain.ErrValidation("no snapshot directory configured"))
		return
	}

	summary, err := h.snapshot.ImportDir(r.Context(), dir)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"error", err)
	}
	writeJSON(w, status, map[string]any{
		"code":    status,
		"message": err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
