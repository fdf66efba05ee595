// Package http exposes the read-only status API for the price updater.
package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hiyoco-of-piyo/sedori-auto/internal/entity"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/dto"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/metrics"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/repository"
	"github.com/hiyoco-of-piyo/sedori-auto/pkg/logger"
)

// StatusHandler serves the run progress recorded by the batch runner.
// It only reads the progress store; runs are started by the CLI, never
// over HTTP.
type StatusHandler struct {
	progress repository.ProgressRepository
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(progress repository.ProgressRepository, m *metrics.Metrics, log *logger.Logger) *StatusHandler {
	return &StatusHandler{progress: progress, metrics: m, logger: log}
}

// RegisterRoutes registers the status routes on the Echo instance.
func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/api/v1/status", h.Status)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.metrics.Registry, promhttp.HandlerOpts{})))
}

// Health reports liveness.
func (h *StatusHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// Status returns the last run checkpoint. Before any run has executed
// the progress is an empty object rather than an error, so dashboards
// can poll unconditionally.
func (h *StatusHandler) Status(c echo.Context) error {
	p, err := h.progress.Load(c.Request().Context())
	if err != nil {
		if errors.Is(err, repository.ErrNoProgress) {
			return c.JSON(http.StatusOK, dto.StatusResponse{Progress: &entity.JobProgress{}})
		}
		h.logger.Error("load progress", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to load progress"})
	}
	return c.JSON(http.StatusOK, dto.StatusResponse{Progress: p})
}
