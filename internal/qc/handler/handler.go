package handler

import (
	"context"
	"net/http"
	"time"

	"qcportal/internal/qc/model"
	"qcportal/internal/qc/service"

	"github.com/labstack/echo/v4"
)

// Pinger reports store liveness
type Pinger interface {
	Ping(ctx context.Context) error
}

type QCHandler struct {
	Service service.QCService
	Store   Pinger
}

func NewQCHandler(s service.QCService, store Pinger) *QCHandler {
	return &QCHandler{Service: s, Store: store}
}

// HealthCheck handles GET /health
func (h *QCHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if h.Store != nil {
		if err := h.Store.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// GetReferenceData handles GET /reference-data
func (h *QCHandler) GetReferenceData(c echo.Context) error {
	return c.JSON(http.StatusOK, model.DefaultReferenceData())
}
