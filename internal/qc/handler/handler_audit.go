package handler

import (
	"net/http"

	"qcportal/internal/qc/model"

	"github.com/labstack/echo/v4"
)

// GetAuditLogs handles GET /audit-logs
func (h *QCHandler) GetAuditLogs(c echo.Context) error {
	var req model.GetAuditLogsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid parameters")
	}

	entries, err := h.Service.GetAuditLogs(c.Request().Context(), actorFrom(c), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

// GetAuditVerify handles GET /audit-logs/verify
func (h *QCHandler) GetAuditVerify(c echo.Context) error {
	report, err := h.Service.VerifyAuditChain(c.Request().Context(), actorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// GetDashboard handles GET /analytics/dashboard
func (h *QCHandler) GetDashboard(c echo.Context) error {
	var req model.DashboardReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid parameters")
	}

	dash, err := h.Service.Dashboard(c.Request().Context(), actorFrom(c), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dash)
}
