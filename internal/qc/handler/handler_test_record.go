package handler

import (
	"net/http"

	"qcportal/internal/qc/model"

	"github.com/labstack/echo/v4"
)

// PostTestRecord handles POST /tests
func (h *QCHandler) PostTestRecord(c echo.Context) error {
	var req model.CreateTestRecordReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid body")
	}

	rec, err := h.Service.CreateTestRecord(c.Request().Context(), actorFrom(c), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

// PostPreview handles POST /tests/preview
func (h *QCHandler) PostPreview(c echo.Context) error {
	var req model.PreviewReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid body")
	}

	resp, err := h.Service.PreviewStatus(c.Request().Context(), actorFrom(c), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetTestRecords handles GET /tests
func (h *QCHandler) GetTestRecords(c echo.Context) error {
	var req model.ListTestRecordsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid parameters")
	}
	return h.listTestRecords(c, &req)
}

// PostSearchTestRecords handles POST /tests/search
func (h *QCHandler) PostSearchTestRecords(c echo.Context) error {
	var req model.ListTestRecordsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid body")
	}
	return h.listTestRecords(c, &req)
}

func (h *QCHandler) listTestRecords(c echo.Context, req *model.ListTestRecordsReq) error {
	records, err := h.Service.ListTestRecords(c.Request().Context(), actorFrom(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

// GetTestRecord handles GET /tests/:id
func (h *QCHandler) GetTestRecord(c echo.Context) error {
	rec, err := h.Service.GetTestRecord(c.Request().Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// PutTestRecord handles PUT /tests/:id
func (h *QCHandler) PutTestRecord(c echo.Context) error {
	var req model.UpdateTestRecordReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid body")
	}

	rec, err := h.Service.UpdateTestRecord(c.Request().Context(), actorFrom(c), c.Param("id"), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// PostSignTestRecord handles POST /tests/:id/sign
func (h *QCHandler) PostSignTestRecord(c echo.Context) error {
	var req model.SignTestRecordReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid body")
	}

	rec, err := h.Service.SignTestRecord(c.Request().Context(), actorFrom(c), c.Param("id"), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}
