package handler

import (
	"net/http"

	"qcportal/internal/qc/model"

	"github.com/labstack/echo/v4"
)

// GetBatches handles GET /batches
func (h *QCHandler) GetBatches(c echo.Context) error {
	var req model.ListBatchesReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid parameters")
	}

	batches, err := h.Service.ListBatches(c.Request().Context(), actorFrom(c), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, batches)
}

// GetNextBatchNumber handles GET /batches/next-number
func (h *QCHandler) GetNextBatchNumber(c echo.Context) error {
	number, err := h.Service.NextBatchNumber(c.Request().Context(), actorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, model.NextBatchNumberResp{BatchNumber: number})
}

func (h *QCHandler) GetBatch(c echo.Context) error {
	batch, err := h.Service.GetBatch(c.Request().Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, batch)
}

func (h *QCHandler) PostBatch(c echo.Context) error {
	var req model.CreateBatchReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid body")
	}

	batch, err := h.Service.CreateBatch(c.Request().Context(), actorFrom(c), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, batch)
}

func (h *QCHandler) GetSpecifications(c echo.Context) error {
	var req model.ListSpecificationsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid parameters")
	}

	specs, err := h.Service.ListSpecifications(c.Request().Context(), actorFrom(c), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, specs)
}

func (h *QCHandler) PostSpecification(c echo.Context) error {
	var req model.CreateSpecificationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid body")
	}

	spec, err := h.Service.CreateSpecification(c.Request().Context(), actorFrom(c), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, spec)
}

func (h *QCHandler) GetEquipment(c echo.Context) error {
	list, err := h.Service.ListEquipment(c.Request().Context(), actorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *QCHandler) PostEquipment(c echo.Context) error {
	var req model.CreateEquipmentReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid body")
	}

	eq, err := h.Service.CreateEquipment(c.Request().Context(), actorFrom(c), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, eq)
}
