package handler

import (
	"net/http"

	"qcportal/internal/qc/model"

	"github.com/labstack/echo/v4"
)

// PostRegister handles POST /auth/register
func (h *QCHandler) PostRegister(c echo.Context) error {
	var req model.RegisterReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid body")
	}

	user, err := h.Service.Register(c.Request().Context(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

// PostLogin handles POST /auth/login
func (h *QCHandler) PostLogin(c echo.Context) error {
	var req model.LoginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid body")
	}

	resp, err := h.Service.Login(c.Request().Context(), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetMe handles GET /auth/me
func (h *QCHandler) GetMe(c echo.Context) error {
	return c.JSON(http.StatusOK, actorFrom(c))
}
