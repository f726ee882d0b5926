package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const ctxKeyRequestID = "request_id"

func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := c.Request().Header.Get(echo.HeaderXRequestID)
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, reqID)
		c.Response().Header().Set(echo.HeaderXRequestID, reqID)
		return next(c)
	}
}

func requestID(c echo.Context) string {
	if id, ok := c.Get(ctxKeyRequestID).(string); ok {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
