package handler

import (
	"errors"
	"net/http"

	"qcportal/internal/qc/model"
	"qcportal/internal/qc/service"
	"qcportal/internal/qc/util"

	"github.com/labstack/echo/v4"
)

// retryAfterSeconds is advertised on 503 responses
const retryAfterSeconds = "5"

// Helper to map errors to HTTP status and body
func httpError(err error) (int, model.ErrorResponse) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, model.ErrorResponse{Error: *verr.Detail}
	}

	var (
		status int
		code   string
		msg    string
	)
	switch {
	case errors.Is(err, service.ErrValidation):
		status, code, msg = http.StatusBadRequest, model.CodeValidation, err.Error()
	case errors.Is(err, service.ErrAuthentication):
		status, code, msg = http.StatusUnauthorized, model.CodeUnauthorized, "Authentication failed"
	case errors.Is(err, service.ErrAuthorization):
		status, code, msg = http.StatusForbidden, model.CodeForbidden, "You do not have permission to perform this action"
	case errors.Is(err, service.ErrNotFound):
		status, code, msg = http.StatusNotFound, model.CodeNotFound, "Resource not found"
	case errors.Is(err, service.ErrAlreadySigned):
		status, code, msg = http.StatusConflict, model.CodeAlreadySigned, "Test record is already signed"
	case errors.Is(err, service.ErrConflict):
		status, code, msg = http.StatusConflict, model.CodeConflict, err.Error()
	case errors.Is(err, service.ErrTimeout):
		status, code, msg = http.StatusServiceUnavailable, model.CodeTimeout, "The operation timed out, please retry"
	case errors.Is(err, service.ErrStorage):
		status, code, msg = http.StatusInternalServerError, model.CodeStorage, "Storage is unavailable"
	default:
		status, code, msg = http.StatusInternalServerError, model.CodeInternal, "Internal server error"
	}

	return status, model.ErrorResponse{
		Error: model.ErrorDetail{Code: code, Message: msg},
	}
}

// writeError renders err with the request id and logs server-side failures
func writeError(c echo.Context, err error) error {
	status, body := httpError(err)
	body.Error.RequestID = requestID(c)

	if status == http.StatusServiceUnavailable {
		c.Response().Header().Set("Retry-After", retryAfterSeconds)
	}
	if status >= http.StatusInternalServerError {
		util.GetLogger().Error("request failed",
			"request_id", body.Error.RequestID,
			"method", c.Request().Method,
			"route", c.Path(),
			"status", status,
			"error", err)
	}
	return c.JSON(status, body)
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, model.ErrorResponse{
		Error: model.ErrorDetail{Code: model.CodeValidation, Message: message, RequestID: requestID(c)},
	})
}
