package router

import (
	"qcportal/internal/qc/handler"
	"qcportal/internal/qc/metrics"
	"qcportal/internal/qc/policy"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(e *echo.Echo, h *handler.QCHandler, policyEngine *policy.Engine, auth handler.Authenticator, allowOrigins []string) {
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  allowOrigins,
		AllowMethods:  []string{echo.GET, echo.PUT, echo.POST, echo.OPTIONS},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
		ExposeHeaders: []string{echo.HeaderXRequestID, "Retry-After"},
	}))
	e.Use(metrics.Middleware)

	// Health Check & metrics
	e.GET("/health", h.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group(handler.APIPrefix)
	v1.Use(handler.RequestIDMiddleware)

	// Every route below must be declared in policies/routes.yaml
	rbacMiddleware := handler.NewRBACMiddleware(policyEngine, auth)
	v1.Use(rbacMiddleware.Middleware())

	// Identity
	v1.POST("/auth/register", h.PostRegister)
	v1.POST("/auth/login", h.PostLogin)
	v1.GET("/auth/me", h.GetMe)
	v1.GET("/reference-data", h.GetReferenceData)

	// Test records
	v1.POST("/tests", h.PostTestRecord)
	v1.POST("/tests/preview", h.PostPreview)
	v1.GET("/tests", h.GetTestRecords)
	v1.POST("/tests/search", h.PostSearchTestRecords)
	v1.GET("/tests/:id", h.GetTestRecord)
	v1.PUT("/tests/:id", h.PutTestRecord)
	v1.POST("/tests/:id/sign", h.PostSignTestRecord)

	// Registries
	v1.GET("/batches", h.GetBatches)
	v1.GET("/batches/next-number", h.GetNextBatchNumber)
	v1.GET("/batches/:id", h.GetBatch)
	v1.POST("/batches", h.PostBatch)
	v1.GET("/specifications", h.GetSpecifications)
	v1.POST("/specifications", h.PostSpecification)
	v1.GET("/equipment", h.GetEquipment)
	v1.POST("/equipment", h.PostEquipment)

	// Audit & analytics
	v1.GET("/audit-logs", h.GetAuditLogs)
	v1.GET("/audit-logs/verify", h.GetAuditVerify)
	v1.GET("/analytics/dashboard", h.GetDashboard)
}
