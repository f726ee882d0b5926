package handler

import (
	"context"
	"net/http"
	"strings"

	"qcportal/internal/qc/model"
	"qcportal/internal/qc/policy"
	"qcportal/internal/qc/util"

	"github.com/labstack/echo/v4"
)

const (
	ctxKeyActor = "actor"

	// APIPrefix is the group every guarded route is registered under
	APIPrefix = "/api/v1"
)

// Authenticator resolves a bearer token to its user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// RBACMiddleware guards routes according to the route policy file
type RBACMiddleware struct {
	policyEngine *policy.Engine
	auth         Authenticator
}

func NewRBACMiddleware(engine *policy.Engine, auth Authenticator) *RBACMiddleware {
	return &RBACMiddleware{policyEngine: engine, auth: auth}
}

// Middleware returns the Echo middleware function
func (m *RBACMiddleware) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// 1. Look up the guard for the registered route
			route, exists := m.policyEngine.Route(c.Request().Method, c.Path())
			if !exists {
				if isNotFoundRoute(c.Path()) {
					return next(c)
				}
				// Undeclared routes are not served to anyone
				util.GetLogger().Warn("route has no policy", "method", c.Request().Method, "route", c.Path())
				return c.JSON(http.StatusForbidden, model.ErrorResponse{
					Error: model.ErrorDetail{Code: model.CodeForbidden, Message: "Route is not available", RequestID: requestID(c)},
				})
			}
			if route.Access == policy.AccessPublic {
				return next(c)
			}

			// 2. Resolve the bearer token
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, model.ErrorResponse{
					Error: model.ErrorDetail{Code: model.CodeUnauthorized, Message: "Bearer token is required", RequestID: requestID(c)},
				})
			}
			user, err := m.auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				return writeError(c, err)
			}
			c.Set(ctxKeyActor, user)

			// 3. Check the role grant
			if route.Access == policy.AccessPermission && !m.policyEngine.HasPermission(user.Role, route.Permission) {
				util.GetLogger().Warn("permission denied",
					"username", user.Username, "role", user.Role, "permission", route.Permission, "route", c.Path())
				return c.JSON(http.StatusForbidden, model.ErrorResponse{
					Error: model.ErrorDetail{Code: model.CodeForbidden, Message: "You do not have permission to perform this action", RequestID: requestID(c)},
				})
			}

			return next(c)
		}
	}
}

// isNotFoundRoute matches the catch-all routes echo registers for a group
func isNotFoundRoute(path string) bool {
	return path == APIPrefix || strings.HasSuffix(path, "/*")
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// actorFrom returns the user resolved by the RBAC middleware
func actorFrom(c echo.Context) *model.User {
	user, _ := c.Get(ctxKeyActor).(*model.User)
	return user
}
