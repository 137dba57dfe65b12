package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"commerce-service/pkg/jwtutil"
	"commerce-service/pkg/logger"
)

// AuthMiddleware validates the bearer token and places the tenant
// context on the request. Every engine operation is tenant-scoped, so a
// token without a tenant id is rejected outright.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		tokenString, ok := bearerToken(c.Request().Header.Get("Authorization"))
		if !ok {
			log.Warn("Missing or malformed Authorization header")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "bearer token required"})
		}

		claims, err := jwtutil.ValidateToken(tokenString)
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		if claims.TenantID == nil {
			log.Warn("JWT token does not carry a tenant_id",
				zap.Uint("user_id", claims.UserID))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required in the token"})
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("tenant_id", *claims.TenantID)
		c.Set("tenant_name", claims.TenantName)
		c.Set("user_role", claims.Role)

		log.Debug("Request authenticated",
			zap.Uint("tenant_id", *claims.TenantID),
			zap.Uint("user_id", claims.UserID))
		return next(c)
	}
}

// bearerToken extracts the token from an "Authorization: Bearer x" header.
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetTenantIDFromContext retrieves the tenant ID from the context.
// Returns 0, false if tenant ID is not found.
func GetTenantIDFromContext(c echo.Context) (uint, bool) {
	tenantID, ok := c.Get("tenant_id").(uint)
	return tenantID, ok
}
