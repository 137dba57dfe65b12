package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"commerce-service/internal/apperr"
)

// fail maps an engine error onto the HTTP response. Typed errors carry
// their own status; anything else is a 500 with a generic body.
func fail(c echo.Context, log *zap.Logger, err error, msg string) error {
	status := apperr.StatusOf(err)
	if status == http.StatusInternalServerError {
		log.Error(msg, zap.Error(err))
		return c.JSON(status, echo.Map{"error": msg})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

// tenantID extracts the tenant id placed in the context by the auth
// middleware.
func tenantID(c echo.Context) (uint, bool) {
	id, ok := c.Get("tenant_id").(uint)
	return id, ok
}

// userEmail extracts the acting user's identity for version audit fields.
func userEmail(c echo.Context) string {
	email, _ := c.Get("email").(string)
	return email
}
