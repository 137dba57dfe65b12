package logger

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// FromEcho returns the request-scoped logger placed on the echo context
// by the request-id middleware, falling back to the global logger.
func FromEcho(c echo.Context) *zap.Logger {
	if log, ok := c.Get("logger").(*zap.Logger); ok {
		return log
	}
	return GetLogger()
}
