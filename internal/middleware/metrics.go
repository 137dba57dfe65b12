package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"commerce-service/prometheus"
)

// MetricsMiddleware records a counter and duration histogram per HTTP
// request, labelled by method, route template and response status.
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if err != nil {
			// The error handler has not run yet; use the status it will
			// write when the handler returned an echo.HTTPError.
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
		}

		method := c.Request().Method
		path := c.Path()
		code := strconv.Itoa(status)
		prometheus.HttpRequestsTotal.WithLabelValues(method, path, code).Inc()
		prometheus.HttpRequestDuration.WithLabelValues(method, path, code).Observe(time.Since(start).Seconds())

		return err
	}
}
