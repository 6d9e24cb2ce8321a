package server

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// requestLogger logs one structured line per request.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			attrs := []any{
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				attrs = append(attrs, "error", err)
				slog.Error("request", attrs...)
			} else {
				slog.Info("request", attrs...)
			}
			return err
		}
	}
}
