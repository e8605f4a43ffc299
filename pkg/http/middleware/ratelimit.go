package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Allower decides whether a client key may proceed.
type Allower interface {
	Allow(key string) bool
}

// RateLimit rejects requests with 429 once a client's bucket is empty.
// Clients are keyed by real IP. onReject may be nil.
func RateLimit(a Allower, onReject func()) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if a.Allow(c.RealIP()) {
				return next(c)
			}
			if onReject != nil {
				onReject()
			}
			c.Response().Header().Set("Retry-After", "1")
			return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
				"status":  http.StatusTooManyRequests,
				"message": http.StatusText(http.StatusTooManyRequests),
				"data": []map[string]string{{
					"code":    "ERR_RATE_LIMITED",
					"message": "Too many requests, slow down",
				}},
			})
		}
	}
}
