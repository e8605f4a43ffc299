package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "CoeffRisk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover converts a handler panic into a 500 envelope and logs the stack
// under the request ID.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				l.Error("handler panicked",
					applogger.String("route", c.Path()),
					applogger.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
					applogger.Error(asError(r)),
					applogger.String("stack", string(debug.Stack())),
				)
				if c.Response().Committed {
					return
				}
				err = c.JSON(http.StatusInternalServerError, echo.Map{
					"status":  http.StatusInternalServerError,
					"message": http.StatusText(http.StatusInternalServerError),
				})
			}()
			return next(c)
		}
	}
}

func asError(r interface{}) error {
	if e, ok := r.(error); ok {
		return e
	}
	return fmt.Errorf("%v", r)
}
