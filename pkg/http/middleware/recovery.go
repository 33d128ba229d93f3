package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	xlogger "coincast/pkg/logger"
)

// Recover turns a handler panic into a logged 500 instead of a dropped
// connection. The stack goes to the log, never to the client.
func Recover(l *xlogger.Logger) echo.MiddlewareFunc {
	if l == nil {
		l = xlogger.Nop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					l.Error("panic recovered",
						xlogger.String("path", c.Request().URL.Path),
						xlogger.Error(err),
						xlogger.String("stack", string(debug.Stack())),
					)
					_ = c.JSON(http.StatusInternalServerError, map[string]interface{}{
						"status":  http.StatusInternalServerError,
						"message": "Internal Server Error",
					})
				}
			}()
			return next(c)
		}
	}
}
