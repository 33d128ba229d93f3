package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	xlogger "coincast/pkg/logger"
)

// HeaderRequestID carries the per-request correlation ID.
const HeaderRequestID = "X-Request-Id"

// RequestLogging logs one structured line per request and stamps each with a
// request ID, reusing the caller's ID when one arrives on the header.
func RequestLogging(l *xlogger.Logger) echo.MiddlewareFunc {
	if l == nil {
		l = xlogger.Nop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			rid := req.Header.Get(HeaderRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			res.Header().Set(HeaderRequestID, rid)

			err := next(c)

			l.Info("request",
				xlogger.String("method", req.Method),
				xlogger.String("uri", req.RequestURI),
				xlogger.String("remote", req.RemoteAddr),
				xlogger.Int("status", res.Status),
				xlogger.Duration("latency", time.Since(start)),
				xlogger.String("rid", rid),
			)
			return err
		}
	}
}
