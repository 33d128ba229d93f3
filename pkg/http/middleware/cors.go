package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
}

// CORS returns CORS middleware. Header values are joined once at setup, not
// per request.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	allowAny := false
	allowed := make(map[string]bool, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			allowAny = true
			continue
		}
		allowed[o] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get("Origin")

			switch {
			case allowAny && origin != "":
				c.Response().Header().Set("Access-Control-Allow-Origin", origin)
			case allowAny:
				c.Response().Header().Set("Access-Control-Allow-Origin", "*")
			case allowed[origin]:
				c.Response().Header().Set("Access-Control-Allow-Origin", origin)
			default:
				return next(c)
			}

			if methods != "" {
				c.Response().Header().Set("Access-Control-Allow-Methods", methods)
			}
			if headers != "" {
				c.Response().Header().Set("Access-Control-Allow-Headers", headers)
			}

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}
