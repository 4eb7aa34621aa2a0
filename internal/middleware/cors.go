package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"
)

var extensionSchemes = []string{"chrome-extension://", "moz-extension://"}

// OriginAllowed accepts an empty origin, any origin in allowed, and browser-extension origins.
func OriginAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if origin == a {
			return true
		}
	}
	for _, s := range extensionSchemes {
		if strings.HasPrefix(origin, s) {
			return true
		}
	}
	return false
}

func CORS(allowed []string) echo.MiddlewareFunc {
	cors := ecM.CORSWithConfig(ecM.CORSConfig{
		AllowOriginFunc:  func(string) (bool, error) { return true, nil },
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		ExposeHeaders:    []string{HeaderRateLimitLimit, HeaderRateLimitRemaining, HeaderRateLimitReset},
		AllowCredentials: true,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withCORS := cors(next)
		return func(c echo.Context) error {
			if !OriginAllowed(c.Request().Header.Get(echo.HeaderOrigin), allowed) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "Not allowed by CORS"})
			}
			return withCORS(c)
		}
	}
}

// Common is the baseline chain installed before routing.
func Common() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		ecM.Recover(),
		ecM.RequestID(),
		ecM.Secure(),
	}
}
