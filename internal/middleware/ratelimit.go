package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/command_pilot/internal/metrics"
	"github.com/Skotchmaster/command_pilot/internal/ratelimit"
	"github.com/Skotchmaster/command_pilot/pkg/logging"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

type Allower interface {
	Allow(ctx context.Context, resource, id string) (ratelimit.Result, error)
}

// RateLimit keys by the authenticated user when one is attached, otherwise by client IP.
// A nil limiter disables the check; limiter errors let the request through.
func RateLimit(limiter Allower, resource string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limiter == nil {
			return next
		}
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			id := "ip:" + c.RealIP()
			if uid := c.Get(CtxUserID); uid != nil {
				id = fmt.Sprintf("user:%v", uid)
			}

			res, err := limiter.Allow(ctx, resource, id)
			if err != nil {
				logging.FromContext(ctx).Warn("ratelimit_unavailable", "resource", resource, "error", err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set(HeaderRateLimitLimit, strconv.Itoa(res.Limit))
			h.Set(HeaderRateLimitRemaining, strconv.Itoa(res.Remaining))
			h.Set(HeaderRateLimitReset, strconv.FormatInt(res.Reset.UnixMilli(), 10))

			if !res.Allowed {
				metrics.RateLimited.Inc()
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "Rate limit exceeded"})
			}
			return next(c)
		}
	}
}
