package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/command_pilot/internal/metrics"
	"github.com/Skotchmaster/command_pilot/internal/middleware"
	"github.com/Skotchmaster/command_pilot/pkg/db"
	loggingmw "github.com/Skotchmaster/command_pilot/pkg/middleware/logging"
)

type Deps struct {
	DB             *gorm.DB
	UserHandler    *UserHTTP
	CommandHandler *CommandHTTP
	Auth           *middleware.Auth
	// Limiter may be nil to disable rate limiting.
	Limiter        middleware.Allower
	AllowedOrigins []string
}

// New builds the echo instance with the shared middleware chain and all routes.
func New(d *Deps, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Common()...)
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(metrics.Middleware())
	e.Use(middleware.CORS(d.AllowedOrigins))

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "Hello World!") })
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.DB != nil {
			if err := db.Ping(c.Request().Context(), d.DB); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", metrics.Handler())

	limit := middleware.RateLimit(d.Limiter, "generate")

	user := e.Group("/api/user")
	user.GET("/checker", d.UserHandler.Checker)
	user.POST("/register", d.UserHandler.Register)
	user.POST("/login", d.UserHandler.Login)

	private := user.Group("", d.Auth.RequireAuth)
	private.GET("/logout", d.UserHandler.Logout)
	private.GET("/getMyCommand", d.UserHandler.MyCommands)
	private.GET("/getFullProfile", d.UserHandler.Profile)
	private.GET("/searchCommands", d.UserHandler.SearchCommands)

	command := e.Group("/api/command")
	command.POST("/forGuest", d.CommandHandler.ForGuest, limit)
	command.POST("/authenticUserCommand", d.CommandHandler.ForUser, d.Auth.RequireAuth, limit)
	command.DELETE("/delete/:id", d.CommandHandler.Delete, d.Auth.RequireAuth)
}
