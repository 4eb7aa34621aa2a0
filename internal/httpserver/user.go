package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/command_pilot/internal/middleware"
	"github.com/Skotchmaster/command_pilot/internal/models"
	"github.com/Skotchmaster/command_pilot/internal/service"
	"github.com/Skotchmaster/command_pilot/internal/transport"
	jwthelp "github.com/Skotchmaster/command_pilot/pkg/jwt"
	"github.com/Skotchmaster/command_pilot/pkg/logging"
)

type UserHTTP struct {
	Svc          *service.AuthService
	Commands     *service.CommandService
	CookieSecure bool
}

func currentUser(c echo.Context) *models.User {
	u, _ := middleware.UserFrom(c)
	return u
}

func (h *UserHTTP) Checker(c echo.Context) error {
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Api work "})
}

func (h *UserHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, transport.MessageResponse{Message: "invalid body"})
	}

	res, err := h.Svc.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		code, msg := statusAndMessage(err, "Internal Server error")
		if code >= http.StatusInternalServerError {
			return c.JSON(code, transport.ErrorResponse{Error: msg})
		}
		return c.JSON(code, transport.MessageResponse{Message: msg})
	}

	c.SetCookie(jwthelp.CreateCookie(jwthelp.SessionCookie, res.Token, "/", res.ExpiresAt, h.CookieSecure))
	return c.JSON(http.StatusOK, transport.SessionResponse{
		Message: "User Register Successfully",
		User:    transport.RegisteredUser{ID: res.User.ID, UserName: res.User.Username},
		Token:   res.Token,
	})
}

func (h *UserHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, transport.MessageResponse{Message: "invalid body"})
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		code, msg := statusAndMessage(err, "Internal Server error")
		if code >= http.StatusInternalServerError {
			return c.JSON(code, transport.ErrorResponse{Error: msg})
		}
		return c.JSON(code, transport.MessageResponse{Message: msg})
	}

	c.SetCookie(jwthelp.CreateCookie(jwthelp.SessionCookie, res.Token, "/", res.ExpiresAt, h.CookieSecure))
	return c.JSON(http.StatusOK, transport.SessionResponse{
		Message: "User logged in successfully",
		User:    transport.LoggedInUser{ID: res.User.ID, Username: res.User.Username, Email: res.User.Email},
		Token:   res.Token,
	})
}

func (h *UserHTTP) Logout(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "user_logout")

	c.SetCookie(jwthelp.DeleteCookie(jwthelp.SessionCookie, "/", h.CookieSecure))
	l.Info("logout_success")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "User logged out successfully"})
}

func (h *UserHTTP) MyCommands(c echo.Context) error {
	ctx := c.Request().Context()
	user := currentUser(c)

	cmds, err := h.Svc.History(ctx, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, transport.MessageResponse{Message: "Unable to fetch commands"})
	}
	return c.JSON(http.StatusOK, transport.CommandsResponse{UserCommands: cmds})
}

func (h *UserHTTP) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	user := currentUser(c)

	p, err := h.Svc.Profile(ctx, user.ID)
	if err != nil {
		code, _ := statusAndMessage(err, "")
		if code == http.StatusNotFound {
			return c.JSON(code, transport.MessageResponse{Message: "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, transport.MessageResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, transport.ProfileResponse{
		Message: "User profile fetched successfully",
		Profile: transport.Profile{
			ID:            p.User.ID,
			Username:      p.User.Username,
			Email:         p.User.Email,
			CreatedAt:     p.User.CreatedAt,
			UpdatedAt:     p.User.UpdatedAt,
			TotalCommands: p.TotalCommands,
			Commands:      p.Commands,
		},
	})
}

func (h *UserHTTP) SearchCommands(c echo.Context) error {
	ctx := c.Request().Context()
	user := currentUser(c)
	q := c.QueryParam("q")

	cmds, err := h.Commands.Search(ctx, user.ID, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, transport.MessageResponse{Message: "Unable to search commands"})
	}
	return c.JSON(http.StatusOK, transport.SearchResponse{Query: q, Results: cmds})
}
