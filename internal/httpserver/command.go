package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/command_pilot/internal/service"
	"github.com/Skotchmaster/command_pilot/internal/transport"
	"github.com/Skotchmaster/command_pilot/pkg/logging"
)

type CommandHTTP struct {
	Svc *service.CommandService
}

func (h *CommandHTTP) ForGuest(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "command_guest")

	var req transport.GenerateRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("generate_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: "invalid body"})
	}

	res, err := h.Svc.GenerateGuest(ctx, req.AppName, req.OS)
	if err != nil {
		code, msg := statusAndMessage(err, "Internal server error")
		return c.JSON(code, transport.ErrorResponse{Error: msg})
	}

	return c.JSON(http.StatusOK, transport.GuestCommandResponse{Command: res.Command, AppName: res.AppName, OS: res.OS})
}

func (h *CommandHTTP) ForUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "command_user")
	user := currentUser(c)

	var req transport.GenerateRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("generate_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: "invalid body"})
	}

	res, err := h.Svc.GenerateForUser(ctx, user.ID, req.AppName, req.OS)
	if err != nil {
		code, msg := statusAndMessage(err, "Internal server error")
		return c.JSON(code, transport.ErrorResponse{Error: msg})
	}

	return c.JSON(http.StatusOK, transport.UserCommandResponse{
		Command: res.Command,
		AppName: res.AppName,
		OS:      res.OS,
		Saved:   res.Saved,
	})
}

func (h *CommandHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "command_delete")
	user := currentUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("delete_error", "status", 404, "reason", "malformed id", "id", c.Param("id"))
		return c.JSON(http.StatusNotFound, transport.MessageResponse{Message: "Command not found"})
	}

	if err := h.Svc.Delete(ctx, user.ID, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, transport.MessageResponse{Message: "Command not found"})
		}
		return c.JSON(http.StatusInternalServerError, transport.ErrorResponse{Error: "Internal server error"})
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Command deleted successfully"})
}
