package httpserver

import (
	"errors"
	"net/http"

	"github.com/Skotchmaster/command_pilot/internal/llm"
	"github.com/Skotchmaster/command_pilot/internal/service"
)

// statusAndMessage maps service errors onto a status code and the text shown to the caller.
func statusAndMessage(err error, internal string) (int, string) {
	var ve *service.ValidationError
	var perr *llm.ProviderError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message
	case errors.Is(err, service.ErrInvalidOS):
		return http.StatusBadRequest, service.MsgInvalidOS
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, service.MsgUserExists
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusBadRequest, service.MsgInvalidLogin
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.As(err, &perr):
		return http.StatusInternalServerError, perr.Message
	default:
		return http.StatusInternalServerError, internal
	}
}
