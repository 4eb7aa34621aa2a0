package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/command_pilot/internal/models"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type GenerateRequest struct {
	AppName string `json:"appName"`
	OS      string `json:"os"`
}

type RegisteredUser struct {
	ID       uuid.UUID `json:"id"`
	UserName string    `json:"userName"`
}

type LoggedInUser struct {
	ID       uuid.UUID `json:"_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

type SessionResponse struct {
	Message string `json:"message"`
	User    any    `json:"user"`
	Token   string `json:"token"`
}

type GuestCommandResponse struct {
	Command string `json:"command"`
	AppName string `json:"appName"`
	OS      string `json:"os"`
}

type UserCommandResponse struct {
	Command string `json:"command"`
	AppName string `json:"appName"`
	OS      string `json:"os"`
	Saved   bool   `json:"saved"`
}

type CommandsResponse struct {
	UserCommands []models.Command `json:"userCommands"`
}

type SearchResponse struct {
	Query   string           `json:"query"`
	Results []models.Command `json:"results"`
}

type Profile struct {
	ID            uuid.UUID        `json:"_id"`
	Username      string           `json:"username"`
	Email         string           `json:"email"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	TotalCommands int              `json:"totalCommands"`
	Commands      []models.Command `json:"commands"`
}

type ProfileResponse struct {
	Message string  `json:"message"`
	Profile Profile `json:"profile"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
