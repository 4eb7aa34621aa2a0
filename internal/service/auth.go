package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/command_pilot/internal/events"
	"github.com/Skotchmaster/command_pilot/internal/models"
	"github.com/Skotchmaster/command_pilot/internal/repo"
	pkg_hash "github.com/Skotchmaster/command_pilot/pkg/hash"
	"github.com/Skotchmaster/command_pilot/pkg/logging"
	"github.com/Skotchmaster/command_pilot/pkg/tokens"
)

const DefaultSessionTTL = 7 * 24 * time.Hour

type UserRepo interface {
	CreateUserIfEmailFree(ctx context.Context, u *models.User) error
	FindUserForLogin(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type AuthService struct {
	Users    UserRepo
	Commands CommandRepo
	Secret   []byte
	TTL      time.Duration
	Events   events.Publisher
	Now      func() time.Time
}

type SessionResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

type Profile struct {
	User          *models.User
	TotalCommands int
	Commands      []models.Command
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultSessionTTL
}

func (s *AuthService) issue(user *models.User) (*SessionResult, error) {
	issuedAt := s.now()
	token, err := tokens.SignSession(user.ID.String(), s.Secret, issuedAt, s.ttl())
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &SessionResult{User: user, Token: token, ExpiresAt: issuedAt.Add(s.ttl())}, nil
}

func (s *AuthService) publish(ctx context.Context, ev events.UserEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, events.TopicUserEvents, ev.UserID, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", events.TopicUserEvents, "type", ev.Type, "error", err)
	}
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*SessionResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if err := validateRegistration(username, email, password); err != nil {
		l.Warn("register_failed", "status", 400, "reason", err.Error())
		return nil, err
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:     strings.TrimSpace(username),
		Email:        email,
		PasswordHash: pwHash,
	}
	if err := s.Users.CreateUserIfEmailFree(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_failed", "status", 409, "reason", "user already exist")
			return nil, ErrConflict
		}
		l.Error("register_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	res, err := s.issue(user)
	if err != nil {
		l.Error("register_failed", "status", 500, "error", err)
		return nil, err
	}

	s.publish(ctx, events.UserEvent{Type: events.TypeUserRegistered, UserID: user.ID.String(), Email: user.Email, At: s.now().UTC()})
	l.Info("register_success", "user_id", user.ID)
	return res, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*SessionResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if email == "" {
		return nil, invalid(MsgEmailRequired)
	}
	if password == "" {
		return nil, invalid(MsgPasswordRequired)
	}

	user, err := s.Users.FindUserForLogin(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "status", 400, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 400, "reason", "wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	res, err := s.issue(user)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	s.publish(ctx, events.UserEvent{Type: events.TypeUserLoggedIn, UserID: user.ID.String(), Email: user.Email, At: s.now().UTC()})
	l.Info("login_success", "user_id", user.ID)
	return res, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	l := logging.FromContext(ctx).With("svc", "auth.profile", "user_id", userID)

	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("profile_failed", "status", 404)
			return nil, ErrNotFound
		}
		l.Error("profile_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("get user: %w", err)
	}

	cmds, err := s.Commands.CommandsByUser(ctx, userID)
	if err != nil {
		l.Error("profile_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("list commands: %w", err)
	}

	return &Profile{User: user, TotalCommands: len(cmds), Commands: cmds}, nil
}

func (s *AuthService) History(ctx context.Context, userID uuid.UUID) ([]models.Command, error) {
	cmds, err := s.Commands.CommandsByUser(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("history_failed", "svc", "auth.history", "status", 500, "error", err)
		return nil, fmt.Errorf("list commands: %w", err)
	}
	return cmds, nil
}
