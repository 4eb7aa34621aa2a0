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
	"github.com/Skotchmaster/command_pilot/internal/llm"
	"github.com/Skotchmaster/command_pilot/internal/metrics"
	"github.com/Skotchmaster/command_pilot/internal/models"
	"github.com/Skotchmaster/command_pilot/pkg/logging"
)

const (
	SearchLimit        = 50
	ReindexBatch       = 200
	MsgAppNameRequired = "Application name is required"
	MsgInvalidOS       = "Invalid OS specified. Use 'linux', 'windows', or 'mac'."
)

type CommandRepo interface {
	CreateCommand(ctx context.Context, cmd *models.Command) error
	CommandsByUser(ctx context.Context, userID uuid.UUID) ([]models.Command, error)
	DeleteCommand(ctx context.Context, userID, id uuid.UUID) error
	SearchCommands(ctx context.Context, userID uuid.UUID, q string, limit int) ([]models.Command, error)
	EachCommand(ctx context.Context, batch int, fn func([]models.Command) error) error
}

// Indexer mirrors saved commands into a search backend.
type Indexer interface {
	Index(ctx context.Context, cmd models.Command) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, userID uuid.UUID, q string, limit int) ([]models.Command, error)
}

type CommandService struct {
	Repo   CommandRepo
	LLM    llm.Completer
	Events events.Publisher
	Index  Indexer
	Now    func() time.Time
}

type Generated struct {
	ID      uuid.UUID
	Command string
	AppName string
	OS      string
	Saved   bool
}

func (s *CommandService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *CommandService) complete(ctx context.Context, appName, os string) (string, error) {
	raw, err := s.LLM.Complete(ctx, llm.BuildPrompt(appName, os))
	if err != nil {
		var perr *llm.ProviderError
		if errors.As(err, &perr) {
			return "", perr
		}
		return "", &llm.ProviderError{Message: llm.GenericFailure, Err: err}
	}
	return llm.CleanCommand(raw), nil
}

// GenerateGuest passes os through to the prompt as free text and never persists.
func (s *CommandService) GenerateGuest(ctx context.Context, appName, os string) (*Generated, error) {
	l := logging.FromContext(ctx).With("svc", "command.guest")

	if strings.TrimSpace(appName) == "" {
		return nil, invalid(MsgAppNameRequired)
	}
	if os == "" {
		os = models.OSLinux
	}

	cmd, err := s.complete(ctx, appName, os)
	if err != nil {
		l.Error("generate_failed", "status", 500, "error", err)
		return nil, err
	}

	metrics.CommandsGenerated.WithLabelValues("guest").Inc()
	return &Generated{Command: cmd, AppName: appName, OS: os}, nil
}

// GenerateForUser validates os before calling the provider and saves exactly one command.
func (s *CommandService) GenerateForUser(ctx context.Context, userID uuid.UUID, appName, os string) (*Generated, error) {
	l := logging.FromContext(ctx).With("svc", "command.user", "user_id", userID)

	if strings.TrimSpace(appName) == "" {
		return nil, invalid(MsgAppNameRequired)
	}
	if os == "" {
		os = models.OSLinux
	}
	target, err := ValidateOS(os)
	if err != nil {
		l.Warn("generate_failed", "status", 400, "reason", "invalid os", "os", os)
		return nil, err
	}

	text, err := s.complete(ctx, appName, os)
	if err != nil {
		l.Error("generate_failed", "status", 500, "error", err)
		return nil, err
	}

	cmd := &models.Command{
		UserID:  userID,
		Command: text,
		AppName: appName,
		OS:      target,
	}
	if err := s.Repo.CreateCommand(ctx, cmd); err != nil {
		l.Error("generate_failed", "status", 500, "reason", "cannot save command", "error", err)
		return nil, fmt.Errorf("save command: %w", err)
	}
	metrics.CommandsGenerated.WithLabelValues("user").Inc()

	s.publish(ctx, events.CommandEvent{
		Type:      events.TypeCommandSaved,
		CommandID: cmd.ID.String(),
		UserID:    userID.String(),
		AppName:   appName,
		OS:        target,
		At:        s.now().UTC(),
	})
	if s.Index != nil {
		if err := s.Index.Index(ctx, *cmd); err != nil {
			metrics.SideEffectErrors.WithLabelValues("search").Inc()
			l.Warn("index_failed", "command_id", cmd.ID, "error", err)
		}
	}

	return &Generated{ID: cmd.ID, Command: text, AppName: appName, OS: target, Saved: true}, nil
}

// Delete removes a command owned by userID; other users' commands report ErrNotFound.
func (s *CommandService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "command.delete", "user_id", userID, "command_id", id)

	if err := s.Repo.DeleteCommand(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("delete_failed", "status", 404)
			return ErrNotFound
		}
		l.Error("delete_failed", "status", 500, "error", err)
		return fmt.Errorf("delete command: %w", err)
	}

	s.publish(ctx, events.CommandEvent{
		Type:      events.TypeCommandDeleted,
		CommandID: id.String(),
		UserID:    userID.String(),
		At:        s.now().UTC(),
	})
	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil {
			metrics.SideEffectErrors.WithLabelValues("search").Inc()
			l.Warn("unindex_failed", "error", err)
		}
	}
	return nil
}

// Search matches q against app names and command text of the caller's history.
// The search index answers when configured; the database answers otherwise, when
// the index fails, or when the index has no hit (it may be missing rows).
func (s *CommandService) Search(ctx context.Context, userID uuid.UUID, q string) ([]models.Command, error) {
	l := logging.FromContext(ctx).With("svc", "command.search", "user_id", userID)

	q = strings.TrimSpace(q)
	if q == "" {
		return []models.Command{}, nil
	}

	if s.Index != nil {
		cmds, err := s.Index.Search(ctx, userID, q, SearchLimit)
		switch {
		case err != nil:
			metrics.SideEffectErrors.WithLabelValues("search").Inc()
			l.Warn("index_search_failed", "error", err)
		case len(cmds) > 0:
			return cmds, nil
		}
	}

	cmds, err := s.Repo.SearchCommands(ctx, userID, q, SearchLimit)
	if err != nil {
		l.Error("search_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("search commands: %w", err)
	}
	return cmds, nil
}

// Reindex writes every stored command to the search index. Documents are keyed
// by command id, so rows already indexed are overwritten in place.
func (s *CommandService) Reindex(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, nil
	}
	l := logging.FromContext(ctx).With("svc", "command.reindex")

	n, failed := 0, 0
	err := s.Repo.EachCommand(ctx, ReindexBatch, func(batch []models.Command) error {
		for _, cmd := range batch {
			if err := s.Index.Index(ctx, cmd); err != nil {
				failed++
				metrics.SideEffectErrors.WithLabelValues("search").Inc()
				l.Warn("index_failed", "command_id", cmd.ID, "error", err)
				continue
			}
			n++
		}
		return ctx.Err()
	})
	if err != nil {
		return n, fmt.Errorf("reindex commands: %w", err)
	}
	if failed > 0 {
		l.Warn("reindex_incomplete", "indexed", n, "failed", failed)
	}
	return n, nil
}

func (s *CommandService) publish(ctx context.Context, ev events.CommandEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, events.TopicCommandEvents, ev.UserID, ev); err != nil {
		metrics.SideEffectErrors.WithLabelValues("events").Inc()
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", events.TopicCommandEvents, "type", ev.Type, "error", err)
	}
}
