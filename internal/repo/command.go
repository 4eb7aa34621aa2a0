package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/command_pilot/internal/models"
)

func (r *GormRepo) CreateCommand(ctx context.Context, cmd *models.Command) error {
	return r.DB.WithContext(ctx).Create(cmd).Error
}

func (r *GormRepo) CommandsByUser(ctx context.Context, userID uuid.UUID) ([]models.Command, error) {
	items := make([]models.Command, 0)
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetCommand(ctx context.Context, userID, id uuid.UUID) (*models.Command, error) {
	var cmd models.Command
	if err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&cmd).Error; err != nil {
		return nil, err
	}
	return &cmd, nil
}

// DeleteCommand removes a command owned by userID; a foreign or missing id is ErrRecordNotFound.
func (r *GormRepo) DeleteCommand(ctx context.Context, userID, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Command{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) SearchCommands(ctx context.Context, userID uuid.UUID, q string, limit int) ([]models.Command, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(q))) + "%"
	items := make([]models.Command, 0)
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("(LOWER(app_name) LIKE ? ESCAPE '\\' OR LOWER(command) LIKE ? ESCAPE '\\')", pattern, pattern).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// EachCommand walks all commands in primary-key order, batch rows at a time.
func (r *GormRepo) EachCommand(ctx context.Context, batch int, fn func([]models.Command) error) error {
	var items []models.Command
	return r.DB.WithContext(ctx).
		FindInBatches(&items, batch, func(_ *gorm.DB, _ int) error {
			return fn(items)
		}).Error
}
