package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/command_pilot/pkg/rules"
)

// Supported values of Command.OS.
const (
	OSLinux   = rules.OSLinux
	OSWindows = rules.OSWindows
	OSMacOS   = rules.OSMacOS
	OSMac     = rules.OSMac
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"            json:"_id"`
	Username     string    `gorm:"size:30;not null"                json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"            json:"email"`
	PasswordHash string    `gorm:"column:password;not null"        json:"-"`
	Commands     []Command `gorm:"constraint:OnDelete:CASCADE;"    json:"savedCommands,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type Command struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                                        json:"_id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"                                    json:"user"`
	Command   string    `gorm:"not null"                                                    json:"command"`
	AppName   string    `gorm:"not null"                                                    json:"appName"`
	OS        string    `gorm:"size:16;not null"                                            json:"os"`
	Distro    string    `json:"distro,omitempty"`
	CreatedAt time.Time `gorm:"index"                                                       json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Command) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// All lists every model the server migrates.
func All() []any {
	return []any{&User{}, &Command{}}
}
