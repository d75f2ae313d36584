package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id        string    `gorm:"type:text;primaryKey"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	Topic     string    `gorm:"type:text;not null"`
	StartedAt time.Time `gorm:"not null;index"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
