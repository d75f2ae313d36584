package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionId string    `gorm:"type:text;not null;index"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"`
	Sender    string    `gorm:"type:varchar(20);not null"`
	Message   string    `gorm:"type:text;not null"`
	Timestamp time.Time `gorm:"not null;index"`

	Session *ChatSession `gorm:"foreignKey:SessionId;references:Id;constraint:OnDelete:CASCADE"`
}

func (ChatMessage) TableName() string {
	return "messages"
}
