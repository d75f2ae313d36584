package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// User backs the local identity provider. Profile fields live in Metadata
// the same way hosted providers expose user_metadata.
type User struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string         `gorm:"type:varchar(255);not null"`
	Metadata     datatypes.JSON `gorm:"not null"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}
