package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is only stored locally when the built-in identity provider is used.
type User struct {
	Id           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}
