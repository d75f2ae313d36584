package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id        uuid.UUID
	SessionId string
	UserId    uuid.UUID
	Sender    Role
	Message   string
	Timestamp time.Time
}
