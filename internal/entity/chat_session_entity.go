package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession is a conversation thread. Its id is chosen by the client and
// stays stable for the lifetime of a browser tab.
type ChatSession struct {
	Id        string
	UserId    uuid.UUID
	Topic     string
	StartedAt time.Time
}
