package specification

import (
	"gorm.io/gorm"
)

// BySessionID matches a chat session by its client-chosen id.
type BySessionID struct {
	SessionID string
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.SessionID)
}

// InSession matches messages belonging to a chat session.
type InSession struct {
	SessionID string
}

func (s InSession) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

// NewestSessionsFirst orders sessions by start time, latest first.
func NewestSessionsFirst() Specification {
	return OrderBy{Field: "started_at", Desc: true}
}

// NewestMessagesFirst orders messages by timestamp, latest first.
func NewestMessagesFirst() Specification {
	return OrderBy{Field: "timestamp", Desc: true}
}
