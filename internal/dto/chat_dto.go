package dto

import (
	"time"

	"github.com/google/uuid"
)

type UserData struct {
	Id string `json:"id"`
}

type RecordTurnRequest struct {
	SessionId string    `json:"sessionId" validate:"required"`
	Message   string    `json:"message" validate:"required"`
	Sender    string    `json:"sender"`
	UserData  *UserData `json:"userData,omitempty"`
}

// RecordTurnResult tells the caller which branch, if any, wrote a row.
type RecordTurnResult struct {
	SessionCreated bool
	MessageStored  bool
}

func (r RecordTurnResult) Recorded() bool {
	return r.SessionCreated || r.MessageStored
}

type ChatSessionResponse struct {
	Id        string    `json:"id"`
	UserId    uuid.UUID `json:"user_id"`
	Topic     string    `json:"topic"`
	StartedAt time.Time `json:"started_at"`
}

type ChatMessageResponse struct {
	Id        uuid.UUID `json:"id"`
	SessionId string    `json:"session_id"`
	UserId    uuid.UUID `json:"user_id"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type ListSessionsResponse struct {
	Sessions []*ChatSessionResponse `json:"sessions"`
	Message  string                 `json:"message"`
}

// ListMessagesResponse keeps the "sessions" field name existing clients read.
type ListMessagesResponse struct {
	Sessions []*ChatMessageResponse `json:"sessions"`
	Message  string                 `json:"message"`
}

// TurnRecordedEvent is published once a chat turn hits the store.
type TurnRecordedEvent struct {
	SessionId      string     `json:"session_id"`
	UserId         uuid.UUID  `json:"user_id"`
	MessageId      *uuid.UUID `json:"message_id,omitempty"`
	Sender         string     `json:"sender"`
	Message        string     `json:"message"`
	SessionCreated bool       `json:"session_created"`
	Timestamp      time.Time  `json:"timestamp"`
}
