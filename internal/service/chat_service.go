package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"financebot-be/internal/constant"
	"financebot-be/internal/dto"
	"financebot-be/internal/entity"
	"financebot-be/internal/pkg/apperror"
	"financebot-be/internal/pkg/logger"
	"financebot-be/internal/pkg/metrics"
	"financebot-be/internal/repository/specification"
	"financebot-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IChatService interface {
	// RecordTurn stores one chat turn. callerUserID is the identity resolved
	// from the request's bearer token, used when the body carries none.
	RecordTurn(ctx context.Context, req *dto.RecordTurnRequest, callerUserID string) (*dto.RecordTurnResult, error)
	ListSessions(ctx context.Context, userID string) ([]*dto.ChatSessionResponse, error)
	ListMessages(ctx context.Context, sessionID string) ([]*dto.ChatMessageResponse, error)
}

type chatService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  message.Publisher
	topicName  string
	logger     logger.ILogger
}

func NewChatService(uowFactory unitofwork.RepositoryFactory, publisher message.Publisher, topicName string, log logger.ILogger) IChatService {
	return &chatService{
		uowFactory: uowFactory,
		publisher:  publisher,
		topicName:  topicName,
		logger:     log,
	}
}

func (s *chatService) RecordTurn(ctx context.Context, req *dto.RecordTurnRequest, callerUserID string) (*dto.RecordTurnResult, error) {
	if req.SessionId == "" || req.Message == "" {
		return nil, apperror.Validation(constant.MsgTurnBadRequest)
	}
	sender, err := entity.ParseRole(req.Sender)
	if err != nil {
		return nil, apperror.Validation(constant.MsgTurnBadRequest)
	}

	rawUserID := callerUserID
	if req.UserData != nil {
		rawUserID = req.UserData.Id
	}
	if rawUserID == "" {
		metrics.TurnRecorded(metrics.OutcomeSkipped)
		return &dto.RecordTurnResult{}, nil
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return nil, apperror.Validation(constant.MsgTurnBadRequest)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.BySessionID{SessionID: req.SessionId})
	if err != nil {
		return nil, apperror.Upstream(err)
	}

	now := time.Now()

	if session == nil {
		if !strings.Contains(req.Message, "?") || !sender.IsHuman() {
			metrics.TurnRecorded(metrics.OutcomeSkipped)
			return &dto.RecordTurnResult{}, nil
		}

		created, err := uow.ChatSessionRepository().CreateIfAbsent(ctx, &entity.ChatSession{
			Id:        req.SessionId,
			UserId:    userID,
			Topic:     req.Message,
			StartedAt: now,
		})
		if err != nil {
			return nil, apperror.Upstream(err)
		}
		if created {
			metrics.TurnRecorded(metrics.OutcomeSessionCreated)
			s.publishTurn(dto.TurnRecordedEvent{
				SessionId:      req.SessionId,
				UserId:         userID,
				Sender:         string(sender),
				Message:        req.Message,
				SessionCreated: true,
				Timestamp:      now,
			})
			return &dto.RecordTurnResult{SessionCreated: true}, nil
		}
		// Another request created the session first; store this turn in it.
	}

	msg := &entity.ChatMessage{
		Id:        uuid.New(),
		SessionId: req.SessionId,
		UserId:    userID,
		Sender:    sender,
		Message:   req.Message,
		Timestamp: now,
	}
	if err := uow.ChatMessageRepository().Create(ctx, msg); err != nil {
		return nil, apperror.Upstream(err)
	}

	metrics.TurnRecorded(metrics.OutcomeMessageStored)
	s.publishTurn(dto.TurnRecordedEvent{
		SessionId: msg.SessionId,
		UserId:    msg.UserId,
		MessageId: &msg.Id,
		Sender:    string(msg.Sender),
		Message:   msg.Message,
		Timestamp: msg.Timestamp,
	})
	return &dto.RecordTurnResult{MessageStored: true}, nil
}

func (s *chatService) ListSessions(ctx context.Context, userID string) ([]*dto.ChatSessionResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.ValidationWithStatus(constant.MsgSessionsBadRequest, http.StatusUnauthorized)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: uid},
		specification.NewestSessionsFirst(),
	)
	if err != nil {
		return nil, apperror.Upstream(err)
	}

	res := make([]*dto.ChatSessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		res = append(res, &dto.ChatSessionResponse{
			Id:        sess.Id,
			UserId:    sess.UserId,
			Topic:     sess.Topic,
			StartedAt: sess.StartedAt,
		})
	}
	return res, nil
}

func (s *chatService) ListMessages(ctx context.Context, sessionID string) ([]*dto.ChatMessageResponse, error) {
	if sessionID == "" {
		return nil, apperror.ValidationWithStatus(constant.MsgSessionsBadRequest, http.StatusUnauthorized)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.InSession{SessionID: sessionID},
		specification.NewestMessagesFirst(),
	)
	if err != nil {
		return nil, apperror.Upstream(err)
	}

	res := make([]*dto.ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, &dto.ChatMessageResponse{
			Id:        m.Id,
			SessionId: m.SessionId,
			UserId:    m.UserId,
			Sender:    string(m.Sender),
			Message:   m.Message,
			Timestamp: m.Timestamp,
		})
	}
	return res, nil
}

// publishTurn is fire-and-forget; the turn is already stored.
func (s *chatService) publishTurn(evt dto.TurnRecordedEvent) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("ChatService", "Failed to marshal turn event", map[string]interface{}{"error": err.Error()})
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.publisher.Publish(s.topicName, msg); err != nil {
		s.logger.Warn("ChatService", "Failed to publish turn event", map[string]interface{}{"session_id": evt.SessionId, "error": err.Error()})
	}
}
