package service

import (
	"context"
	"encoding/json"

	"financebot-be/internal/constant"
	"financebot-be/internal/dto"
	"financebot-be/internal/pkg/logger"
	"financebot-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// TurnNotifier pushes a frame to every open connection of a user.
type TurnNotifier interface {
	Send(ctx context.Context, userID, kind string, data interface{}) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService relays recorded turns from the in-process bus to the
// websocket feed and the durable event stream.
type consumerService struct {
	subscriber     message.Subscriber
	topicName      string
	notifier       TurnNotifier
	eventPublisher events.Publisher
	logger         logger.ILogger
}

// NewConsumerService accepts nil for notifier or eventPublisher when that sink is unavailable.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	notifier TurnNotifier,
	eventPublisher events.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:     subscriber,
		topicName:      topicName,
		notifier:       notifier,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks: both sinks are best-effort and a redelivery
// would only duplicate frames.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var evt dto.TurnRecordedEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal turn event", map[string]interface{}{"error": err.Error(), "message_uuid": msg.UUID})
		return
	}

	if cs.notifier != nil {
		if err := cs.notifier.Send(ctx, evt.UserId.String(), constant.FeedFrameTurn, evt); err != nil {
			cs.logger.Warn("ConsumerService", "Turn feed delivery failed", map[string]interface{}{"session_id": evt.SessionId, "error": err.Error()})
		}
	}

	if cs.eventPublisher != nil {
		data := map[string]interface{}{
			"session_id":      evt.SessionId,
			"user_id":         evt.UserId.String(),
			"sender":          evt.Sender,
			"session_created": evt.SessionCreated,
			"timestamp":       evt.Timestamp,
		}
		if evt.MessageId != nil {
			data["message_id"] = evt.MessageId.String()
		}
		if err := cs.eventPublisher.Publish(ctx, events.New(constant.EventChatTurnRecorded, data)); err != nil {
			cs.logger.Warn("ConsumerService", "Failed to publish turn event to NATS", map[string]interface{}{"session_id": evt.SessionId, "error": err.Error()})
		}
	}
}
