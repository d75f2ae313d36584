package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"financebot-be/internal/constant"
	"financebot-be/internal/dto"
	"financebot-be/internal/entity"
	"financebot-be/internal/pkg/logger"
	"financebot-be/internal/pkg/testdb"
	"financebot-be/internal/repository/contract"
	"financebot-be/internal/repository/implementation"
	"financebot-be/internal/repository/specification"
	"financebot-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type chatFixture struct {
	db     *gorm.DB
	svc    IChatService
	events <-chan *message.Message
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	db := testdb.New(t)
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	events, err := pubSub.Subscribe(ctx, constant.TopicTurnRecorded)
	require.NoError(t, err)

	return &chatFixture{
		db:     db,
		svc:    NewChatService(unitofwork.NewRepositoryFactory(db), pubSub, constant.TopicTurnRecorded, logger.NewNopLogger()),
		events: events,
	}
}

func (f *chatFixture) nextEvent(t *testing.T) dto.TurnRecordedEvent {
	t.Helper()
	select {
	case msg := <-f.events:
		msg.Ack()
		var evt dto.TurnRecordedEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &evt))
		return evt
	case <-time.After(time.Second):
		t.Fatal("no turn event published")
		return dto.TurnRecordedEvent{}
	}
}

func (f *chatFixture) counts(t *testing.T) (sessions, messages int64) {
	t.Helper()
	ctx := context.Background()
	sessions, err := implementation.NewChatSessionRepository(f.db).Count(ctx)
	require.NoError(t, err)
	messages, err = implementation.NewChatMessageRepository(f.db).Count(ctx)
	require.NoError(t, err)
	return sessions, messages
}

func TestRecordTurn_FirstQuestionCreatesSessionOnly(t *testing.T) {
	f := newChatFixture(t)
	userID := uuid.New()

	res, err := f.svc.RecordTurn(context.Background(), &dto.RecordTurnRequest{
		SessionId: "tab-1",
		Message:   "¿Cómo ahorro?",
		Sender:    "user",
		UserData:  &dto.UserData{Id: userID.String()},
	}, "")
	require.NoError(t, err)
	assert.True(t, res.SessionCreated)
	assert.False(t, res.MessageStored)

	sessions, messages := f.counts(t)
	assert.Equal(t, int64(1), sessions)
	assert.Equal(t, int64(0), messages, "the opening question becomes the topic, not a message")

	evt := f.nextEvent(t)
	assert.True(t, evt.SessionCreated)
	assert.Equal(t, userID, evt.UserId)
	assert.Nil(t, evt.MessageId)

	list, err := f.svc.ListSessions(context.Background(), userID.String())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "¿Cómo ahorro?", list[0].Topic)
}

func TestRecordTurn_Skipped(t *testing.T) {
	userID := uuid.New().String()

	tests := []struct {
		name   string
		req    dto.RecordTurnRequest
		caller string
	}{
		{"first message without question mark", dto.RecordTurnRequest{SessionId: "s", Message: "hola", Sender: "human"}, userID},
		{"first message from assistant", dto.RecordTurnRequest{SessionId: "s", Message: "¿algo más?", Sender: "ai"}, userID},
		{"no resolvable user", dto.RecordTurnRequest{SessionId: "s", Message: "¿Cómo ahorro?", Sender: "human"}, ""},
		{"empty userData wins over caller", dto.RecordTurnRequest{SessionId: "s", Message: "¿Cómo ahorro?", Sender: "human", UserData: &dto.UserData{}}, userID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture(t)
			res, err := f.svc.RecordTurn(context.Background(), &tt.req, tt.caller)
			require.NoError(t, err)
			assert.False(t, res.Recorded())

			sessions, messages := f.counts(t)
			assert.Zero(t, sessions)
			assert.Zero(t, messages)
		})
	}
}

// staleSessionFactory hands out units of work whose session lookup never sees
// an existing row, as when another request inserts it after the lookup.
type staleSessionFactory struct{ unitofwork.RepositoryFactory }

func (f staleSessionFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return staleSessionUnitOfWork{f.RepositoryFactory.NewUnitOfWork(ctx)}
}

type staleSessionUnitOfWork struct{ unitofwork.UnitOfWork }

func (u staleSessionUnitOfWork) ChatSessionRepository() contract.ChatSessionRepository {
	return staleSessionRepository{u.UnitOfWork.ChatSessionRepository()}
}

type staleSessionRepository struct{ contract.ChatSessionRepository }

func (staleSessionRepository) FindOne(context.Context, ...specification.Specification) (*entity.ChatSession, error) {
	return nil, nil
}

func TestRecordTurn_LostSessionRaceStoresMessage(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	userID := uuid.New().String()

	_, err := f.svc.RecordTurn(ctx, &dto.RecordTurnRequest{SessionId: "tab-1", Message: "¿Cómo ahorro?", Sender: "human"}, userID)
	require.NoError(t, err)
	f.nextEvent(t)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })
	late := NewChatService(staleSessionFactory{unitofwork.NewRepositoryFactory(f.db)}, pubSub, constant.TopicTurnRecorded, logger.NewNopLogger())

	res, err := late.RecordTurn(ctx, &dto.RecordTurnRequest{SessionId: "tab-1", Message: "¿Y cuánto invierto?", Sender: "human"}, userID)
	require.NoError(t, err)
	assert.False(t, res.SessionCreated)
	assert.True(t, res.MessageStored)

	sessions, messages := f.counts(t)
	assert.Equal(t, int64(1), sessions)
	assert.Equal(t, int64(1), messages)

	list, err := f.svc.ListSessions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "¿Cómo ahorro?", list[0].Topic, "the first insert keeps the topic")

	msgs, err := f.svc.ListMessages(ctx, "tab-1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "¿Y cuánto invierto?", msgs[0].Message)
}

func TestRecordTurn_ConcurrentFirstQuestions(t *testing.T) {
	f := newChatFixture(t)
	userID := uuid.New().String()
	const callers = 8

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		stored  int
		errs    []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.RecordTurn(context.Background(), &dto.RecordTurnRequest{
				SessionId: "tab-race",
				Message:   "¿Cómo armo un presupuesto?",
				Sender:    "human",
			}, userID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if res.SessionCreated {
				created++
			}
			if res.MessageStored {
				stored++
			}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Equal(t, 1, created)
	assert.Equal(t, callers-1, stored)

	sessions, messages := f.counts(t)
	assert.Equal(t, int64(1), sessions)
	assert.Equal(t, int64(callers-1), messages)
}

func TestRecordTurn_AppendsToExistingSession(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	userID := uuid.New().String()

	_, err := f.svc.RecordTurn(ctx, &dto.RecordTurnRequest{SessionId: "tab-1", Message: "¿Cómo ahorro?", Sender: "human"}, userID)
	require.NoError(t, err)
	f.nextEvent(t)

	res, err := f.svc.RecordTurn(ctx, &dto.RecordTurnRequest{SessionId: "tab-1", Message: "Ahorra el 20%.", Sender: "assistant"}, userID)
	require.NoError(t, err)
	assert.True(t, res.MessageStored)

	evt := f.nextEvent(t)
	require.NotNil(t, evt.MessageId)
	assert.Equal(t, string(entity.RoleAssistant), evt.Sender)

	time.Sleep(5 * time.Millisecond)
	_, err = f.svc.RecordTurn(ctx, &dto.RecordTurnRequest{SessionId: "tab-1", Message: "gracias", Sender: "user"}, userID)
	require.NoError(t, err)

	msgs, err := f.svc.ListMessages(ctx, "tab-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "gracias", msgs[0].Message, "newest first")
	assert.Equal(t, "human", msgs[0].Sender)
	assert.Equal(t, "ai", msgs[1].Sender)
}

func TestRecordTurn_BadRequest(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	for _, req := range []dto.RecordTurnRequest{
		{Message: "hola", Sender: "human"},
		{SessionId: "s", Sender: "human"},
		{SessionId: "s", Message: "hola", Sender: "system"},
		{SessionId: "s", Message: "hola", Sender: "human", UserData: &dto.UserData{Id: "not-a-uuid"}},
	} {
		_, err := f.svc.RecordTurn(ctx, &req, "")
		ae := appErr(t, err)
		assert.Equal(t, http.StatusBadRequest, ae.StatusCode)
		assert.Equal(t, constant.MsgTurnBadRequest, ae.Message)
	}
}

func TestListSessions(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	userID := uuid.New().String()

	for _, id := range []string{"older", "newer"} {
		_, err := f.svc.RecordTurn(ctx, &dto.RecordTurnRequest{SessionId: id, Message: id + "?", Sender: "human"}, userID)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}
	_, err := f.svc.RecordTurn(ctx, &dto.RecordTurnRequest{SessionId: "foreign", Message: "x?", Sender: "human"}, uuid.New().String())
	require.NoError(t, err)

	list, err := f.svc.ListSessions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Id)
	assert.Equal(t, "older", list[1].Id)

	empty, err := f.svc.ListSessions(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = f.svc.ListSessions(ctx, "")
	ae := appErr(t, err)
	assert.Equal(t, http.StatusUnauthorized, ae.StatusCode)
	assert.Equal(t, constant.MsgSessionsBadRequest, ae.Message)
}

func TestListMessages_MissingSession(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.ListMessages(context.Background(), "")
	ae := appErr(t, err)
	assert.Equal(t, http.StatusUnauthorized, ae.StatusCode)

	msgs, err := f.svc.ListMessages(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
