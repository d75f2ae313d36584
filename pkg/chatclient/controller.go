// Package chatclient drives a FinanceBot conversation from the client side:
// the message list, the pending state while the advisor answers, the
// per-tab session id and the locally cached copy of all of it.
package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	KeyMessages    = "chat-messages"
	KeySessionID   = "chat-session-id"
	KeyUser        = "user"
	KeyAccessToken = "access-token"

	EntryPage = "/"
	ChatPage  = "/chat"

	RoleUser      = "user"
	RoleAssistant = "assistant"

	senderHuman = "human"
	senderAI    = "ai"

	FallbackReply      = "Lo siento, hubo un error al procesar tu mensaje. Por favor, intenta de nuevo."
	LoginFailedMessage = "El usuario no existe o las credenciales son invalidas"

	persistTimeout = 15 * time.Second
)

var (
	ErrNotSignedIn  = errors.New("not signed in")
	ErrInvalidLogin = errors.New(LoginFailedMessage)
)

type State string

const (
	StateIdle    State = "idle"
	StateSending State = "sending"
)

type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is the public profile cached after login.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	ID    string `json:"id"`
}

// SuggestedQuestions are the starter prompts offered on an empty chat.
func SuggestedQuestions() []string {
	return []string{
		"¿Cómo puedo crear un presupuesto mensual?",
		"¿Cuál es la mejor estrategia para ahorrar?",
		"¿Cómo puedo salir de deudas?",
		"¿En qué debería invertir como principiante?",
		"¿Cómo controlar mis gastos personales?",
	}
}

// Logger receives the controller's diagnostics. The backend's zap logger satisfies it.
type Logger interface {
	Warn(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Warn(string, string, map[string]interface{}) {}
func (nopLogger) Error(string, string, map[string]interface{}) {}

type Options struct {
	Backend *Backend
	Advisor Advisor
	// Durable outlives the process; Tab is scoped to one conversation window.
	Durable Store
	Tab     Store
	Logger  Logger
	// OnNavigate is told which page to show after login and logout.
	OnNavigate func(page string)
}

// Controller is safe for concurrent use. Submissions are serialized.
type Controller struct {
	backend  *Backend
	advisor  Advisor
	durable  Store
	tab      Store
	logger   Logger
	navigate func(string)

	submitMu sync.Mutex

	mu          sync.Mutex
	state       State
	input       string
	messages    []Message
	sessionID   string
	user        *User
	lastPersist chan struct{}

	persisting sync.WaitGroup
}

func New(opts Options) *Controller {
	c := &Controller{
		backend:  opts.Backend,
		advisor:  opts.Advisor,
		durable:  opts.Durable,
		tab:      opts.Tab,
		logger:   opts.Logger,
		navigate: opts.OnNavigate,
		state:    StateIdle,
	}
	if c.durable == nil {
		c.durable = NewMemoryStore()
	}
	if c.tab == nil {
		c.tab = NewMemoryStore()
	}
	if c.logger == nil {
		c.logger = nopLogger{}
	}
	if c.navigate == nil {
		c.navigate = func(string) {}
	}
	return c
}

// Mount rehydrates the cached conversation, makes sure the tab has a
// session id and restores the signed-in user. Without one it navigates
// to the entry page and returns ErrNotSignedIn.
func (c *Controller) Mount(ctx context.Context) error {
	messages := c.loadMessages()

	sessionID, ok, err := c.tab.Get(KeySessionID)
	if err != nil {
		c.logger.Warn("ChatClient", "Failed to read session id", map[string]interface{}{"error": err.Error()})
	}
	if !ok || sessionID == "" {
		sessionID = uuid.NewString()
		if err := c.tab.Set(KeySessionID, sessionID); err != nil {
			c.logger.Warn("ChatClient", "Failed to store session id", map[string]interface{}{"error": err.Error()})
		}
	}

	user := c.loadUser()
	if token, ok, _ := c.durable.Get(KeyAccessToken); ok && c.backend != nil {
		c.backend.SetToken(token)
	}

	c.mu.Lock()
	c.messages = messages
	c.sessionID = sessionID
	c.user = user
	c.state = StateIdle
	c.mu.Unlock()

	if user == nil {
		c.navigate(EntryPage)
		return ErrNotSignedIn
	}
	return nil
}

func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = text
}

func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// SubmitInput sends whatever SetInput last stored.
func (c *Controller) SubmitInput(ctx context.Context) *Message {
	return c.Submit(ctx, c.Input())
}

// Submit appends text as a user turn, asks the advisor and appends its
// reply, or the fallback reply when the advisor fails. It returns the
// assistant message, or nil for blank input. Failures never surface as errors.
func (c *Controller) Submit(ctx context.Context, text string) *Message {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.submitMu.Lock()
	defer c.submitMu.Unlock()

	human := Message{ID: uuid.NewString(), Role: RoleUser, Content: text, CreatedAt: time.Now()}

	c.mu.Lock()
	c.messages = append(c.messages, human)
	c.input = ""
	c.state = StateSending
	history := c.snapshotLocked()
	sessionID, userID := c.sessionID, c.userIDLocked()
	c.mu.Unlock()

	c.saveMessages(history)
	c.persist(sessionID, human.Content, senderHuman, userID)

	reply, err := c.advisor.Reply(ctx, history)
	persistReply := true
	if err != nil || strings.TrimSpace(reply) == "" {
		details := map[string]interface{}{"mode": string(c.advisor.Mode())}
		if err != nil {
			details["error"] = err.Error()
		}
		c.logger.Error("ChatClient", "Advisor failed, using fallback reply", details)
		reply = FallbackReply
		persistReply = c.advisor.Mode() == ModeStreaming
	}

	assistant := Message{ID: uuid.NewString(), Role: RoleAssistant, Content: reply, CreatedAt: time.Now()}

	c.mu.Lock()
	c.messages = append(c.messages, assistant)
	c.state = StateIdle
	history = c.snapshotLocked()
	c.mu.Unlock()

	c.saveMessages(history)
	if persistReply {
		c.persist(sessionID, assistant.Content, senderAI, userID)
	}
	return &assistant
}

// SelectSession replaces the conversation with a stored transcript, oldest first.
func (c *Controller) SelectSession(ctx context.Context, sessionID string) error {
	stored, err := c.backend.ListMessages(ctx, sessionID)
	if err != nil {
		return err
	}

	sort.SliceStable(stored, func(i, j int) bool {
		return stored[i].Timestamp.Before(stored[j].Timestamp)
	})

	messages := make([]Message, 0, len(stored))
	for _, m := range stored {
		messages = append(messages, Message{
			ID:        m.ID,
			Role:      displayRole(m.Sender),
			Content:   m.Message,
			CreatedAt: m.Timestamp,
		})
	}

	c.mu.Lock()
	c.messages = messages
	c.mu.Unlock()

	c.saveMessages(messages)
	return nil
}

// Sessions lists the signed-in user's past conversations, newest first.
func (c *Controller) Sessions(ctx context.Context) ([]Session, error) {
	c.mu.Lock()
	userID := c.userIDLocked()
	c.mu.Unlock()

	if userID == "" {
		return nil, ErrNotSignedIn
	}
	return c.backend.ListSessions(ctx, userID)
}

// Login caches the user's profile and token. Any failure is reported as
// ErrInvalidLogin.
func (c *Controller) Login(ctx context.Context, email, password string) (*User, error) {
	res, err := c.backend.Login(ctx, email, password)
	if err != nil {
		c.logger.Warn("ChatClient", "Login failed", map[string]interface{}{"email": email, "error": err.Error()})
		return nil, ErrInvalidLogin
	}

	var profile struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	var session struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(res.User, &profile); err != nil || profile.ID == "" {
		c.logger.Warn("ChatClient", "Login response without user", nil)
		return nil, ErrInvalidLogin
	}
	_ = json.Unmarshal(res.Session, &session)

	if profile.Email == "" {
		profile.Email = email
	}
	name, _, _ := strings.Cut(profile.Email, "@")
	user := &User{Email: profile.Email, Name: name, ID: profile.ID}

	if raw, err := json.Marshal(user); err == nil {
		c.setDurable(KeyUser, string(raw))
	}
	if session.AccessToken != "" {
		c.backend.SetToken(session.AccessToken)
		c.setDurable(KeyAccessToken, session.AccessToken)
	}

	c.mu.Lock()
	c.user = user
	c.mu.Unlock()

	c.navigate(ChatPage)
	return user, nil
}

// Register returns the server's confirmation message.
func (c *Controller) Register(ctx context.Context, email, password, name string) (string, error) {
	res, err := c.backend.Register(ctx, email, password, name)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return "", errors.New(apiErr.Message)
		}
		return "", err
	}
	return res.Message, nil
}

// Logout tries to end the server session, then always forgets the cached
// conversation, session id and profile.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.backend.Logout(ctx); err != nil {
		c.logger.Error("ChatClient", "Error al cerrar sesión", map[string]interface{}{"error": err.Error()})
	}
	c.backend.SetToken("")

	for _, key := range []string{KeyMessages, KeyUser, KeyAccessToken} {
		if err := c.durable.Remove(key); err != nil {
			c.logger.Warn("ChatClient", "Failed to clear cache entry", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	if err := c.tab.Remove(KeySessionID); err != nil {
		c.logger.Warn("ChatClient", "Failed to clear session id", map[string]interface{}{"error": err.Error()})
	}

	c.mu.Lock()
	c.messages = nil
	c.sessionID = ""
	c.user = nil
	c.input = ""
	c.mu.Unlock()

	c.navigate(EntryPage)
}

// Wait blocks until every queued turn has been sent to the server.
func (c *Controller) Wait() {
	c.persisting.Wait()
}

func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Controller) User() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// persist records a turn in the background. Turns reach the server in the
// order they were queued so a reply never overtakes the question that
// opens its session.
func (c *Controller) persist(sessionID, text, sender, userID string) {
	c.mu.Lock()
	prev := c.lastPersist
	done := make(chan struct{})
	c.lastPersist = done
	c.mu.Unlock()

	c.persisting.Add(1)
	go func() {
		defer c.persisting.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := c.backend.RecordTurn(ctx, sessionID, text, sender, userID); err != nil {
			c.logger.Warn("ChatClient", "Failed to record turn", map[string]interface{}{"session_id": sessionID, "sender": sender, "error": err.Error()})
		}
	}()
}

func (c *Controller) snapshotLocked() []Message {
	return append([]Message(nil), c.messages...)
}

func (c *Controller) userIDLocked() string {
	if c.user == nil {
		return ""
	}
	return c.user.ID
}

func (c *Controller) saveMessages(messages []Message) {
	raw, err := json.Marshal(messages)
	if err != nil {
		return
	}
	c.setDurable(KeyMessages, string(raw))
}

func (c *Controller) setDurable(key, value string) {
	if err := c.durable.Set(key, value); err != nil {
		c.logger.Warn("ChatClient", "Failed to write cache entry", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func (c *Controller) loadMessages() []Message {
	raw, ok, err := c.durable.Get(KeyMessages)
	if err != nil || !ok {
		return nil
	}
	var messages []Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		c.logger.Warn("ChatClient", "Discarding unreadable message cache", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return messages
}

func (c *Controller) loadUser() *User {
	raw, ok, err := c.durable.Get(KeyUser)
	if err != nil || !ok {
		return nil
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.ID == "" {
		return nil
	}
	return &u
}

// displayRole maps stored senders, including legacy ones, to chat roles.
func displayRole(sender string) string {
	switch strings.ToLower(strings.TrimSpace(sender)) {
	case "human", "user":
		return RoleUser
	default:
		return RoleAssistant
	}
}
