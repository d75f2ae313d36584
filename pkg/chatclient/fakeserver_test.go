package chatclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type recordedTurn struct {
	SessionID string
	Message   string
	Sender    string
	UserID    string
}

// fakeServer mimics the FinanceBot HTTP API closely enough for the client.
type fakeServer struct {
	*httptest.Server

	mu            sync.Mutex
	turns         []recordedTurn
	chunks        []string
	streamFail    bool
	adviceStatus  int
	loginStatus   int
	logoutStatus  int
	logoutCalls   int
	history       []StoredMessage
	lastAuthToken string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{chunks: []string{"Ahorra ", "el 20%."}, adviceStatus: http.StatusOK, loginStatus: http.StatusOK, logoutStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if status := f.get(func() int { return f.loginStatus }); status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":"Invalid login credentials"}`)
			return
		}
		fmt.Fprint(w, `{"message":"Login exitoso","user":{"id":"user-1","email":"ana@example.com"},"session":{"access_token":"tok-1"}}`)
	})
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":"Registro exitoso. Revisa tu email para confirmar tu cuenta.","user":null,"session":null}`)
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.logoutCalls++
		status := f.logoutStatus
		f.mu.Unlock()
		w.WriteHeader(status)
		fmt.Fprint(w, `{"message":"Logged out successfully"}`)
	})
	mux.HandleFunc("/session-turn", func(w http.ResponseWriter, r *http.Request) {
		var req recordTurnRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		turn := recordedTurn{SessionID: req.SessionId, Message: req.Message, Sender: req.Sender}
		if req.UserData != nil {
			turn.UserID = req.UserData.Id
		}
		f.mu.Lock()
		f.turns = append(f.turns, turn)
		f.lastAuthToken = r.Header.Get("Authorization")
		f.mu.Unlock()
		fmt.Fprint(w, `{"message":"Chat session creada"}`)
	})
	mux.HandleFunc("/session-list", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"sessions": []Session{{ID: "s-old", UserID: r.URL.Query().Get("userId"), Topic: "¿Cómo ahorro?", StartedAt: time.Now()}},
			"message":  "Chat sessions fetched successfully",
		})
	})
	mux.HandleFunc("/session-messages", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		history := f.history
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"sessions": history, "message": "Chat messages fetched successfully"})
	})
	mux.HandleFunc("/chat-completion", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		f.mu.Lock()
		chunks, fail := f.chunks, f.streamFail
		f.mu.Unlock()
		for _, c := range chunks {
			data, _ := json.Marshal(map[string]string{"content": c})
			fmt.Fprintf(w, "data: %s\n\n", data)
		}
		if fail {
			fmt.Fprint(w, "event: error\ndata: {\"error\":\"upstream reset\"}\n\n")
			return
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})
	mux.HandleFunc("/advice", func(w http.ResponseWriter, r *http.Request) {
		if status := f.get(func() int { return f.adviceStatus }); status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":"advisor down"}`)
			return
		}
		var req struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]string{"reply": "Consejo para: " + req.Message})
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeServer) recorded() []recordedTurn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedTurn(nil), f.turns...)
}

// configure mutates the server's behaviour under its lock.
func (f *fakeServer) configure(fn func(*fakeServer)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeServer) get(fn func() int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn()
}

func (f *fakeServer) authHeader() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuthToken
}

func (f *fakeServer) logouts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logoutCalls
}
