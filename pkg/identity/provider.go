// Package identity defines the contract the auth gateway relies on. The
// provider owns credential storage and verification.
package identity

import (
	"context"
	"encoding/json"
)

type Credentials struct {
	Email    string
	Password string
	Name     string
}

// AuthResult relays the provider's user and session objects untouched.
// Session is JSON null when the provider has not opened one yet
// (e.g. email confirmation pending).
type AuthResult struct {
	User    json.RawMessage
	Session json.RawMessage
	UserID  string
	Email   string
}

// ProviderError is a rejection reported by the provider itself, as opposed
// to a transport failure.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return e.Message
}

type Provider interface {
	SignUp(ctx context.Context, creds Credentials) (*AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)
	SignOut(ctx context.Context, accessToken string) error
	// GetUser resolves an access token to the owning user id.
	GetUser(ctx context.Context, accessToken string) (string, error)
}

var NullJSON = json.RawMessage("null")
