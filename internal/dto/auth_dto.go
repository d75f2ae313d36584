package dto

import "encoding/json"

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name"`
}

// AuthResponse relays the identity provider's user and session objects as-is.
type AuthResponse struct {
	Message string          `json:"message"`
	User    json.RawMessage `json:"user"`
	Session json.RawMessage `json:"session"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
