package entity

import (
	"fmt"
	"strings"
)

// Role is the author of a chat turn.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "ai"
)

// legacyRoles maps every sender value ever persisted to its canonical role.
var legacyRoles = map[string]Role{
	"human":     RoleHuman,
	"user":      RoleHuman,
	"ai":        RoleAssistant,
	"assistant": RoleAssistant,
	"model":     RoleAssistant,
}

func ParseRole(s string) (Role, error) {
	if r, ok := legacyRoles[strings.ToLower(strings.TrimSpace(s))]; ok {
		return r, nil
	}
	return "", fmt.Errorf("unknown sender role %q", s)
}

func (r Role) IsHuman() bool {
	return r == RoleHuman
}

// DisplayRole is the role name chat UIs and LLM APIs expect.
func (r Role) DisplayRole() string {
	if r == RoleHuman {
		return "user"
	}
	return "assistant"
}
