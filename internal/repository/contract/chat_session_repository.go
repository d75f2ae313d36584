package contract

import (
	"context"

	"financebot-be/internal/entity"
	"financebot-be/internal/repository/specification"
)

type ChatSessionRepository interface {
	// CreateIfAbsent inserts the session unless its id is already taken.
	// It reports whether this call created the row.
	CreateIfAbsent(ctx context.Context, session *entity.ChatSession) (bool, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
