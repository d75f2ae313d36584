package tracer

import (
	"context"
	"testing"

	"financebot-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestInitTracer_Disabled(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")

	shutdown := InitTracer(logger.NewNopLogger())
	assert.NoError(t, shutdown(context.Background()))
}
