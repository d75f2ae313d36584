package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseEvent(t *testing.T) {
	e := New("USER_REGISTERED", map[string]interface{}{"email": "ana@example.com", "count": 3})

	assert.Equal(t, "USER_REGISTERED", e.EventType())
	assert.False(t, e.Timestamp().IsZero())
	assert.Equal(t, "ana@example.com", StringField(e, "email"))
	assert.Equal(t, "", StringField(e, "count"), "non-string values read as empty")
	assert.Equal(t, "", StringField(e, "missing"))
}
