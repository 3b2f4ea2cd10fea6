package kafka

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

func TestNewEvent(t *testing.T) {
	e, err := NewEvent("user.registered", "u-1", "user", "auth-user-service", userPayload{
		UserID:   "u-1",
		Username: "alice",
	})
	require.NoError(t, err)

	_, parseErr := uuid.Parse(e.EventID)
	assert.NoError(t, parseErr)
	assert.Equal(t, "user.registered", e.EventType)
	assert.Equal(t, "u-1", e.AggregateID)
	assert.Equal(t, "user", e.AggregateType)
	assert.Equal(t, "auth-user-service", e.Source)
	assert.Equal(t, 1, e.Version)
	assert.WithinDuration(t, time.Now().UTC(), e.Timestamp, time.Minute)
	assert.Empty(t, e.CorrelationID)
}

func TestNewEvent_UnserializablePayload(t *testing.T) {
	_, err := NewEvent("user.registered", "u-1", "user", "auth-user-service", make(chan int))
	assert.Error(t, err)
}

func TestWithCorrelationID(t *testing.T) {
	e, err := NewEvent("user.updated", "u-1", "user", "auth-user-service", nil)
	require.NoError(t, err)

	same := e.WithCorrelationID("corr-123")
	assert.Same(t, e, same)
	assert.Equal(t, "corr-123", e.CorrelationID)
}

func TestUnmarshalData(t *testing.T) {
	e, err := NewEvent("user.registered", "u-1", "user", "auth-user-service", userPayload{
		UserID:   "u-1",
		Username: "alice",
	})
	require.NoError(t, err)

	raw, err := e.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"event_type":"user.registered"`)

	var payload userPayload
	require.NoError(t, e.UnmarshalData(&payload))
	assert.Equal(t, "alice", payload.Username)
}
