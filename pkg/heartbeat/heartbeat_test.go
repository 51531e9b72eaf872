package heartbeat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benhli40/Orion/pkg/config"
)

func noopHandler(context.Context, string) {}

func TestNewRejectsInvalidSchedule(t *testing.T) {
	_, err := New(config.HeartbeatConfig{Schedule: "not a cron"}, noopHandler)
	assert.Error(t, err)
}

func TestDueMatchesSchedule(t *testing.T) {
	r, err := New(config.HeartbeatConfig{Schedule: "30 9 * * *"}, noopHandler)
	require.NoError(t, err)

	at := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	assert.True(t, r.due(at))
	assert.False(t, r.due(at.Add(time.Minute)))
}

func TestEveryMinuteScheduleAlwaysDue(t *testing.T) {
	r, err := New(config.HeartbeatConfig{Schedule: "* * * * *"}, noopHandler)
	require.NoError(t, err)

	assert.True(t, r.due(time.Now()))
}
