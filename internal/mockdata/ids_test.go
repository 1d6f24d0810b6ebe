package mockdata

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/kennel/pkg/types"
)

func TestTimestampIDs(t *testing.T) {
	now := time.UnixMilli(1000)

	tests := []struct {
		name     string
		existing []types.Record
		want     types.ID
	}{
		{"empty collection", nil, types.NumberID(1000)},
		{"unrelated ids", []types.Record{{"id": 5}, {"id": "x"}}, types.NumberID(1000)},
		{"collision", []types.Record{{"id": 1000}}, types.NumberID(1001)},
		{"collision skips past larger ids", []types.Record{{"id": 1000}, {"id": 1001}, {"id": 1005}}, types.NumberID(1006)},
		{"string id of same text is not a collision", []types.Record{{"id": "1000"}}, types.NumberID(1000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewTimestampIDs(nil).NextID(now, tt.existing)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestTimestampIDs_LogsCollision(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	g := NewTimestampIDs(zap.New(core))
	g.NextID(time.UnixMilli(1), []types.Record{{"id": 1}})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "timestamp id collision", entry.Message)
	assert.Equal(t, "2", entry.ContextMap()["assigned"])
}

func TestUUIDs(t *testing.T) {
	id := UUIDs{}.NextID(time.Now(), nil)
	assert.False(t, id.IsNumeric())
	u, err := uuid.Parse(id.String())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), u.Version())
}

func TestNewIDGenerator(t *testing.T) {
	for _, name := range []string{"", IDStrategyTimestamp} {
		g, err := NewIDGenerator(name, nil)
		require.NoError(t, err)
		assert.IsType(t, &TimestampIDs{}, g)
	}

	g, err := NewIDGenerator(IDStrategyUUID, nil)
	require.NoError(t, err)
	assert.IsType(t, UUIDs{}, g)

	_, err = NewIDGenerator("serial", nil)
	assert.ErrorIs(t, err, ErrUnknownIDStrategy)
}
