package mockdata

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/kennel/pkg/types"
)

// IDGenerator picks the id for a record about to be appended to existing.
type IDGenerator interface {
	NextID(now time.Time, existing []types.Record) types.ID
}

// TimestampIDs derives ids from the Unix millisecond timestamp. When that
// value is already taken it moves one past the largest integer id in the
// collection, so rapid creates never share an id.
type TimestampIDs struct {
	log *zap.Logger
}

// NewTimestampIDs returns the default generator. A nil logger discards
// collision reports.
func NewTimestampIDs(log *zap.Logger) *TimestampIDs {
	if log == nil {
		log = zap.NewNop()
	}
	return &TimestampIDs{log: log}
}

func (g *TimestampIDs) NextID(now time.Time, existing []types.Record) types.ID {
	candidate := types.NumberID(now.UnixMilli())
	taken := false
	var highest int64
	for _, r := range existing {
		id, ok := r.ID()
		if !ok {
			continue
		}
		if id.Equal(candidate) {
			taken = true
		}
		if n, ok := id.Int64(); ok && n > highest {
			highest = n
		}
	}
	if !taken {
		return candidate
	}
	next := types.NumberID(highest + 1)
	g.log.Debug("timestamp id collision",
		zap.Stringer("timestamp", candidate),
		zap.Stringer("assigned", next))
	return next
}

// UUIDs generates opaque string ids: UUID v7, or v4 if v7 fails.
type UUIDs struct{}

func (UUIDs) NextID(time.Time, []types.Record) types.ID {
	u, err := uuid.NewV7()
	if err != nil {
		u = uuid.New()
	}
	return types.StringID(u.String())
}

// Id strategies selectable by name.
const (
	IDStrategyTimestamp = "timestamp"
	IDStrategyUUID      = "uuid"
)

// ErrUnknownIDStrategy is returned by NewIDGenerator for unsupported names.
var ErrUnknownIDStrategy = errors.New("unknown id strategy")

// NewIDGenerator returns the generator named by strategy. An empty name
// selects timestamp ids.
func NewIDGenerator(strategy string, log *zap.Logger) (IDGenerator, error) {
	switch strategy {
	case "", IDStrategyTimestamp:
		return NewTimestampIDs(log), nil
	case IDStrategyUUID:
		return UUIDs{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIDStrategy, strategy)
	}
}
