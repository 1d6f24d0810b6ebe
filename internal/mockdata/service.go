package mockdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/kennel/pkg/types"
)

// KeyPrefix namespaces entity collections in storage.
const KeyPrefix = "mock_"

// Operation names used in logs and metrics.
const (
	OpGetAll  = "get_all"
	OpGetByID = "get_by_id"
	OpCreate  = "create"
	OpUpdate  = "update"
	OpRemove  = "remove"
)

// Key returns the storage key of an entity collection.
func Key(entity string) string { return KeyPrefix + entity }

// Service provides CRUD over named entity collections.
type Service struct {
	storage types.Storage
	delay   Delayer
	clock   Clock
	ids     IDGenerator
	log     *zap.Logger
	metrics *Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLatency sets a fixed simulated delay.
func WithLatency(d time.Duration) Option {
	return func(s *Service) { s.delay = Latency(d) }
}

// WithDelayer replaces the delay implementation.
func WithDelayer(d Delayer) Option {
	return func(s *Service) { s.delay = d }
}

// WithClock sets the clock handed to the id generator.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithIDGenerator replaces the default timestamp ids.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Service) { s.ids = g }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New returns a service persisting into storage.
func New(storage types.Storage, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		delay:   Latency(DefaultLatency),
		clock:   SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.delay == nil {
		s.delay = NoDelay
	}
	if s.clock == nil {
		s.clock = SystemClock
	}
	if s.ids == nil {
		s.ids = NewTimestampIDs(s.log)
	}
	return s
}

// Initialize writes seed as the collection when nothing is stored for
// entity yet. It does not delay and never touches existing data. Seed
// records are stored verbatim; no ids are added.
func (s *Service) Initialize(ctx context.Context, entity string, seed []types.Record) error {
	_, err := s.TryInitialize(ctx, entity, seed)
	return err
}

// TryInitialize is Initialize reporting whether seed was written. It is
// false when the collection already existed.
func (s *Service) TryInitialize(ctx context.Context, entity string, seed []types.Record) (bool, error) {
	if entity == "" {
		return false, types.ErrInvalidEntity
	}
	_, ok, err := s.storage.GetItem(ctx, Key(entity))
	if err != nil {
		return false, fmt.Errorf("initialize %s: %w", entity, err)
	}
	if ok {
		s.log.Debug("collection exists, seed skipped", zap.String("entity", entity))
		return false, nil
	}
	if err := s.save(ctx, entity, seed); err != nil {
		return false, fmt.Errorf("initialize %s: %w", entity, err)
	}
	s.log.Debug("seeded collection", zap.String("entity", entity), zap.Int("records", len(seed)))
	return true, nil
}

// Entities lists the names of every stored collection.
func (s *Service) Entities(ctx context.Context) ([]string, error) {
	keys, err := s.storage.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	var names []string
	for _, k := range keys {
		if name, ok := strings.CutPrefix(k, KeyPrefix); ok && name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// GetAll returns the whole collection, empty when nothing is stored.
func (s *Service) GetAll(ctx context.Context, entity string) (types.Result[[]types.Record], error) {
	var res types.Result[[]types.Record]
	err := s.run(ctx, entity, OpGetAll, func(records []types.Record) (bool, error) {
		res = types.Result[[]types.Record]{Success: true, Data: records}
		return true, nil
	})
	return res, err
}

// GetByID returns the record with id.
func (s *Service) GetByID(ctx context.Context, entity string, id types.ID) (types.Result[types.Record], error) {
	var res types.Result[types.Record]
	err := s.run(ctx, entity, OpGetByID, func(records []types.Record) (bool, error) {
		i := indexOf(records, id)
		if i < 0 {
			res = notFound[types.Record](entity, id)
			return false, nil
		}
		res = types.Result[types.Record]{Success: true, Data: records[i]}
		return true, nil
	})
	return res, err
}

// Create appends record under a freshly generated id and returns the
// stored record. Any id the caller supplied is replaced.
func (s *Service) Create(ctx context.Context, entity string, record types.Record) (types.Result[types.Record], error) {
	var res types.Result[types.Record]
	err := s.run(ctx, entity, OpCreate, func(records []types.Record) (bool, error) {
		id := s.ids.NextID(s.clock.Now(), records)
		created, err := types.Normalize(record.WithID(id))
		if err != nil {
			return false, err
		}
		if err := s.save(ctx, entity, append(records, created)); err != nil {
			return false, err
		}
		res = types.Result[types.Record]{Success: true, Data: created}
		return true, nil
	})
	return res, err
}

// Update shallow-merges partial onto the record with id. The id field is
// never overwritten.
func (s *Service) Update(ctx context.Context, entity string, id types.ID, partial types.Record) (types.Result[types.Record], error) {
	var res types.Result[types.Record]
	err := s.run(ctx, entity, OpUpdate, func(records []types.Record) (bool, error) {
		i := indexOf(records, id)
		if i < 0 {
			res = notFound[types.Record](entity, id)
			return false, nil
		}
		current, _ := records[i].ID()
		merged, err := types.Normalize(records[i].Merge(partial, current))
		if err != nil {
			return false, err
		}
		records[i] = merged
		if err := s.save(ctx, entity, records); err != nil {
			return false, err
		}
		res = types.Result[types.Record]{Success: true, Data: merged}
		return true, nil
	})
	return res, err
}

// Remove deletes the record with id. The removed record is returned as
// Data. A missing id leaves the collection untouched.
func (s *Service) Remove(ctx context.Context, entity string, id types.ID) (types.Result[types.Record], error) {
	var res types.Result[types.Record]
	err := s.run(ctx, entity, OpRemove, func(records []types.Record) (bool, error) {
		i := indexOf(records, id)
		if i < 0 {
			res = notFound[types.Record](entity, id)
			return false, nil
		}
		removed := records[i]
		kept := make([]types.Record, 0, len(records)-1)
		kept = append(kept, records[:i]...)
		kept = append(kept, records[i+1:]...)
		if err := s.save(ctx, entity, kept); err != nil {
			return false, err
		}
		res = types.Result[types.Record]{
			Success: true,
			Data:    removed,
			Message: fmt.Sprintf("%s with id %s deleted.", entity, id),
		}
		return true, nil
	})
	return res, err
}

// run snapshots the collection, waits out the delay, then applies fn to the
// snapshot. fn reports whether the record it looked for was found.
func (s *Service) run(ctx context.Context, entity, op string, fn func([]types.Record) (bool, error)) error {
	start := time.Now()
	outcome := OutcomeError
	defer func() { s.metrics.observe(entity, op, outcome, time.Since(start)) }()

	if entity == "" {
		return types.ErrInvalidEntity
	}
	records, err := s.load(ctx, entity)
	if err != nil {
		s.log.Error("load collection", zap.String("entity", entity), zap.String("op", op), zap.Error(err))
		return fmt.Errorf("%s %s: %w", op, entity, err)
	}
	if err := s.delay.Delay(ctx); err != nil {
		return fmt.Errorf("%s %s: %w", op, entity, err)
	}
	found, err := fn(records)
	if err != nil {
		s.log.Error("mock data operation", zap.String("entity", entity), zap.String("op", op), zap.Error(err))
		return fmt.Errorf("%s %s: %w", op, entity, err)
	}
	if found {
		outcome = OutcomeSuccess
	} else {
		outcome = OutcomeNotFound
	}
	s.log.Debug("mock data operation",
		zap.String("entity", entity),
		zap.String("op", op),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *Service) load(ctx context.Context, entity string) ([]types.Record, error) {
	data, ok, err := s.storage.GetItem(ctx, Key(entity))
	if err != nil {
		return nil, err
	}
	if !ok {
		return []types.Record{}, nil
	}
	return types.DecodeRecords(data)
}

func (s *Service) save(ctx context.Context, entity string, records []types.Record) error {
	data, err := types.EncodeRecords(records)
	if err != nil {
		return err
	}
	return s.storage.SetItem(ctx, Key(entity), data)
}

func indexOf(records []types.Record, id types.ID) int {
	for i, r := range records {
		if rid, ok := r.ID(); ok && rid.Equal(id) {
			return i
		}
	}
	return -1
}

func notFound[T any](entity string, id types.ID) types.Result[T] {
	return types.Result[T]{Message: fmt.Sprintf("%s with id %s not found.", entity, id)}
}
