// Package maintenance decides whether the site is in maintenance mode.
//
// The maintenance window is stored under maintenanceSettings as local
// date and time strings. Mode is on while isActive is set and the clock is
// inside the window; once the window has passed, isActive is cleared in
// storage.
package maintenance

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/kennel/internal/mockdata"
	"github.com/mesh-intelligence/kennel/internal/stores"
	"github.com/mesh-intelligence/kennel/pkg/types"
)

// DefaultInterval is how often Watch re-checks the window.
const DefaultInterval = time.Minute

// Settings is the stored maintenance document.
type Settings struct {
	StartDate string `json:"startDate"`
	StartTime string `json:"startTime"`
	EndDate   string `json:"endDate"`
	EndTime   string `json:"endTime"`
	Message   string `json:"message"`
	Reason    string `json:"reason"`
	IsActive  bool   `json:"isActive"`
}

// DefaultSettings is used until settings are stored.
var DefaultSettings = Settings{
	Message: "시스템 점검 중입니다. 잠시 후 다시 접속해 주세요.",
	Reason:  "정기 점검",
}

// Remaining is the time left in an active window.
type Remaining struct {
	Hours   int
	Minutes int
	End     time.Time
}

var windowLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05"}

// Store tracks maintenance mode. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	storage  types.Storage
	log      *zap.Logger
	clock    mockdata.Clock
	loc      *time.Location
	settings Settings
	active   bool
}

type Option func(*Store)

func WithClock(c mockdata.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLocation sets the zone the window's dates and times are read in.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

func New(st types.Storage, log *zap.Logger, opts ...Option) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		storage:  st,
		log:      log,
		clock:    mockdata.SystemClock,
		loc:      time.Local,
		settings: DefaultSettings,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settings returns the current settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Active reports the mode decided by the last check or SetMode.
func (s *Store) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Check reloads the stored settings and decides the mode.
func (s *Store) Check(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active, err := s.check(ctx)
	if err != nil {
		return false, err
	}
	s.active = active
	return active, nil
}

// UpdateSettings stores settings and re-checks the mode.
func (s *Store) UpdateSettings(ctx context.Context, settings Settings) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := stores.SaveJSON(ctx, s.storage, stores.KeyMaintenanceSettings, settings); err != nil {
		return false, err
	}
	s.settings = settings
	active, err := s.check(ctx)
	if err != nil {
		return false, err
	}
	s.active = active
	return active, nil
}

// SetMode switches maintenance on or off by hand. The stored isActive flag
// follows, and the mode is forced to active until the next check.
func (s *Store) SetMode(ctx context.Context, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings := s.settings
	settings.IsActive = active
	if err := stores.SaveJSON(ctx, s.storage, stores.KeyMaintenanceSettings, settings); err != nil {
		return err
	}
	s.settings = settings
	s.active = active
	s.log.Info("maintenance mode set", zap.Bool("active", active))
	return nil
}

// TimeUntilEnd returns the time left in the window while the mode is on.
func (s *Store) TimeUntilEnd() (Remaining, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active || s.settings.EndDate == "" || s.settings.EndTime == "" {
		return Remaining{}, false
	}
	end, ok := s.parse(s.settings.EndDate, s.settings.EndTime)
	if !ok {
		return Remaining{}, false
	}
	left := end.Sub(s.clock.Now())
	if left <= 0 {
		return Remaining{}, false
	}
	return Remaining{
		Hours:   int(left / time.Hour),
		Minutes: int(left % time.Hour / time.Minute),
		End:     end,
	}, true
}

// Watch re-checks the mode every interval until ctx ends.
func (s *Store) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			was := s.Active()
			active, err := s.Check(ctx)
			if err != nil {
				s.log.Warn("maintenance check failed", zap.Error(err))
				continue
			}
			if active != was {
				s.log.Info("maintenance mode changed", zap.Bool("active", active))
			}
		}
	}
}

// check reads the stored settings and evaluates the window. Callers hold
// s.mu.
func (s *Store) check(ctx context.Context) (bool, error) {
	var settings Settings
	ok, err := stores.LoadJSON(ctx, s.storage, stores.KeyMaintenanceSettings, &settings)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	s.settings = settings
	if !settings.IsActive {
		return false, nil
	}

	now := s.clock.Now()
	start, startOK := s.parse(settings.StartDate, settings.StartTime)
	end, endOK := s.parse(settings.EndDate, settings.EndTime)
	if endOK && now.After(end) {
		settings.IsActive = false
		if err := stores.SaveJSON(ctx, s.storage, stores.KeyMaintenanceSettings, settings); err != nil {
			return false, err
		}
		s.settings = settings
		s.log.Info("maintenance window ended", zap.Time("end", end))
		return false, nil
	}
	if startOK && endOK && !now.Before(start) && !now.After(end) {
		return true, nil
	}
	return false, nil
}

func (s *Store) parse(date, clock string) (time.Time, bool) {
	for _, layout := range windowLayouts {
		if t, err := time.ParseInLocation(layout, date+"T"+clock, s.loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
