// Package auth keeps the signed-in user and the registry of all users.
//
// Documents:
//
//	currentUser         the signed-in user, absent when signed out
//	allRegisteredUsers  every account, seeded from initial users on first use
//
// Users are freeform records. Only the fields below are interpreted; every
// other field is kept as stored.
package auth

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/kennel/internal/mockdata"
	"github.com/mesh-intelligence/kennel/internal/stores"
	"github.com/mesh-intelligence/kennel/pkg/types"
)

// User fields the store reads or writes.
const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldNickname     = "nickname"
	FieldRole         = "role"
	FieldProfileImage = "profileImage"
	FieldJoinDate     = "joinDate"
)

// Defaults applied to new accounts.
const (
	RoleUser            = "user"
	DefaultProfileImage = "/src/assets/images/profiles/default-user.svg"
)

// SignupRequest carries the fields a new account is created from. Extra
// holds any further form fields; they are stored alongside.
type SignupRequest struct {
	Email    string
	Password string
	Nickname string
	Extra    types.Record
}

// Store is the authentication state. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	storage types.Storage
	log     *zap.Logger
	clock   mockdata.Clock
	initial []types.Record
	user    types.Record
}

// Option configures a Store.
type Option func(*Store)

func WithClock(c mockdata.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithInitialUsers sets the accounts written to allRegisteredUsers when
// that document does not exist yet.
func WithInitialUsers(users []types.Record) Option {
	return func(s *Store) { s.initial = users }
}

// New returns a signed-out store.
func New(st types.Storage, log *zap.Logger, opts ...Option) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{storage: st, log: log, clock: mockdata.SystemClock}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load restores the signed-in user from storage.
func (s *Store) Load(ctx context.Context) error {
	var u types.Record
	ok, err := stores.LoadJSON(ctx, s.storage, stores.KeyCurrentUser, &u)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok && u != nil {
		s.user = u
		s.log.Debug("restored signed-in user", zap.String("email", u.Text(FieldEmail)))
	} else {
		s.user = nil
	}
	return nil
}

// Users returns every registered account.
func (s *Store) Users(ctx context.Context) ([]types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.allUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.Record, len(users))
	for i, u := range users {
		out[i] = u.Clone()
	}
	return out, nil
}

// Signup registers a new account and signs it in.
func (s *Store) Signup(ctx context.Context, req SignupRequest) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.allUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Text(FieldEmail) == req.Email {
			return nil, types.ErrEmailTaken
		}
	}

	now := s.clock.Now()
	nickname := req.Nickname
	if nickname == "" {
		nickname, _, _ = strings.Cut(req.Email, "@")
	}
	user := req.Extra.Clone()
	for k, v := range map[string]any{
		types.FieldID:     strconv.FormatInt(now.UnixMilli(), 10),
		FieldEmail:        req.Email,
		FieldPassword:     req.Password,
		FieldNickname:     nickname,
		FieldRole:         RoleUser,
		FieldProfileImage: DefaultProfileImage,
		FieldJoinDate:     now.UTC().Format(stores.DateLayout),
	} {
		user[k] = v
	}
	user, err = types.Normalize(user)
	if err != nil {
		return nil, err
	}
	if err := stores.SaveJSON(ctx, s.storage, stores.KeyAllRegisteredUsers, append(users, user)); err != nil {
		return nil, err
	}
	if err := stores.SaveJSON(ctx, s.storage, stores.KeyCurrentUser, user); err != nil {
		return nil, err
	}
	s.user = user
	s.log.Info("user signed up", zap.String("email", req.Email), zap.Any("id", user[types.FieldID]))
	return user.Clone(), nil
}

// Login signs in the account matching email and password.
func (s *Store) Login(ctx context.Context, email, password string) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.allUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Text(FieldEmail) == email && u.Text(FieldPassword) == password {
			if err := stores.SaveJSON(ctx, s.storage, stores.KeyCurrentUser, u); err != nil {
				return nil, err
			}
			s.user = u
			s.log.Info("user logged in", zap.String("email", email))
			return u.Clone(), nil
		}
	}
	s.log.Debug("login rejected", zap.String("email", email))
	return nil, types.ErrInvalidCredentials
}

// Logout forgets the signed-in user.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.RemoveItem(ctx, stores.KeyCurrentUser); err != nil {
		return err
	}
	s.user = nil
	return nil
}

// UpdateUser spreads fields over the signed-in user and over its registry
// entry. The id never changes and fields not named are kept.
func (s *Store) UpdateUser(ctx context.Context, fields types.Record) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, types.ErrNotAuthenticated
	}

	updated, err := stores.Spread(s.user, fields)
	if err != nil {
		return nil, err
	}
	id, hasID := s.user.ID()

	users, err := s.allUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i, u := range users {
		if uid, ok := u.ID(); ok && hasID && uid.Equal(id) {
			if users[i], err = stores.Spread(u, fields); err != nil {
				return nil, err
			}
		}
	}
	if err := stores.SaveJSON(ctx, s.storage, stores.KeyAllRegisteredUsers, users); err != nil {
		return nil, err
	}
	if err := stores.SaveJSON(ctx, s.storage, stores.KeyCurrentUser, updated); err != nil {
		return nil, err
	}
	s.user = updated
	return updated.Clone(), nil
}

// CurrentUser returns the signed-in user.
func (s *Store) CurrentUser() (types.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil, false
	}
	return s.user.Clone(), true
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// allUsers reads the registry, seeding it from the initial users when it
// has never been written. Callers hold s.mu.
func (s *Store) allUsers(ctx context.Context) ([]types.Record, error) {
	var users []types.Record
	ok, err := stores.LoadJSON(ctx, s.storage, stores.KeyAllRegisteredUsers, &users)
	if err != nil {
		return nil, err
	}
	if ok {
		if users == nil {
			users = []types.Record{}
		}
		return users, nil
	}
	if len(s.initial) == 0 {
		return []types.Record{}, nil
	}
	users = make([]types.Record, len(s.initial))
	for i, u := range s.initial {
		if users[i], err = types.Normalize(u); err != nil {
			return nil, err
		}
	}
	if err := stores.SaveJSON(ctx, s.storage, stores.KeyAllRegisteredUsers, users); err != nil {
		return nil, err
	}
	return users, nil
}
