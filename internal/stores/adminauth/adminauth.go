// Package adminauth keeps the back-office session. The session is a JWT
// stored verbatim under adminToken. Tokens are decoded to read the admin's
// identity and expiry but never verified: there is no security model.
package adminauth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/kennel/internal/mockdata"
	"github.com/mesh-intelligence/kennel/internal/stores"
	"github.com/mesh-intelligence/kennel/pkg/types"
)

// MockToken is issued by every login. Its claims are
// {"id":1,"username":"admin","role":"admin","exp":1893456000}.
const MockToken = "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9." +
	"eyJpZCI6MSwidXNlcm5hbWUiOiJhZG1pbiIsInJvbGUiOiJhZG1pbiIsImV4cCI6MTg5MzQ1NjAwMH0." +
	"signature"

// Admin is the identity carried by the token.
type Admin struct {
	ID       types.ID `json:"id"`
	Username string   `json:"username"`
	Role     string   `json:"role"`
}

// Store is the admin session state. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	storage types.Storage
	log     *zap.Logger
	clock   mockdata.Clock
	admin   *Admin
}

type Option func(*Store)

func WithClock(c mockdata.Clock) Option {
	return func(s *Store) { s.clock = c }
}

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

// Load restores the session from the stored token. Expired or undecodable
// tokens are removed.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admin = nil

	raw, ok, err := s.storage.GetItem(ctx, stores.KeyAdminToken)
	if err != nil {
		return fmt.Errorf("read admin token: %w", err)
	}
	if !ok {
		return nil
	}
	admin, err := s.decode(strings.TrimSpace(string(raw)))
	if err != nil {
		s.log.Warn("dropping admin token", zap.Error(err))
		return s.storage.RemoveItem(ctx, stores.KeyAdminToken)
	}
	s.admin = admin
	return nil
}

// Login accepts any credentials and stores MockToken.
func (s *Store) Login(ctx context.Context, username, _ string) (Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin, err := s.decode(MockToken)
	if err != nil {
		s.admin = nil
		return Admin{}, err
	}
	if err := s.storage.SetItem(ctx, stores.KeyAdminToken, []byte(MockToken)); err != nil {
		s.admin = nil
		return Admin{}, fmt.Errorf("write admin token: %w", err)
	}
	s.admin = admin
	s.log.Warn("admin login is mocked; any credentials succeed", zap.String("username", username))
	return *admin, nil
}

func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admin = nil
	return s.storage.RemoveItem(ctx, stores.KeyAdminToken)
}

// Admin returns the signed-in admin.
func (s *Store) Admin() (Admin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.admin == nil {
		return Admin{}, false
	}
	return *s.admin, true
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin != nil
}

// decode reads the claims of token without checking its signature. A token
// without exp never expires.
func (s *Store) decode(token string) (*Admin, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser(jwt.WithJSONNumber()).ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidToken, err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidToken, err)
	}
	if exp != nil && exp.Before(s.clock.Now()) {
		return nil, fmt.Errorf("%w: expired at %s", types.ErrInvalidToken, exp.Time)
	}

	admin := &Admin{}
	if id, ok := types.IDOf(claims["id"]); ok {
		admin.ID = id
	}
	admin.Username, _ = claims["username"].(string)
	admin.Role, _ = claims["role"].(string)
	return admin, nil
}
