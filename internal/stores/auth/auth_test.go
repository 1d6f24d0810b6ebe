package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/kennel/internal/mockdata"
	"github.com/mesh-intelligence/kennel/internal/storage"
	"github.com/mesh-intelligence/kennel/internal/stores"
	"github.com/mesh-intelligence/kennel/pkg/types"
)

var now = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newStore(t *testing.T, opts ...Option) (*Store, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	opts = append([]Option{WithClock(mockdata.FixedClock(now))}, opts...)
	return New(mem, zap.NewNop(), opts...), mem
}

func loadDoc[T any](t *testing.T, mem *storage.Memory, key string) T {
	t.Helper()
	var v T
	ok, err := stores.LoadJSON(context.Background(), mem, key, &v)
	require.NoError(t, err)
	require.True(t, ok, key)
	return v
}

func TestSignup(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t)

	u, err := s.Signup(ctx, SignupRequest{Email: "mochi@example.com", Password: "pw"})
	require.NoError(t, err)
	id, ok := u.ID()
	require.True(t, ok)
	assert.Equal(t, types.StringID("1741944600000"), id)
	assert.Equal(t, "mochi", u.Text(FieldNickname))
	assert.Equal(t, RoleUser, u.Text(FieldRole))
	assert.Equal(t, DefaultProfileImage, u.Text(FieldProfileImage))
	assert.Equal(t, "2025-03-14", u.Text(FieldJoinDate))
	assert.True(t, s.IsAuthenticated())

	assert.Equal(t, u, loadDoc[types.Record](t, mem, stores.KeyCurrentUser))

	users, err := s.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestSignup_KeepsFormFields(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t, WithInitialUsers([]types.Record{
		{"id": "1", "email": "old@example.com", "phone": "010-0000", "address": "Busan"},
	}))

	u, err := s.Signup(ctx, SignupRequest{
		Email:    "new@example.com",
		Password: "pw",
		Extra:    types.Record{"phone": "010-1234", "marketing": true, "role": "admin"},
	})
	require.NoError(t, err)
	assert.Equal(t, "010-1234", u.Text("phone"))
	assert.Equal(t, true, u["marketing"])
	assert.Equal(t, RoleUser, u.Text(FieldRole), "form fields never override the defaults")

	users := loadDoc[[]types.Record](t, mem, stores.KeyAllRegisteredUsers)
	require.Len(t, users, 2)
	assert.Equal(t, types.Record{"id": "1", "email": "old@example.com", "phone": "010-0000", "address": "Busan"}, users[0])
	assert.Equal(t, u, users[1])
}

func TestSignup_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, WithInitialUsers([]types.Record{{"id": "1", "email": "taken@example.com"}}))

	_, err := s.Signup(ctx, SignupRequest{Email: "taken@example.com", Password: "x", Nickname: "n"})
	assert.ErrorIs(t, err, types.ErrEmailTaken)
	assert.False(t, s.IsAuthenticated())
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, WithInitialUsers([]types.Record{
		{"id": "1", "email": "a@example.com", "password": "123123", "nickname": "a"},
	}))

	_, err := s.Login(ctx, "a@example.com", "wrong")
	assert.ErrorIs(t, err, types.ErrInvalidCredentials)
	assert.False(t, s.IsAuthenticated())

	u, err := s.Login(ctx, "a@example.com", "123123")
	require.NoError(t, err)
	assert.Equal(t, "a", u.Text(FieldNickname))

	got, ok := s.CurrentUser()
	assert.True(t, ok)
	assert.Equal(t, u, got)
}

func TestLoadAndLogout(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t)
	_, err := s.Signup(ctx, SignupRequest{Email: "b@example.com", Password: "pw"})
	require.NoError(t, err)

	restored := New(mem, nil)
	require.NoError(t, restored.Load(ctx))
	assert.True(t, restored.IsAuthenticated())

	require.NoError(t, restored.Logout(ctx))
	assert.False(t, restored.IsAuthenticated())
	_, ok, err := mem.GetItem(ctx, stores.KeyCurrentUser)
	require.NoError(t, err)
	assert.False(t, ok)

	again := New(mem, nil)
	require.NoError(t, again.Load(ctx))
	assert.False(t, again.IsAuthenticated())
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	_, err := s.UpdateUser(ctx, types.Record{"nickname": "x"})
	assert.ErrorIs(t, err, types.ErrNotAuthenticated)

	u, err := s.Signup(ctx, SignupRequest{Email: "c@example.com", Password: "pw"})
	require.NoError(t, err)

	updated, err := s.UpdateUser(ctx, types.Record{"nickname": "Coco", "id": "hijack"})
	require.NoError(t, err)
	assert.Equal(t, "Coco", updated.Text(FieldNickname))
	assert.Equal(t, u["id"], updated["id"])
	assert.Equal(t, u.Text(FieldEmail), updated.Text(FieldEmail))

	users, err := s.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Coco", users[0].Text(FieldNickname))
}

func TestUpdateUser_KeepsUnknownFields(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t, WithInitialUsers([]types.Record{
		{"id": "1", "email": "a@b.c", "password": "p", "phone": "010-1234", "address": "Seoul"},
		{"id": "2", "email": "d@e.f", "password": "q", "pets": []any{"Bori"}, "points": 120},
	}))
	_, err := s.Login(ctx, "a@b.c", "p")
	require.NoError(t, err)

	updated, err := s.UpdateUser(ctx, types.Record{"bio": "hi"})
	require.NoError(t, err)

	want := types.Record{"id": "1", "email": "a@b.c", "password": "p", "phone": "010-1234", "address": "Seoul", "bio": "hi"}
	assert.Equal(t, want, updated)
	assert.Equal(t, want, loadDoc[types.Record](t, mem, stores.KeyCurrentUser))

	users := loadDoc[[]types.Record](t, mem, stores.KeyAllRegisteredUsers)
	require.Len(t, users, 2)
	assert.Equal(t, want, users[0])
	assert.Equal(t, "010-1234", users[0].Text("phone"))
	assert.Equal(t, []any{"Bori"}, users[1]["pets"], "untouched accounts keep every field")
	assert.Equal(t, json.Number("120"), users[1]["points"])
}

func TestInitialUsersSeedOnce(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t, WithInitialUsers([]types.Record{{"id": "1", "email": "seed@example.com"}}))

	users, err := s.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	other := New(mem, nil, WithInitialUsers([]types.Record{{"id": "2", "email": "other@example.com"}}))
	users, err = other.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "seed@example.com", users[0].Text(FieldEmail))
}
