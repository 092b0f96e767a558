package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"pagenotes/internal/models"
	"pagenotes/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingUsers counts username lookups that reach the store.
type countingUsers struct {
	*store.MemoryStore
	lookups int
}

func (s *countingUsers) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	s.lookups++
	return s.MemoryStore.GetUserByUsername(ctx, username)
}

func TestCachedDirectory(t *testing.T) {
	ctx := context.Background()
	users := &countingUsers{MemoryStore: store.NewMemoryStore()}
	require.NoError(t, users.InsertUser(ctx, &models.User{ID: "1", Username: "bob", Password: "x"}))

	d, err := NewCachedDirectory(users, 8, time.Minute)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		u, err := d.LookupUsername(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, "1", u.ID)
	}
	assert.Equal(t, 1, users.lookups)

	_, err = d.LookupUsername(ctx, "carol")
	assert.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, users.InsertUser(ctx, &models.User{ID: "2", Username: "carol", Password: "x"}))
	u, err := d.LookupUsername(ctx, "carol")
	require.NoError(t, err, "misses are not cached")
	assert.Equal(t, "2", u.ID)
}

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	auth := NewAuthService(store.NewMemoryStore())

	user, err := auth.Register(ctx, "bob", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "hunter22", user.Password)

	_, err = auth.Register(ctx, "bob", "another1")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = auth.Register(ctx, "bad name", "hunter22")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = auth.Register(ctx, "carol", "short")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = auth.Register(ctx, "carol", strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrValidation, "bcrypt input is capped at 72 bytes")
	_, err = auth.Register(ctx, "carol", strings.Repeat("x", 72))
	assert.NoError(t, err)

	got, err := auth.Authenticate(ctx, "bob", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = auth.Authenticate(ctx, "bob", "wrong")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = auth.Authenticate(ctx, "nobody", "hunter22")
	assert.ErrorIs(t, err, ErrForbidden)

	loaded, err := auth.User(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", loaded.Username)
}
