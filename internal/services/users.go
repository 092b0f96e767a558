package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"pagenotes/internal/models"
	"pagenotes/internal/store"
	"pagenotes/internal/utils"

	"github.com/google/uuid"
)

// CachedDirectory resolves usernames through the user store, keeping recent
// hits in an LRU cache. Misses are not cached so a fresh signup is mentionable
// at once.
type CachedDirectory struct {
	store store.UserStore
	cache *utils.TTLCache[models.User]
}

func NewCachedDirectory(s store.UserStore, size int, ttl time.Duration) (*CachedDirectory, error) {
	cache, err := utils.NewTTLCache[models.User](size, ttl)
	if err != nil {
		return nil, err
	}
	return &CachedDirectory{store: s, cache: cache}, nil
}

func (d *CachedDirectory) LookupUsername(ctx context.Context, username string) (models.User, error) {
	if user, ok := d.cache.Get(username); ok {
		return user, nil
	}
	user, err := d.store.GetUserByUsername(ctx, username)
	if err != nil {
		return models.User{}, err
	}
	d.cache.Set(username, user)
	return user, nil
}

var usernamePattern = regexp.MustCompile(`^\w{2,32}$`)

// AuthService registers and authenticates local accounts. Usernames use the
// same character class as mentions so every account can be mentioned.
type AuthService struct {
	store store.UserStore
	now   func() time.Time
}

func NewAuthService(s store.UserStore) *AuthService {
	return &AuthService{store: s, now: time.Now}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (models.User, error) {
	const op = "register"
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return models.User{}, invalid(op, "username must be 2-32 letters, digits or underscores")
	}
	if len(password) < 6 {
		return models.User{}, invalid(op, "password must be at least 6 characters")
	}
	// bcrypt only accepts 72 bytes
	if len(password) > 72 {
		return models.User{}, invalid(op, "password must be at most 72 bytes")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return models.User{}, &Error{Kind: KindCollaborator, Op: op, Err: err}
	}
	now := s.now().UTC()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Password:  hash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertUser(ctx, &user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return models.User{}, &Error{Kind: KindConflict, Op: op, Message: "username already taken", Err: err}
		}
		return models.User{}, storeErr(op, err)
	}
	return user, nil
}

func (s *AuthService) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	const op = "login"
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, forbidden(op, "invalid username or password")
		}
		return models.User{}, storeErr(op, err)
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return models.User{}, forbidden(op, "invalid username or password")
	}
	return user, nil
}

// User loads the account behind a session.
func (s *AuthService) User(ctx context.Context, id string) (models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, storeErr("load user", err)
	}
	return user, nil
}
