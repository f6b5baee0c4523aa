package user

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/pot-code/course-gateway/internal/infrastructure/driver"
)

// kv key prefixes
const (
	sessionPrefix   = "session:"
	blacklistPrefix = "jwt:blacklist:"
	themePrefix     = "theme:"
)

// SessionKV SessionStore on the key-value store
type SessionKV struct {
	KV driver.KeyValueDB `dep:""`
}

var _ SessionStore = &SessionKV{}

// NewSessionKV .
func NewSessionKV(kv driver.KeyValueDB) *SessionKV {
	return &SessionKV{KV: kv}
}

// SaveSession .
func (sk *SessionKV) SaveSession(ctx context.Context, s *Session, ttl time.Duration) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return sk.KV.SetEX(ctx, sessionPrefix+s.ID, string(b), ttl)
}

// LoadSession ErrSessionExpired when the key is gone
func (sk *SessionKV) LoadSession(ctx context.Context, sessionID string) (*Session, error) {
	v, err := sk.KV.Get(ctx, sessionPrefix+sessionID)
	if err != nil {
		if errors.Is(err, driver.ErrKeyNotFound) {
			return nil, ErrSessionExpired
		}
		return nil, err
	}
	s := new(Session)
	if err := json.Unmarshal([]byte(v), s); err != nil {
		return nil, err
	}
	return s, nil
}

// TouchSession extend a live session by ttl, ErrSessionExpired when it is gone
func (sk *SessionKV) TouchSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	err := sk.KV.Expire(ctx, sessionPrefix+sessionID, ttl)
	if errors.Is(err, driver.ErrKeyNotFound) {
		return ErrSessionExpired
	}
	return err
}

// DeleteSession .
func (sk *SessionKV) DeleteSession(ctx context.Context, sessionID string) error {
	return sk.KV.Del(ctx, sessionPrefix+sessionID)
}

// Blacklist reject token until it expires anyway
func (sk *SessionKV) Blacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return sk.KV.SetEX(ctx, blacklistPrefix+token, "", ttl)
}

// IsBlacklisted .
func (sk *SessionKV) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return sk.KV.Exists(ctx, blacklistPrefix+token)
}

// GetTheme light when nothing is stored
func (sk *SessionKV) GetTheme(ctx context.Context, userID string) (Theme, error) {
	v, err := sk.KV.Get(ctx, themePrefix+userID)
	if err != nil {
		if errors.Is(err, driver.ErrKeyNotFound) {
			return ThemeLight, nil
		}
		return "", err
	}
	if t := Theme(v); t.Valid() {
		return t, nil
	}
	return ThemeLight, nil
}

// SetTheme kept without expiration
func (sk *SessionKV) SetTheme(ctx context.Context, userID string, theme Theme) error {
	if !theme.Valid() {
		return ErrInvalidTheme
	}
	return sk.KV.SetEX(ctx, themePrefix+userID, string(theme), 0)
}
