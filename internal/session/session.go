// Package session issues the opaque ids that key carts.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fjod/go_cart/storefront/internal/apperr"
)

var ErrSessionNotFound = errors.New("session not found or expired")

type Session struct {
	ID        string    `json:"sessionId"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store persists sessions until they expire.
type Store interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
}

type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

func (m *Manager) Issue(ctx context.Context) (Session, error) {
	now := m.now().UTC()
	s := Session{
		ID:        uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return Session{}, apperr.Transport("save session", err)
	}
	return s, nil
}

// Lookup returns ErrSessionNotFound for unknown and expired ids.
func (m *Manager) Lookup(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, ErrSessionNotFound
	}
	s, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return Session{}, err
	}
	if err != nil {
		return Session{}, apperr.Transport("get session", err)
	}
	if !m.now().Before(s.ExpiresAt) {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}
