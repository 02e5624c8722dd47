package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"invoicebuilder/internal/model"
	"invoicebuilder/internal/store"

	"github.com/google/uuid"
)

// ErrNotFound signals a lookup of a session that was never created or
// has already been closed. Hitting it is a wiring bug in the caller,
// not a user-data problem, so it is surfaced loudly instead of being
// tolerated.
var ErrNotFound = errors.New("session not found")

// Session is one editing surface: a single invoice draft behind its
// store, discarded when the session closes.
type Session struct {
	ID        uuid.UUID
	Store     *store.Store
	CreatedAt time.Time
}

type Manager interface {
	Create(ctx context.Context) (*Session, error)
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	List(ctx context.Context, page, limit int) ([]*Session, int64, error)
	Close(ctx context.Context, id uuid.UUID) error
}

type manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	seq      int
	now      func() time.Time
}

// NewManager returns an in-memory session registry. Nothing survives a
// process restart; drafts exist only for the lifetime of their session.
func NewManager() Manager {
	return &manager{
		sessions: make(map[uuid.UUID]*Session),
		now:      time.Now,
	}
}

func (m *manager) Create(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	now := m.now()
	inv := model.NewInvoice(fmt.Sprintf("INV-%d", 1000+m.seq), now.Format("2006-01-02"))

	sess := &Session{
		ID:        uuid.New(),
		Store:     store.New(inv),
		CreatedAt: now,
	}
	m.sessions[sess.ID] = sess
	return sess, nil
}

func (m *manager) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sess, nil
}

func (m *manager) List(ctx context.Context, page, limit int) ([]*Session, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		all = append(all, sess)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	total := int64(len(all))
	offset := (page - 1) * limit
	if offset >= len(all) {
		return []*Session{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *manager) Close(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}
