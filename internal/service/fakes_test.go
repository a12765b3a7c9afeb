package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/placenote/internal/apperr"
	"github.com/iliyamo/placenote/internal/model"
	"github.com/iliyamo/placenote/internal/queue"
	"github.com/iliyamo/placenote/internal/token"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTokens(t *testing.T, c *clock) *token.Service {
	t.Helper()
	s, err := token.NewService(token.Config{
		Secret:     testSecret,
		Issuer:     "placenote",
		AccessTTL:  24 * time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	}, token.WithClock(c.now))
	require.NoError(t, err)
	return s
}

// memUsers mimics UserRepo, including email normalization and the unique
// email constraint.
type memUsers struct {
	mu      sync.Mutex
	byID    map[string]model.User
	failErr error
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]model.User{}} }

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return apperr.ErrConflict
		}
	}
	u.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return model.User{}, m.failErr
	}
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, apperr.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return model.User{}, m.failErr
	}
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, apperr.ErrNotFound
	}
	return u, nil
}

// memMemos mimics MemoRepo's owner-scoped update and delete.
type memMemos struct {
	mu   sync.Mutex
	rows map[string]model.Memo
}

func newMemMemos() *memMemos { return &memMemos{rows: map[string]model.Memo{}} }

func (m *memMemos) Create(_ context.Context, memo model.Memo) (model.Memo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	memo.CreatedAt = time.Now().UTC()
	memo.UpdatedAt = memo.CreatedAt
	m.rows[memo.ID] = memo
	return memo, nil
}

func (m *memMemos) GetByID(_ context.Context, id string) (model.Memo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	memo, ok := m.rows[id]
	if !ok {
		return model.Memo{}, apperr.ErrNotFound
	}
	return memo, nil
}

func (m *memMemos) UpdateByIDAndOwner(_ context.Context, id, ownerID string, p model.MemoPatch) (model.Memo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	memo, ok := m.rows[id]
	if !ok || memo.OwnerID != ownerID {
		return model.Memo{}, apperr.ErrNotFound
	}
	if p.Title != nil {
		memo.Title = *p.Title
	}
	if p.Content != nil {
		memo.Content = *p.Content
	}
	if p.Location != nil {
		memo.Location = *p.Location
	}
	m.rows[id] = memo
	return memo, nil
}

func (m *memMemos) DeleteByIDAndOwner(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	memo, ok := m.rows[id]
	if !ok || memo.OwnerID != ownerID {
		return apperr.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memMemos) ListByOwner(_ context.Context, q model.MemoListQuery) ([]model.Memo, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Memo
	for _, memo := range m.rows {
		if memo.OwnerID == q.OwnerID {
			all = append(all, memo)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	start := (q.Page - 1) * q.PageSize
	if start >= len(all) {
		return []model.Memo{}, total, nil
	}
	end := start + q.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

type recordedEvents struct {
	mu     sync.Mutex
	events []queue.MemoEvent
	err    error
}

func (r *recordedEvents) Publish(_ context.Context, ev queue.MemoEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordedEvents) types() []queue.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []queue.EventType
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}
