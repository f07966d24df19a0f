package identity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/clinic/internal/platform/auth"
)

// MemRepo is an in-process Repository used by tests and local wiring.
type MemRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*User
	err   error
}

func NewMemRepo() *MemRepo {
	return &MemRepo{users: make(map[uuid.UUID]*User)}
}

func (m *MemRepo) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now().Add(time.Duration(len(m.users)) * time.Millisecond)
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemRepo) sorted(keep func(*User) bool) []*User {
	out := []*User{}
	for _, u := range m.users {
		if keep(u) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *MemRepo) List(_ context.Context) ([]*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(*User) bool { return true }), m.err
}

func (m *MemRepo) ListByRole(_ context.Context, role auth.Role) ([]*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(u *User) bool { return u.Role == role }), m.err
}

func (m *MemRepo) CountByRole(ctx context.Context, role auth.Role) (int, error) {
	users, err := m.ListByRole(ctx, role)
	return len(users), err
}

func (m *MemRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	return nil
}
