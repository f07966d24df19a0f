package patient

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemRepo is an in-process Repository used by tests and local wiring.
type MemRepo struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*Patient
	seq      int
}

func NewMemRepo() *MemRepo {
	return &MemRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *MemRepo) codeTaken(code string) bool {
	for _, p := range m.patients {
		if p.Code == code {
			return true
		}
	}
	return false
}

func (m *MemRepo) Create(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Code != "" {
		if m.codeTaken(p.Code) {
			return fmt.Errorf("%w: %s already in use", ErrCodeExhausted, p.Code)
		}
	} else {
		ok := false
		for attempt := 0; attempt < codeAttempts; attempt++ {
			p.Code = generateCode()
			if !m.codeTaken(p.Code) {
				ok = true
				break
			}
		}
		if !ok {
			return ErrCodeExhausted
		}
	}
	m.seq++
	now := time.Now().UTC().Add(time.Duration(m.seq) * time.Microsecond)
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *MemRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemRepo) sorted() []*Patient {
	out := make([]*Patient, 0, len(m.patients))
	for _, p := range m.patients {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *MemRepo) GetByEmail(_ context.Context, email string) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.sorted() {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemRepo) List(_ context.Context) ([]*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(), nil
}

func (m *MemRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status, assignedDoctorID *uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	if assignedDoctorID != nil {
		d := *assignedDoctorID
		p.AssignedDoctorID = &d
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemRepo) CountByStatus(_ context.Context) (Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c Counts
	for _, p := range m.patients {
		c.Total++
		switch p.Status {
		case StatusRegistered:
			c.Registered++
		case StatusConsulting:
			c.Consulting++
		case StatusCompleted:
			c.Completed++
		}
	}
	return c, nil
}

func (m *MemRepo) CountForDoctor(_ context.Context, doctorID uuid.UUID) (DoctorCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c DoctorCounts
	for _, p := range m.patients {
		if p.AssignedDoctorID == nil || *p.AssignedDoctorID != doctorID {
			continue
		}
		c.Assigned++
		if p.Status == StatusConsulting {
			c.Consulting++
		}
	}
	return c, nil
}
