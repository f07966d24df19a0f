package clinical

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemRepo is an in-process Repository used by tests and local wiring.
type MemRepo struct {
	mu    sync.Mutex
	notes []*Note
}

func NewMemRepo() *MemRepo {
	return &MemRepo{}
}

func (m *MemRepo) Create(_ context.Context, n *Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now().UTC()
	cp := *n
	m.notes = append(m.notes, &cp)
	return nil
}

func (m *MemRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Note{}
	for _, n := range m.notes {
		if n.PatientID == patientID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}
