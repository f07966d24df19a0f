package scheduling

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemAppointmentRepo is an in-process AppointmentRepository used by tests
// and local wiring.
type MemAppointmentRepo struct {
	mu    sync.Mutex
	items []*Appointment
}

func NewMemAppointmentRepo() *MemAppointmentRepo {
	return &MemAppointmentRepo{}
}

func (m *MemAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now().UTC()
	cp := *a
	m.items = append(m.items, &cp)
	return nil
}

func (m *MemAppointmentRepo) filter(keep func(*Appointment) bool) []*Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Appointment{}
	for _, a := range m.items {
		if keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out
}

func (m *MemAppointmentRepo) List(context.Context) ([]*Appointment, error) {
	return m.filter(func(*Appointment) bool { return true }), nil
}

func (m *MemAppointmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	return m.filter(func(a *Appointment) bool { return a.PatientID == patientID }), nil
}

func (m *MemAppointmentRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*Appointment, error) {
	return m.filter(func(a *Appointment) bool { return a.DoctorID == doctorID }), nil
}
