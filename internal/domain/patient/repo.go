package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists patient records. Create assigns ID and Code; lookups
// report ErrNotFound.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByEmail(ctx context.Context, email string) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, assignedDoctorID *uuid.UUID) error
	CountByStatus(ctx context.Context) (Counts, error)
	CountForDoctor(ctx context.Context, doctorID uuid.UUID) (DoctorCounts, error)
}
