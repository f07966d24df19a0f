package clinical

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores notes. ListByPatient returns insertion order.
type Repository interface {
	Create(ctx context.Context, n *Note) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Note, error)
}
