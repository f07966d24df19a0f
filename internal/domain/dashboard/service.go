package dashboard

import (
	"context"

	"github.com/google/uuid"

	"github.com/ehr/clinic/internal/domain/patient"
	"github.com/ehr/clinic/internal/platform/auth"
)

// Counter supplies the patient totals the dashboard reports.
type Counter interface {
	Counts(ctx context.Context) (patient.Counts, error)
	CountsForDoctor(ctx context.Context, doctorID uuid.UUID) (patient.DoctorCounts, error)
}

type Service struct {
	counter Counter
}

func NewService(counter Counter) *Service {
	return &Service{counter: counter}
}

// Stats returns the role-specific summary for caller. The result is
// recomputed on every call.
func (s *Service) Stats(ctx context.Context, caller *auth.Principal) (any, error) {
	switch caller.Role {
	case auth.RoleSuperAdmin, auth.RoleFrontDesk:
		return s.counter.Counts(ctx)
	case auth.RoleDoctor:
		id, err := uuid.Parse(caller.UserID)
		if err != nil {
			return patient.DoctorCounts{}, nil
		}
		return s.counter.CountsForDoctor(ctx, id)
	default:
		return struct{}{}, nil
	}
}
