package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/ehr/clinic/internal/platform/auth"
)

var statusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ehr_patient_status_transitions_total",
	Help: "Patient status changes by source and target status.",
}, []string{"from", "to"})

// DoctorLookup confirms that an id names an active doctor account.
type DoctorLookup interface {
	IsActiveDoctor(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	repo    Repository
	doctors DoctorLookup
	policy  TransitionPolicy
	logger  zerolog.Logger
}

func NewService(repo Repository, doctors DoctorLookup, policy TransitionPolicy, logger zerolog.Logger) *Service {
	if policy == "" {
		policy = TransitionsLenient
	}
	return &Service{
		repo:    repo,
		doctors: doctors,
		policy:  policy,
		logger:  logger.With().Str("component", "patient").Logger(),
	}
}

func (s *Service) Create(ctx context.Context, req CreateRequest, createdBy uuid.UUID) (*Patient, error) {
	name := strings.TrimSpace(req.Name)
	email := trimEmail(req.Email)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	p := &Patient{
		Name:             name,
		Email:            email,
		Phone:            req.Phone,
		DateOfBirth:      req.DateOfBirth,
		Gender:           req.Gender,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		MedicalHistory:   req.MedicalHistory,
		Status:           StatusRegistered,
		CreatedBy:        createdBy,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Str("patient_id", p.ID.String()).Str("patient_code", p.Code).Msg("patient registered")
	return p, nil
}

// List returns every patient for staff and at most the caller's own record
// for a patient.
func (s *Service) List(ctx context.Context, caller *auth.Principal) ([]*Patient, error) {
	switch auth.ScopeFor(caller.Role, auth.OpListPatients) {
	case auth.ScopeAll:
		return s.repo.List(ctx)
	case auth.ScopeOwnPatientRecord:
		p, err := s.OwnRecord(ctx, caller)
		if errors.Is(err, ErrNotFound) {
			return []*Patient{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []*Patient{p}, nil
	default:
		return nil, ErrForbidden
	}
}

// Get loads id on behalf of caller. A patient caller may only read the record
// whose email matches their own.
func (s *Service) Get(ctx context.Context, caller *auth.Principal, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Authorize(caller, auth.OpReadPatient, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Lookup loads id without any ownership check.
func (s *Service) Lookup(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// OwnRecord returns the patient record matching caller's email.
func (s *Service) OwnRecord(ctx context.Context, caller *auth.Principal) (*Patient, error) {
	return s.repo.GetByEmail(ctx, trimEmail(caller.Email))
}

// Authorize applies the ownership scope of op to p.
func (s *Service) Authorize(caller *auth.Principal, op auth.Operation, p *Patient) error {
	switch auth.ScopeFor(caller.Role, op) {
	case auth.ScopeAll:
		return nil
	case auth.ScopeOwnPatientRecord:
		if p.Email == trimEmail(caller.Email) {
			return nil
		}
	}
	return ErrForbidden
}

// UpdateStatus moves id to status under the configured transition policy and
// optionally records the assigned doctor.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, assignedDoctorID *uuid.UUID) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.Check(current.Status, status); err != nil {
		return err
	}
	if assignedDoctorID != nil {
		ok, err := s.doctors.IsActiveDoctor(ctx, *assignedDoctorID)
		if err != nil {
			return fmt.Errorf("check assigned doctor: %w", err)
		}
		if !ok {
			return ErrInvalidDoctor
		}
	}
	if err := s.repo.UpdateStatus(ctx, id, status, assignedDoctorID); err != nil {
		return err
	}
	s.recordTransition(id, current.Status, status)
	return nil
}

// Complete marks id completed. It is the note-triggered transition and is
// never subject to the transition policy.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusCompleted, nil); err != nil {
		return err
	}
	s.recordTransition(id, current.Status, StatusCompleted)
	return nil
}

func (s *Service) Counts(ctx context.Context) (Counts, error) {
	return s.repo.CountByStatus(ctx)
}

func (s *Service) CountsForDoctor(ctx context.Context, doctorID uuid.UUID) (DoctorCounts, error) {
	return s.repo.CountForDoctor(ctx, doctorID)
}

func (s *Service) recordTransition(id uuid.UUID, from, to Status) {
	statusTransitions.WithLabelValues(string(from), string(to)).Inc()
	s.logger.Info().
		Str("patient_id", id.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("patient status changed")
}

func trimEmail(email string) string {
	return strings.TrimSpace(email)
}
