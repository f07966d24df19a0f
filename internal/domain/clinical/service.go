package clinical

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/clinic/internal/domain/patient"
	"github.com/ehr/clinic/internal/platform/auth"
	"github.com/ehr/clinic/internal/platform/db"
)

// Patients is the slice of the patient lifecycle the note recorder needs.
type Patients interface {
	Lookup(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	Authorize(caller *auth.Principal, op auth.Operation, p *patient.Patient) error
	Complete(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo     Repository
	patients Patients
	tx       db.Transactor
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, patients Patients, tx db.Transactor, logger zerolog.Logger) *Service {
	if tx == nil {
		tx = db.NopTransactor{}
	}
	return &Service{
		repo:     repo,
		patients: patients,
		tx:       tx,
		logger:   logger.With().Str("component", "clinical").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create records a note authored by caller and marks the patient completed.
// Both writes commit together or not at all.
func (s *Service) Create(ctx context.Context, caller *auth.Principal, req CreateRequest) (*Note, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, patient.ErrNotFound
	}
	doctorID, err := uuid.Parse(caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid author id", ErrInvalidInput)
	}

	n := &Note{
		PatientID:        patientID,
		DoctorID:         doctorID,
		Subjective:       req.Subjective,
		Objective:        req.Objective,
		Assessment:       req.Assessment,
		Plan:             req.Plan,
		ConsultationDate: s.now(),
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.patients.Lookup(ctx, patientID); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, n); err != nil {
			return err
		}
		return s.patients.Complete(ctx, patientID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("note_id", n.ID.String()).
		Str("patient_id", patientID.String()).
		Str("doctor_id", doctorID.String()).
		Msg("soap note recorded")
	return n, nil
}

// ListForPatient returns the notes of patientID in the order they were
// written. Patient callers may only read their own record.
func (s *Service) ListForPatient(ctx context.Context, caller *auth.Principal, patientID uuid.UUID) ([]*Note, error) {
	p, err := s.patients.Lookup(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if err := s.patients.Authorize(caller, auth.OpReadNotes, p); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID)
}
