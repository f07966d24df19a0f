package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/clinic/internal/domain/patient"
	"github.com/ehr/clinic/internal/platform/auth"
)

// Patients resolves patient records for booking and filtering.
type Patients interface {
	Lookup(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	OwnRecord(ctx context.Context, caller *auth.Principal) (*patient.Patient, error)
}

// Doctors confirms that a doctor id names an active doctor account.
type Doctors interface {
	IsActiveDoctor(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	appointments AppointmentRepository
	patients     Patients
	doctors      Doctors
	logger       zerolog.Logger
}

func NewService(appt AppointmentRepository, patients Patients, doctors Doctors, logger zerolog.Logger) *Service {
	return &Service{
		appointments: appt,
		patients:     patients,
		doctors:      doctors,
		logger:       logger.With().Str("component", "scheduling").Logger(),
	}
}

// CreateAppointment books an appointment on behalf of caller. Patients may
// only book for their own record and doctors only for themselves.
func (s *Service) CreateAppointment(ctx context.Context, caller *auth.Principal, req CreateRequest) (*Appointment, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid patient_id", ErrInvalidInput)
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid doctor_id", ErrInvalidInput)
	}
	if req.AppointmentDate.IsZero() {
		return nil, fmt.Errorf("%w: appointment_date is required", ErrInvalidInput)
	}

	switch auth.ScopeFor(caller.Role, auth.OpCreateAppointment) {
	case auth.ScopeAll:
	case auth.ScopeOwnPatientRecord:
		own, err := s.patients.OwnRecord(ctx, caller)
		if errors.Is(err, patient.ErrNotFound) {
			return nil, ErrForbidden
		}
		if err != nil {
			return nil, err
		}
		if own.ID != patientID {
			return nil, ErrForbidden
		}
	case auth.ScopeOwnDoctor:
		if caller.UserID != doctorID.String() {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	if _, err := s.patients.Lookup(ctx, patientID); err != nil {
		return nil, err
	}
	ok, err := s.doctors.IsActiveDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("check doctor: %w", err)
	}
	if !ok {
		return nil, ErrDoctorNotFound
	}

	a := &Appointment{
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: req.AppointmentDate.UTC(),
		Status:          StatusScheduled,
		Notes:           strings.TrimSpace(req.Notes),
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("patient_id", patientID.String()).
		Str("doctor_id", doctorID.String()).
		Msg("appointment booked")
	return a, nil
}

// ListAppointments returns what caller may see: everything for admin and
// front desk, their own bookings for a doctor, and the appointments of
// their own record for a patient. A patient without a record sees nothing.
func (s *Service) ListAppointments(ctx context.Context, caller *auth.Principal) ([]*Appointment, error) {
	switch auth.ScopeFor(caller.Role, auth.OpListAppointments) {
	case auth.ScopeAll:
		return s.appointments.List(ctx)
	case auth.ScopeOwnDoctor:
		id, err := uuid.Parse(caller.UserID)
		if err != nil {
			return []*Appointment{}, nil
		}
		return s.appointments.ListByDoctor(ctx, id)
	case auth.ScopeOwnPatientRecord:
		own, err := s.patients.OwnRecord(ctx, caller)
		if errors.Is(err, patient.ErrNotFound) {
			return []*Appointment{}, nil
		}
		if err != nil {
			return nil, err
		}
		return s.appointments.ListByPatient(ctx, own.ID)
	default:
		return nil, ErrForbidden
	}
}
