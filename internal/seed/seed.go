// Package seed installs the demo accounts and sample patient on a fresh
// database.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ehr/clinic/internal/domain/identity"
	"github.com/ehr/clinic/internal/domain/patient"
	"github.com/ehr/clinic/internal/platform/auth"
	"github.com/ehr/clinic/internal/platform/db"
)

// SampleUsers are the demo accounts, one per role.
var SampleUsers = []identity.RegisterRequest{
	{Email: "admin@clinic.com", Password: "admin123", Name: "Super Admin", Role: string(auth.RoleSuperAdmin)},
	{Email: "frontdesk@clinic.com", Password: "front123", Name: "Front Desk Staff", Role: string(auth.RoleFrontDesk)},
	{Email: "doctor@clinic.com", Password: "doctor123", Name: "Dr. Smith", Role: string(auth.RoleDoctor)},
	{Email: "patient@example.com", Password: "patient123", Name: "John Doe", Role: string(auth.RolePatient)},
}

// SamplePatient is the record linked to the demo patient account by email.
var SamplePatient = patient.Patient{
	Code:             "P12345678",
	Name:             "John Doe",
	Email:            "patient@example.com",
	Phone:            "+91-9876543210",
	DateOfBirth:      "1990-01-15",
	Gender:           "Male",
	Address:          "123 Main St, Hyderabad, Telangana",
	EmergencyContact: "+91-9876543211",
	MedicalHistory:   "No known allergies. Previous history of hypertension.",
	Status:           patient.StatusRegistered,
}

type Seeder struct {
	users    *identity.Service
	patients patient.Repository
	tx       db.Transactor
	logger   zerolog.Logger
}

func New(users *identity.Service, patients patient.Repository, tx db.Transactor, logger zerolog.Logger) *Seeder {
	if tx == nil {
		tx = db.NopTransactor{}
	}
	return &Seeder{users: users, patients: patients, tx: tx, logger: logger}
}

// Run installs the sample data unless a super-admin already exists. Demo
// accounts and the sample patient that are already present are kept as they
// are. It reports whether anything was written.
func (s *Seeder) Run(ctx context.Context) (bool, error) {
	exists, err := s.users.HasSuperAdmin(ctx)
	if err != nil {
		return false, fmt.Errorf("check for super admin: %w", err)
	}
	if exists {
		s.logger.Debug().Msg("super admin present, skipping sample data")
		return false, nil
	}

	var created int
	var patientCreated bool
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var creator *identity.User
		for _, req := range SampleUsers {
			u, isNew, err := s.ensureUser(ctx, req)
			if err != nil {
				return fmt.Errorf("seed user %s: %w", req.Email, err)
			}
			if isNew {
				created++
			}
			if creator == nil || u.Role == auth.RoleFrontDesk {
				creator = u
			}
		}

		_, err := s.patients.GetByEmail(ctx, SamplePatient.Email)
		if err == nil {
			s.logger.Debug().Str("email", SamplePatient.Email).Msg("sample patient present, skipping")
			return nil
		}
		if !errors.Is(err, patient.ErrNotFound) {
			return fmt.Errorf("look up sample patient: %w", err)
		}
		p := SamplePatient
		p.CreatedBy = creator.ID
		if err := s.patients.Create(ctx, &p); err != nil {
			return fmt.Errorf("seed patient: %w", err)
		}
		patientCreated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	s.logger.Info().Int("users", created).Bool("patient", patientCreated).Msg("sample data created")
	return created > 0 || patientCreated, nil
}

// ensureUser registers req unless an account already holds its email. A
// conflicting insert would abort the enclosing Postgres transaction.
func (s *Seeder) ensureUser(ctx context.Context, req identity.RegisterRequest) (*identity.User, bool, error) {
	u, err := s.users.FindByEmail(ctx, req.Email)
	if err == nil {
		s.logger.Debug().Str("email", req.Email).Msg("user present, skipping")
		return u, false, nil
	}
	if !errors.Is(err, identity.ErrNotFound) {
		return nil, false, err
	}
	u, err = s.users.Register(ctx, req)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}
