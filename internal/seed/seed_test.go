package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ehr/clinic/internal/domain/identity"
	"github.com/ehr/clinic/internal/domain/patient"
	"github.com/ehr/clinic/internal/platform/auth"
)

func newSeeder() (*Seeder, *identity.Service, *patient.MemRepo) {
	users := identity.NewService(identity.NewMemRepo(), auth.NewBcryptHasher(bcrypt.MinCost), zerolog.Nop())
	patients := patient.NewMemRepo()
	return New(users, patients, nil, zerolog.Nop()), users, patients
}

func TestSeeder_Run(t *testing.T) {
	s, users, patients := newSeeder()
	ctx := context.Background()

	created, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected sample data on an empty store")
	}

	for _, req := range SampleUsers {
		u, err := users.Verify(ctx, req.Email, req.Password)
		if err != nil {
			t.Errorf("login %s: %v", req.Email, err)
			continue
		}
		if string(u.Role) != req.Role {
			t.Errorf("%s: expected role %s, got %s", req.Email, req.Role, u.Role)
		}
	}

	p, err := patients.GetByEmail(ctx, "patient@example.com")
	if err != nil {
		t.Fatalf("sample patient: %v", err)
	}
	if p.Code != "P12345678" || p.Status != patient.StatusRegistered {
		t.Errorf("unexpected sample patient %+v", p)
	}
	desk, _ := users.Verify(ctx, "frontdesk@clinic.com", "front123")
	if desk == nil || p.CreatedBy != desk.ID {
		t.Errorf("expected sample patient created by front desk")
	}
}

func TestSeeder_Run_Idempotent(t *testing.T) {
	s, users, _ := newSeeder()
	ctx := context.Background()
	if _, err := s.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	created, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if created {
		t.Error("expected second run to be a no-op")
	}
	all, _ := users.ListUsers(ctx)
	if len(all) != len(SampleUsers) {
		t.Errorf("expected %d users, got %d", len(SampleUsers), len(all))
	}
}

func TestSeeder_Run_KeepsExistingAccounts(t *testing.T) {
	s, users, patients := newSeeder()
	ctx := context.Background()
	existing, err := users.Register(ctx, identity.RegisterRequest{
		Email: "doctor@clinic.com", Password: "mine", Name: "Dr. Existing", Role: string(auth.RoleDoctor),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	created, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected the missing sample data to be written")
	}

	all, _ := users.ListUsers(ctx)
	if len(all) != len(SampleUsers) {
		t.Errorf("expected %d users, got %d", len(SampleUsers), len(all))
	}
	if u, err := users.Verify(ctx, "doctor@clinic.com", "mine"); err != nil || u.ID != existing.ID {
		t.Errorf("expected existing doctor kept, got %+v, %v", u, err)
	}
	if ok, _ := users.HasSuperAdmin(ctx); !ok {
		t.Error("expected super admin to be created")
	}
	p, err := patients.GetByEmail(ctx, "patient@example.com")
	if err != nil {
		t.Fatalf("sample patient: %v", err)
	}
	desk, _ := users.Verify(ctx, "frontdesk@clinic.com", "front123")
	if desk == nil || p.CreatedBy != desk.ID {
		t.Errorf("expected sample patient created by front desk")
	}
}

func TestSeeder_Run_KeepsExistingPatient(t *testing.T) {
	s, users, patients := newSeeder()
	ctx := context.Background()
	if err := patients.Create(ctx, &patient.Patient{
		Name: "John Doe", Email: "patient@example.com", Status: patient.StatusRegistered,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	all, _ := patients.List(ctx)
	if len(all) != 1 || all[0].Code == "P12345678" {
		t.Errorf("expected the existing record only, got %+v", all)
	}
	if ok, _ := users.HasSuperAdmin(ctx); !ok {
		t.Error("expected super admin to be created")
	}
}
