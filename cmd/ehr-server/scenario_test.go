package main

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/google/uuid"

	"github.com/ehr/clinic/internal/domain/clinical"
	"github.com/ehr/clinic/internal/domain/identity"
	"github.com/ehr/clinic/internal/domain/patient"
	"github.com/ehr/clinic/internal/domain/scheduling"
	"github.com/ehr/clinic/internal/platform/auth"
	"github.com/ehr/clinic/internal/platform/httperr"
)

var patientCode = regexp.MustCompile(`^P[0-9A-F]{8}$`)

type account struct {
	id    uuid.UUID
	token string
}

func (c client) signUp(email, password, name string, role auth.Role) account {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/register", "", identity.RegisterRequest{
		Email: email, Password: password, Name: name, Role: string(role),
	})
	expect(c.t, rec, http.StatusOK)
	reg := decode[identity.RegisterResponse](c.t, rec)
	if reg.Message != "User registered successfully" {
		c.t.Fatalf("unexpected register response %+v", reg)
	}

	rec = c.do(http.MethodPost, "/api/login", "", identity.LoginRequest{Email: email, Password: password})
	expect(c.t, rec, http.StatusOK)
	login := decode[identity.LoginResponse](c.t, rec)
	if login.TokenType != "bearer" || login.AccessToken == "" {
		c.t.Fatalf("unexpected login response %+v", login)
	}
	if login.User.ID != reg.UserID || login.User.Role != role {
		c.t.Fatalf("login returned %+v, want id %s role %s", login.User, reg.UserID, role)
	}
	return account{id: reg.UserID, token: login.AccessToken}
}

func (c client) createPatient(token, name, email string) *patient.Patient {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/patients", token, patient.CreateRequest{Name: name, Email: email, Gender: "Female"})
	expect(c.t, rec, http.StatusOK)
	p := decode[patient.Patient](c.t, rec)
	return &p
}

func (c client) getPatient(token string, id uuid.UUID) *patient.Patient {
	c.t.Helper()
	rec := c.do(http.MethodGet, "/api/patients/"+id.String(), token, nil)
	expect(c.t, rec, http.StatusOK)
	p := decode[patient.Patient](c.t, rec)
	return &p
}

func TestScenario_ClinicVisit(t *testing.T) {
	c := client{t, newTestRouter(t)}

	admin := c.signUp("admin@clinic.com", "admin123", "Super Admin", auth.RoleSuperAdmin)
	desk := c.signUp("frontdesk@clinic.com", "front123", "Front Desk", auth.RoleFrontDesk)
	doctor := c.signUp("doctor@clinic.com", "doctor123", "Dr. Smith", auth.RoleDoctor)
	john := c.signUp("john@example.com", "patient123", "John Doe", auth.RolePatient)

	t.Run("identity", func(t *testing.T) {
		rec := c.do(http.MethodPost, "/api/register", "", identity.RegisterRequest{
			Email: "doctor@clinic.com", Password: "other", Name: "Impostor", Role: "doctor",
		})
		expectError(t, rec, http.StatusBadRequest, httperr.CodeConflict)

		// Login matches the stored email exactly.
		rec = c.do(http.MethodPost, "/api/login", "", identity.LoginRequest{Email: "Doctor@Clinic.com", Password: "doctor123"})
		expectError(t, rec, http.StatusUnauthorized, httperr.CodeUnauthenticated)

		rec = c.do(http.MethodPost, "/api/login", "", identity.LoginRequest{Email: "doctor@clinic.com", Password: "wrong"})
		expectError(t, rec, http.StatusUnauthorized, httperr.CodeUnauthenticated)
		rec = c.do(http.MethodPost, "/api/login", "", identity.LoginRequest{Email: "nobody@clinic.com", Password: "doctor123"})
		expectError(t, rec, http.StatusUnauthorized, httperr.CodeUnauthenticated)

		rec = c.do(http.MethodGet, "/api/me", doctor.token, nil)
		expect(t, rec, http.StatusOK)
		if me := decode[identity.User](t, rec); me.ID != doctor.id || me.Role != auth.RoleDoctor {
			t.Errorf("unexpected /me %+v", me)
		}

		expectError(t, c.do(http.MethodGet, "/api/users", doctor.token, nil), http.StatusForbidden, httperr.CodeForbidden)
		rec = c.do(http.MethodGet, "/api/users", admin.token, nil)
		expect(t, rec, http.StatusOK)
		if users := decode[[]identity.User](t, rec); len(users) != 4 {
			t.Errorf("expected 4 users, got %d", len(users))
		}

		rec = c.do(http.MethodGet, "/api/doctors", john.token, nil)
		expect(t, rec, http.StatusOK)
		if docs := decode[[]identity.User](t, rec); len(docs) != 1 || docs[0].ID != doctor.id {
			t.Errorf("unexpected doctors %+v", docs)
		}
	})

	for _, tok := range []string{doctor.token, john.token} {
		rec := c.do(http.MethodPost, "/api/patients", tok, patient.CreateRequest{Name: "X", Email: "x@example.com"})
		expectError(t, rec, http.StatusForbidden, httperr.CodeForbidden)
	}

	p := c.createPatient(desk.token, "John Doe", "john@example.com")
	if p.Status != patient.StatusRegistered || !patientCode.MatchString(p.Code) || p.CreatedBy != desk.id {
		t.Fatalf("unexpected new patient %+v", p)
	}
	mary := c.createPatient(admin.token, "Mary Major", "mary@example.com")
	c.createPatient(desk.token, "Bob Roe", "bob@example.com")

	rec := c.do(http.MethodPut, "/api/patients/"+p.ID.String()+"/status?status=consulting&assigned_doctor_id="+doctor.id.String(), desk.token, nil)
	expect(t, rec, http.StatusOK)

	rec = c.do(http.MethodGet, "/api/dashboard/stats", admin.token, nil)
	expect(t, rec, http.StatusOK)
	if got := decode[patient.Counts](t, rec); got != (patient.Counts{Total: 3, Registered: 2, Consulting: 1}) {
		t.Errorf("unexpected admin stats %+v", got)
	}

	rec = c.do(http.MethodPost, "/api/soap-notes", doctor.token, clinical.CreateRequest{
		PatientID:  p.ID.String(),
		Subjective: "Headache for two days",
		Objective:  "BP 130/85",
		Assessment: "Tension headache",
		Plan:       "Rest and fluids",
	})
	expect(t, rec, http.StatusOK)
	if note := decode[clinical.Note](t, rec); note.DoctorID != doctor.id || note.PatientID != p.ID {
		t.Errorf("unexpected note %+v", note)
	}

	got := c.getPatient(desk.token, p.ID)
	if got.Status != patient.StatusCompleted {
		t.Errorf("expected completed after note, got %s", got.Status)
	}
	if got.AssignedDoctorID == nil || *got.AssignedDoctorID != doctor.id {
		t.Errorf("expected assignment to doctor %s, got %v", doctor.id, got.AssignedDoctorID)
	}

	rec = c.do(http.MethodGet, "/api/soap-notes/"+p.ID.String(), doctor.token, nil)
	expect(t, rec, http.StatusOK)
	if notes := decode[[]clinical.Note](t, rec); len(notes) != 1 || notes[0].DoctorID != doctor.id {
		t.Errorf("expected one note by the doctor, got %+v", notes)
	}

	t.Run("patient scoping", func(t *testing.T) {
		rec := c.do(http.MethodGet, "/api/patients", john.token, nil)
		expect(t, rec, http.StatusOK)
		own := decode[[]patient.Patient](t, rec)
		if len(own) != 1 || own[0].Email != "john@example.com" {
			t.Fatalf("expected only own record, got %+v", own)
		}
		if c.getPatient(john.token, p.ID).ID != p.ID {
			t.Error("expected own record by id")
		}
		expectError(t, c.do(http.MethodGet, "/api/patients/"+mary.ID.String(), john.token, nil), http.StatusForbidden, httperr.CodeForbidden)

		expect(t, c.do(http.MethodGet, "/api/soap-notes/"+p.ID.String(), john.token, nil), http.StatusOK)
		expectError(t, c.do(http.MethodGet, "/api/soap-notes/"+mary.ID.String(), john.token, nil), http.StatusForbidden, httperr.CodeForbidden)

		rec = c.do(http.MethodGet, "/api/dashboard/stats", john.token, nil)
		expect(t, rec, http.StatusOK)
		if body := decode[map[string]any](t, rec); len(body) != 0 {
			t.Errorf("expected empty stats for patient, got %v", body)
		}
	})

	t.Run("status errors", func(t *testing.T) {
		missing := uuid.NewString()
		for _, tok := range []string{admin.token, desk.token, doctor.token} {
			rec := c.do(http.MethodPut, "/api/patients/"+missing+"/status?status=consulting", tok, nil)
			expectError(t, rec, http.StatusNotFound, httperr.CodeNotFound)
		}
		rec := c.do(http.MethodPut, "/api/patients/"+p.ID.String()+"/status?status=discharged", desk.token, nil)
		expectError(t, rec, http.StatusBadRequest, httperr.CodeValidation)
		rec = c.do(http.MethodPut, "/api/patients/"+p.ID.String()+"/status", john.token,
			patient.UpdateStatusRequest{Status: "registered"})
		expectError(t, rec, http.StatusForbidden, httperr.CodeForbidden)

		// completed records can be reopened in lenient mode
		rec = c.do(http.MethodPut, "/api/patients/"+p.ID.String()+"/status", desk.token,
			patient.UpdateStatusRequest{Status: "registered"})
		expect(t, rec, http.StatusOK)
		if st := c.getPatient(desk.token, p.ID).Status; st != patient.StatusRegistered {
			t.Errorf("expected registered, got %s", st)
		}
	})

	t.Run("appointments", func(t *testing.T) {
		when := "2026-11-02T10:30:00Z"
		rec := c.do(http.MethodPost, "/api/appointments", john.token, map[string]string{
			"patient_id": p.ID.String(), "doctor_id": doctor.id.String(), "appointment_date": when, "notes": "follow-up",
		})
		expect(t, rec, http.StatusOK)
		appt := decode[scheduling.Appointment](t, rec)
		if appt.Status != scheduling.StatusScheduled || appt.DoctorID != doctor.id {
			t.Errorf("unexpected appointment %+v", appt)
		}

		rec = c.do(http.MethodPost, "/api/appointments", john.token, map[string]string{
			"patient_id": mary.ID.String(), "doctor_id": doctor.id.String(), "appointment_date": when,
		})
		expectError(t, rec, http.StatusForbidden, httperr.CodeForbidden)

		rec = c.do(http.MethodPost, "/api/appointments", desk.token, map[string]string{
			"patient_id": mary.ID.String(), "doctor_id": desk.id.String(), "appointment_date": when,
		})
		expectError(t, rec, http.StatusNotFound, httperr.CodeNotFound)

		for _, tc := range []struct {
			name  string
			token string
			want  int
		}{
			{"doctor", doctor.token, 1},
			{"patient", john.token, 1},
			{"front desk", desk.token, 1},
		} {
			rec := c.do(http.MethodGet, "/api/appointments", tc.token, nil)
			expect(t, rec, http.StatusOK)
			if n := len(decode[[]scheduling.Appointment](t, rec)); n != tc.want {
				t.Errorf("%s: expected %d appointments, got %d", tc.name, tc.want, n)
			}
		}
	})

	t.Run("doctor dashboard", func(t *testing.T) {
		rec := c.do(http.MethodGet, "/api/dashboard/stats", doctor.token, nil)
		expect(t, rec, http.StatusOK)
		if got := decode[patient.DoctorCounts](t, rec); got != (patient.DoctorCounts{Assigned: 1}) {
			t.Errorf("unexpected doctor stats %+v", got)
		}
	})

	t.Run("deactivation revokes sessions", func(t *testing.T) {
		rec := c.do(http.MethodPut, "/api/users/"+doctor.id.String()+"/active", desk.token, map[string]bool{"active": false})
		expectError(t, rec, http.StatusForbidden, httperr.CodeForbidden)

		rec = c.do(http.MethodPut, "/api/users/"+doctor.id.String()+"/active", admin.token, map[string]bool{"active": false})
		expect(t, rec, http.StatusOK)

		expectError(t, c.do(http.MethodGet, "/api/me", doctor.token, nil), http.StatusUnauthorized, httperr.CodeUnauthenticated)
		rec = c.do(http.MethodPost, "/api/login", "", identity.LoginRequest{Email: "doctor@clinic.com", Password: "doctor123"})
		expectError(t, rec, http.StatusUnauthorized, httperr.CodeUnauthenticated)

		rec = c.do(http.MethodPut, "/api/patients/"+mary.ID.String()+"/status?status=consulting&assigned_doctor_id="+doctor.id.String(), desk.token, nil)
		expectError(t, rec, http.StatusBadRequest, httperr.CodeValidation)
	})
}
