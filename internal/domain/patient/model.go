package patient

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("patient not found")
	ErrForbidden         = errors.New("not authorized for this patient")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidDoctor     = errors.New("assigned doctor must be an active doctor")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrCodeExhausted     = errors.New("could not allocate a unique patient code")
)

// Status is the consultation state of a patient.
type Status string

const (
	StatusRegistered Status = "registered"
	StatusConsulting Status = "consulting"
	StatusCompleted  Status = "completed"
)

var AllStatuses = []Status{StatusRegistered, StatusConsulting, StatusCompleted}

func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, s)
}

// Patient maps to the patients table. Code is the human-facing identifier
// ("P" + 8 upper-case hex characters) and is serialised as patient_id.
type Patient struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	Code             string     `db:"patient_code" json:"patient_id"`
	Name             string     `db:"name" json:"name"`
	Email            string     `db:"email" json:"email"`
	Phone            string     `db:"phone" json:"phone"`
	DateOfBirth      string     `db:"date_of_birth" json:"date_of_birth"`
	Gender           string     `db:"gender" json:"gender"`
	Address          string     `db:"address" json:"address"`
	EmergencyContact string     `db:"emergency_contact" json:"emergency_contact"`
	MedicalHistory   string     `db:"medical_history" json:"medical_history"`
	Status           Status     `db:"status" json:"status"`
	AssignedDoctorID *uuid.UUID `db:"assigned_doctor_id" json:"assigned_doctor_id"`
	CreatedBy        uuid.UUID  `db:"created_by" json:"created_by"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

type CreateRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	DateOfBirth      string `json:"date_of_birth"`
	Gender           string `json:"gender"`
	Address          string `json:"address"`
	EmergencyContact string `json:"emergency_contact"`
	MedicalHistory   string `json:"medical_history"`
}

// UpdateStatusRequest is accepted either as a JSON body or as query
// parameters.
type UpdateStatusRequest struct {
	Status           string `json:"status"`
	AssignedDoctorID string `json:"assigned_doctor_id"`
}

// Counts are the clinic-wide status totals.
type Counts struct {
	Total      int `json:"total_patients"`
	Registered int `json:"registered_patients"`
	Consulting int `json:"consulting_patients"`
	Completed  int `json:"completed_patients"`
}

// DoctorCounts are the totals for patients assigned to one doctor.
type DoctorCounts struct {
	Assigned   int `json:"assigned_patients"`
	Consulting int `json:"consulting_patients"`
}
