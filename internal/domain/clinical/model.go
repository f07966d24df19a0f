package clinical

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("invalid input")

// Note is a SOAP consultation record. Notes are append-only.
type Note struct {
	ID               uuid.UUID `db:"id" json:"id"`
	PatientID        uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID         uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Subjective       string    `db:"subjective" json:"subjective"`
	Objective        string    `db:"objective" json:"objective"`
	Assessment       string    `db:"assessment" json:"assessment"`
	Plan             string    `db:"plan" json:"plan"`
	ConsultationDate time.Time `db:"consultation_date" json:"consultation_date"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

type CreateRequest struct {
	PatientID  string `json:"patient_id"`
	Subjective string `json:"subjective"`
	Objective  string `json:"objective"`
	Assessment string `json:"assessment"`
	Plan       string `json:"plan"`
}
