package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/clinic/internal/platform/db"
)

const codeAttempts = 3

// generateCode is swapped in tests to force collisions.
var generateCode = func() string {
	return "P" + strings.ToUpper(uuid.NewString()[:8])
}

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientCols = `id, patient_code, name, email, phone, date_of_birth, gender, address,
	emergency_contact, medical_history, status, assigned_doctor_id, created_by, created_at, updated_at`

// Create inserts p, regenerating the patient code on a collision. A preset
// Code is used as-is and not retried.
func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	preset := p.Code != ""
	for attempt := 0; attempt < codeAttempts; attempt++ {
		if !preset {
			p.Code = generateCode()
		}
		err := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO patients (id, patient_code, name, email, phone, date_of_birth, gender, address,
				emergency_contact, medical_history, status, assigned_doctor_id, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING created_at, updated_at`,
			p.ID, p.Code, p.Name, p.Email, p.Phone, p.DateOfBirth, p.Gender, p.Address,
			p.EmergencyContact, p.MedicalHistory, string(p.Status), p.AssignedDoctorID, p.CreatedBy,
		).Scan(&p.CreatedAt, &p.UpdatedAt)
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err, "patients_patient_code_key") {
			return fmt.Errorf("insert patient: %w", err)
		}
		if preset {
			return fmt.Errorf("%w: %s already in use", ErrCodeExhausted, p.Code)
		}
	}
	return ErrCodeExhausted
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

// GetByEmail returns the oldest record carrying email.
func (r *repoPG) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE email = $1 ORDER BY created_at, id LIMIT 1`, email))
}

func (r *repoPG) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()
	patients := []*Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return patients, nil
}

// UpdateStatus sets status and updated_at. A nil assignedDoctorID keeps the
// current assignment.
func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, assignedDoctorID *uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients
		SET status = $2,
		    assigned_doctor_id = COALESCE($3, assigned_doctor_id),
		    updated_at = NOW()
		WHERE id = $1`,
		id, string(status), assignedDoctorID)
	if err != nil {
		return fmt.Errorf("update patient status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) CountByStatus(ctx context.Context) (Counts, error) {
	var c Counts
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'registered'),
		       COUNT(*) FILTER (WHERE status = 'consulting'),
		       COUNT(*) FILTER (WHERE status = 'completed')
		FROM patients`).Scan(&c.Total, &c.Registered, &c.Consulting, &c.Completed)
	if err != nil {
		return Counts{}, fmt.Errorf("count patients: %w", err)
	}
	return c, nil
}

func (r *repoPG) CountForDoctor(ctx context.Context, doctorID uuid.UUID) (DoctorCounts, error) {
	var c DoctorCounts
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'consulting')
		FROM patients
		WHERE assigned_doctor_id = $1`, doctorID).Scan(&c.Assigned, &c.Consulting)
	if err != nil {
		return DoctorCounts{}, fmt.Errorf("count doctor patients: %w", err)
	}
	return c, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var status string
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Email, &p.Phone, &p.DateOfBirth, &p.Gender,
		&p.Address, &p.EmergencyContact, &p.MedicalHistory, &status, &p.AssignedDoctorID,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan patient: %w", err)
	}
	p.Status = Status(status)
	return &p, nil
}
