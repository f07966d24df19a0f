package clinical

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/clinic/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *repoPG) Create(ctx context.Context, n *Note) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO soap_notes (id, patient_id, doctor_id, subjective, objective, assessment, plan, consultation_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		n.ID, n.PatientID, n.DoctorID, n.Subjective, n.Objective, n.Assessment, n.Plan, n.ConsultationDate,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert soap note: %w", err)
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Note, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, doctor_id, subjective, objective, assessment, plan, consultation_date, created_at
		FROM soap_notes
		WHERE patient_id = $1
		ORDER BY seq`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list soap notes: %w", err)
	}
	defer rows.Close()

	notes := []*Note{}
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.PatientID, &n.DoctorID, &n.Subjective, &n.Objective,
			&n.Assessment, &n.Plan, &n.ConsultationDate, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan soap note: %w", err)
		}
		notes = append(notes, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate soap notes: %w", err)
	}
	return notes, nil
}
