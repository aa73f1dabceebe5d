package appointment

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists ledger entries in PostgreSQL. The in-memory Ledger is the
// read surface; the store hydrates it at startup and receives write-throughs.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// LoadAll reads the full ledger in insertion order.
func (s *Store) LoadAll(ctx context.Context) ([]Appointment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, patient_id, date, is_done, treatment_type,
		       paid_amount, outstanding_amount, overpaid_amount
		FROM appointments
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	entries := []Appointment{}
	for rows.Next() {
		var (
			a             Appointment
			treatmentType *string
		)
		if err := rows.Scan(
			&a.ID,
			&a.PatientID,
			&a.Date,
			&a.IsDone,
			&treatmentType,
			&a.PaidAmount,
			&a.OutstandingAmount,
			&a.OverpaidAmount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan appointment row: %w", err)
		}
		if treatmentType != nil {
			a.Treatment = &Treatment{Type: *treatmentType}
		}
		entries = append(entries, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over appointment rows: %w", err)
	}

	return entries, nil
}

// Save upserts a ledger entry.
func (s *Store) Save(ctx context.Context, a Appointment) error {
	var treatmentType *string
	if a.Treatment != nil {
		treatmentType = &a.Treatment.Type
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO appointments
			(id, patient_id, date, is_done, treatment_type,
			 paid_amount, outstanding_amount, overpaid_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			patient_id = $2, date = $3, is_done = $4, treatment_type = $5,
			paid_amount = $6, outstanding_amount = $7, overpaid_amount = $8`,
		a.ID, a.PatientID, a.Date, a.IsDone, treatmentType,
		a.PaidAmount, a.OutstandingAmount, a.OverpaidAmount)
	if err != nil {
		return fmt.Errorf("failed to save appointment: %w", err)
	}
	return nil
}

// Delete removes a ledger entry. Deleting an absent id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM appointments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return nil
}
