package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// activeSlotConstraint is the partial unique index on
// (doctor_id, slot_date, slot_time) WHERE NOT cancelled. It is what makes
// the collision check and the insert a single indivisible operation: two
// concurrent bookings for the same slot cannot both commit.
const activeSlotConstraint = "appointments_active_slot_idx"

type queryer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	db queryer
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting mocks for tests.
func NewPostgresRepositoryWithDB(db queryer) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an appointment row. A unique violation on the active-slot
// index is surfaced as ErrSlotTaken.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) error {
	patientSnap, err := json.Marshal(appt.Patient)
	if err != nil {
		return fmt.Errorf("appointments: encode patient snapshot: %w", err)
	}
	doctorSnap, err := json.Marshal(appt.Doctor)
	if err != nil {
		return fmt.Errorf("appointments: encode doctor snapshot: %w", err)
	}

	query := `
		INSERT INTO appointments (id, user_id, doctor_id, slot_date, slot_time, patient_snapshot, doctor_snapshot, amount, cancelled, is_completed, payment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, FALSE, FALSE, $9)
	`
	if _, err := r.db.Exec(ctx, query,
		appt.ID,
		appt.UserID,
		appt.DoctorID,
		appt.SlotDate,
		appt.SlotTime,
		patientSnap,
		doctorSnap,
		appt.Amount,
		appt.CreatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == activeSlotConstraint {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointments: insert failed: %w", err)
	}
	return nil
}

const appointmentColumns = `id, user_id, doctor_id, slot_date, slot_time, patient_snapshot, doctor_snapshot, amount, cancelled, is_completed, payment, created_at`

// GetByID fetches an appointment by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return appt, nil
}

// MarkCancelled flips cancelled exactly once. The WHERE guard makes repeat
// cancellation a no-op at the storage level; the follow-up lookup tells
// not-found apart from already-cancelled.
func (r *PostgresRepository) MarkCancelled(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE appointments SET cancelled = TRUE WHERE id = $1 AND NOT cancelled`, id)
	if err != nil {
		return fmt.Errorf("appointments: cancel failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var cancelled bool
		if err := r.db.QueryRow(ctx, `SELECT cancelled FROM appointments WHERE id = $1`, id).Scan(&cancelled); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAppointmentNotFound
			}
			return fmt.Errorf("appointments: cancel lookup failed: %w", err)
		}
		return ErrAlreadyCancelled
	}
	return nil
}

// MarkCompleted flips isCompleted.
func (r *PostgresRepository) MarkCompleted(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE appointments SET is_completed = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: complete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// MarkPaid flips payment for a non-cancelled appointment.
func (r *PostgresRepository) MarkPaid(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE appointments SET payment = TRUE WHERE id = $1 AND NOT cancelled`, id)
	if err != nil {
		return fmt.Errorf("appointments: mark paid failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var cancelled bool
		if err := r.db.QueryRow(ctx, `SELECT cancelled FROM appointments WHERE id = $1`, id).Scan(&cancelled); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAppointmentNotFound
			}
			return fmt.Errorf("appointments: mark paid lookup failed: %w", err)
		}
		return ErrAlreadyCancelled
	}
	return nil
}

// ListByPatient returns the patient's appointments in booking order.
func (r *PostgresRepository) ListByPatient(ctx context.Context, userID string) ([]*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE user_id = $1 ORDER BY created_at`
	return r.listBy(ctx, query, userID)
}

// ListByDoctor returns the doctor's appointments in booking order.
func (r *PostgresRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE doctor_id = $1 ORDER BY created_at`
	return r.listBy(ctx, query, doctorID)
}

func (r *PostgresRepository) listBy(ctx context.Context, query, arg string) ([]*Appointment, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list rows: %w", err)
	}
	return out, nil
}

// SlotsBooked derives the booked map from active appointments in booking
// order.
func (r *PostgresRepository) SlotsBooked(ctx context.Context, doctorID string) (map[string][]string, error) {
	query := `
		SELECT slot_date, slot_time
		FROM appointments
		WHERE doctor_id = $1 AND NOT cancelled
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("appointments: slots query failed: %w", err)
	}
	defer rows.Close()

	booked := make(map[string][]string)
	for rows.Next() {
		var date, slot string
		if err := rows.Scan(&date, &slot); err != nil {
			return nil, fmt.Errorf("appointments: slots scan failed: %w", err)
		}
		booked[date] = append(booked[date], slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: slots rows: %w", err)
	}
	return booked, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var appt Appointment
	var patientSnap, doctorSnap []byte
	if err := row.Scan(
		&appt.ID,
		&appt.UserID,
		&appt.DoctorID,
		&appt.SlotDate,
		&appt.SlotTime,
		&patientSnap,
		&doctorSnap,
		&appt.Amount,
		&appt.Cancelled,
		&appt.IsCompleted,
		&appt.Payment,
		&appt.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(patientSnap) > 0 {
		if err := json.Unmarshal(patientSnap, &appt.Patient); err != nil {
			return nil, fmt.Errorf("decode patient snapshot: %w", err)
		}
	}
	if len(doctorSnap) > 0 {
		if err := json.Unmarshal(doctorSnap, &appt.Doctor); err != nil {
			return nil, fmt.Errorf("decode doctor snapshot: %w", err)
		}
	}
	return &appt, nil
}
