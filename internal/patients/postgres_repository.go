package patients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores patients in the relational database.
type PostgresRepository struct {
	db queryer
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting mocks for tests.
func NewPostgresRepositoryWithDB(db queryer) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new patient row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	addr, err := json.Marshal(req.Address)
	if err != nil {
		return nil, fmt.Errorf("patients: encode address: %w", err)
	}

	query := `
		INSERT INTO patients (id, name, email, phone, dob, gender, image, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.Name,
		req.Email,
		req.Phone,
		req.DOB,
		req.Gender,
		req.Image,
		addr,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("patients: insert failed: %w", err)
	}

	return &Patient{
		ID:        id.String(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		DOB:       req.DOB,
		Gender:    req.Gender,
		Image:     req.Image,
		Address:   req.Address,
		CreatedAt: createdAt,
	}, nil
}

// GetByID fetches a patient by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	query := `
		SELECT id, name, email, phone, dob, gender, image, address, created_at
		FROM patients
		WHERE id = $1
	`
	row := r.db.QueryRow(ctx, query, id)
	var p Patient
	var addr []byte
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.DOB,
		&p.Gender,
		&p.Image,
		&addr,
		&p.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: select failed: %w", err)
	}
	if len(addr) > 0 {
		if err := json.Unmarshal(addr, &p.Address); err != nil {
			return nil, fmt.Errorf("patients: decode address: %w", err)
		}
	}
	return &p, nil
}

// Update replaces a patient's profile fields.
func (r *PostgresRepository) Update(ctx context.Context, p *Patient) error {
	addr, err := json.Marshal(p.Address)
	if err != nil {
		return fmt.Errorf("patients: encode address: %w", err)
	}

	query := `
		UPDATE patients
		SET name = $2, email = $3, phone = $4, dob = $5, gender = $6, image = $7, address = $8
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Email,
		p.Phone,
		p.DOB,
		p.Gender,
		p.Image,
		addr,
	)
	if err != nil {
		return fmt.Errorf("patients: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}
