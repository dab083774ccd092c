package doctors

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

// queryer is the subset of pgxpool.Pool the repository needs. pgxmock
// satisfies it in tests.
type queryer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores doctors in the relational database.
type PostgresRepository struct {
	db queryer
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("doctors: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting mocks for tests.
func NewPostgresRepositoryWithDB(db queryer) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new doctor row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateDoctorRequest) (*Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	addr, err := json.Marshal(req.Address)
	if err != nil {
		return nil, fmt.Errorf("doctors: encode address: %w", err)
	}

	query := `
		INSERT INTO doctors (id, name, email, image, speciality, degree, experience, about, available, fees, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9, $10)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.Name,
		req.Email,
		req.Image,
		req.Speciality,
		req.Degree,
		req.Experience,
		req.About,
		req.Fees,
		addr,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("doctors: insert failed: %w", err)
	}

	return &Doctor{
		ID:         id.String(),
		Name:       req.Name,
		Email:      req.Email,
		Image:      req.Image,
		Speciality: req.Speciality,
		Degree:     req.Degree,
		Experience: req.Experience,
		About:      req.About,
		Available:  true,
		Fees:       req.Fees,
		Address:    req.Address,
		CreatedAt:  createdAt,
	}, nil
}

const doctorColumns = `id, name, email, image, speciality, degree, experience, about, available, fees, address, created_at`

// GetByID fetches a doctor by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`
	doc, err := scanDoctor(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("doctors: select failed: %w", err)
	}
	return doc, nil
}

// List returns all doctors ordered by registration time.
func (r *PostgresRepository) List(ctx context.Context) ([]*Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors ORDER BY created_at`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("doctors: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Doctor
	for rows.Next() {
		doc, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("doctors: scan failed: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("doctors: list rows: %w", err)
	}
	return out, nil
}

// SetAvailability flips the available flag.
func (r *PostgresRepository) SetAvailability(ctx context.Context, id string, available bool) (*Doctor, error) {
	query := `UPDATE doctors SET available = $2 WHERE id = $1 RETURNING ` + doctorColumns
	doc, err := scanDoctor(r.db.QueryRow(ctx, query, id, available))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("doctors: update availability: %w", err)
	}
	return doc, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var doc Doctor
	var addr []byte
	if err := row.Scan(
		&doc.ID,
		&doc.Name,
		&doc.Email,
		&doc.Image,
		&doc.Speciality,
		&doc.Degree,
		&doc.Experience,
		&doc.About,
		&doc.Available,
		&doc.Fees,
		&addr,
		&doc.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(addr) > 0 {
		if err := json.Unmarshal(addr, &doc.Address); err != nil {
			return nil, fmt.Errorf("decode address: %w", err)
		}
	}
	return &doc, nil
}
