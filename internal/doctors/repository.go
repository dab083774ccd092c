package doctors

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for doctor storage
type Repository interface {
	Create(ctx context.Context, req *CreateDoctorRequest) (*Doctor, error)
	GetByID(ctx context.Context, id string) (*Doctor, error)
	List(ctx context.Context) ([]*Doctor, error)
	SetAvailability(ctx context.Context, id string, available bool) (*Doctor, error)
}

// InMemoryRepository is an in-memory implementation of Repository used in
// development and tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	doctors map[string]*Doctor
	order   []string
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		doctors: make(map[string]*Doctor),
	}
}

// Create registers a new doctor. New doctors accept bookings by default.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateDoctorRequest) (*Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	doc := &Doctor{
		ID:         uuid.New().String(),
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
		CreatedAt:  time.Now().UTC(),
	}

	r.mu.Lock()
	r.doctors[doc.ID] = doc
	r.order = append(r.order, doc.ID)
	r.mu.Unlock()

	return doc, nil
}

// GetByID retrieves a doctor by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}

	copied := *doc
	return &copied, nil
}

// List returns all doctors in registration order.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Doctor, 0, len(r.order))
	for _, id := range r.order {
		copied := *r.doctors[id]
		out = append(out, &copied)
	}
	return out, nil
}

// SetAvailability flips the available flag on a doctor.
func (r *InMemoryRepository) SetAvailability(ctx context.Context, id string, available bool) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	doc.Available = available

	copied := *doc
	return &copied, nil
}
