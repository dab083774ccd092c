package appointments

import (
	"context"
	"sync"
)

// Repository defines the interface for appointment storage. The booked-slot
// state of a doctor is owned here: it is derived from active (non-cancelled)
// appointments rather than maintained as a second copy, so booking and
// cancellation each touch exactly one record.
type Repository interface {
	// Create persists a new appointment. It fails with ErrSlotTaken when an
	// active appointment already holds the same (doctor, slotDate, slotTime);
	// the check-and-insert is a single atomic operation.
	Create(ctx context.Context, appt *Appointment) error

	GetByID(ctx context.Context, id string) (*Appointment, error)

	// MarkCancelled sets cancelled=true exactly once, implicitly freeing the
	// slot for re-booking.
	MarkCancelled(ctx context.Context, id string) error

	// MarkCompleted sets isCompleted=true.
	MarkCompleted(ctx context.Context, id string) error

	// MarkPaid sets payment=true; it fails with ErrAlreadyCancelled for
	// cancelled appointments.
	MarkPaid(ctx context.Context, id string) error

	ListByPatient(ctx context.Context, userID string) ([]*Appointment, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]*Appointment, error)

	// SlotsBooked derives the doctor's booked map: slot-date key to the
	// ordered list of booked time strings. Days without active bookings are
	// absent from the map.
	SlotsBooked(ctx context.Context, doctorID string) (map[string][]string, error)
}

// InMemoryRepository is an in-memory implementation of Repository used in
// development and tests. The mutex makes the collision check and insert a
// single critical section.
type InMemoryRepository struct {
	mu    sync.RWMutex
	appts map[string]*Appointment
	order []string
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		appts: make(map[string]*Appointment),
	}
}

// Create persists an appointment, rejecting active-slot collisions.
func (r *InMemoryRepository) Create(ctx context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		existing := r.appts[id]
		if existing.Cancelled {
			continue
		}
		if existing.DoctorID == appt.DoctorID &&
			existing.SlotDate == appt.SlotDate &&
			existing.SlotTime == appt.SlotTime {
			return ErrSlotTaken
		}
	}

	copied := *appt
	r.appts[appt.ID] = &copied
	r.order = append(r.order, appt.ID)
	return nil
}

// GetByID retrieves an appointment by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	copied := *appt
	return &copied, nil
}

// MarkCancelled flips cancelled exactly once.
func (r *InMemoryRepository) MarkCancelled(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appts[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	if appt.Cancelled {
		return ErrAlreadyCancelled
	}
	appt.Cancelled = true
	return nil
}

// MarkCompleted flips isCompleted.
func (r *InMemoryRepository) MarkCompleted(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appts[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	appt.IsCompleted = true
	return nil
}

// MarkPaid flips payment unless the appointment was cancelled.
func (r *InMemoryRepository) MarkPaid(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appts[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	if appt.Cancelled {
		return ErrAlreadyCancelled
	}
	appt.Payment = true
	return nil
}

// ListByPatient returns the patient's appointments in booking order.
func (r *InMemoryRepository) ListByPatient(ctx context.Context, userID string) ([]*Appointment, error) {
	return r.list(func(a *Appointment) bool { return a.UserID == userID })
}

// ListByDoctor returns the doctor's appointments in booking order.
func (r *InMemoryRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*Appointment, error) {
	return r.list(func(a *Appointment) bool { return a.DoctorID == doctorID })
}

func (r *InMemoryRepository) list(match func(*Appointment) bool) ([]*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Appointment
	for _, id := range r.order {
		if match(r.appts[id]) {
			copied := *r.appts[id]
			out = append(out, &copied)
		}
	}
	return out, nil
}

// SlotsBooked derives the booked map from active appointments.
func (r *InMemoryRepository) SlotsBooked(ctx context.Context, doctorID string) (map[string][]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	booked := make(map[string][]string)
	for _, id := range r.order {
		appt := r.appts[id]
		if appt.Cancelled || appt.DoctorID != doctorID {
			continue
		}
		booked[appt.SlotDate] = append(booked[appt.SlotDate], appt.SlotTime)
	}
	return booked, nil
}
