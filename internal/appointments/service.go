package appointments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/doctors"
	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/identity"
	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/observability/metrics"
	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/patients"
	"github.com/chnmndlai/prescripto-full-stack-sub000/pkg/logging"
)

var bookingTracer = otel.Tracer("prescripto.internal.appointments")

// Notifier is told about lifecycle events; delivery is best-effort and
// never blocks the operation outcome.
type Notifier interface {
	AppointmentBooked(ctx context.Context, appt *Appointment) error
	AppointmentCancelled(ctx context.Context, appt *Appointment) error
}

// Service implements booking, cancellation, completion and payment
// verification over the appointment store.
type Service struct {
	doctors  doctors.Repository
	patients patients.Repository
	repo     Repository
	cache    *SlotCache
	notifier Notifier
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
}

// NewService constructs an appointments service. Cache, notifier and
// metrics are optional.
func NewService(doctorRepo doctors.Repository, patientRepo patients.Repository, repo Repository, logger *logging.Logger) *Service {
	if doctorRepo == nil {
		panic("appointments: doctor repository required")
	}
	if patientRepo == nil {
		panic("appointments: patient repository required")
	}
	if repo == nil {
		panic("appointments: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		doctors:  doctorRepo,
		patients: patientRepo,
		repo:     repo,
		logger:   logger,
	}
}

// WithSlotCache attaches a Redis slot cache.
func (s *Service) WithSlotCache(cache *SlotCache) *Service {
	s.cache = cache
	return s
}

// WithNotifier attaches a lifecycle notifier.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// WithMetrics attaches booking metrics.
func (s *Service) WithMetrics(m *metrics.BookingMetrics) *Service {
	s.metrics = m
	return s
}

// Book reserves a slot with a doctor for a patient. The slot collision is
// decided by the store's atomic check-and-insert, so concurrent identical
// bookings yield exactly one success and one ErrSlotTaken.
func (s *Service) Book(ctx context.Context, userID, doctorID, slotDate, slotTime string) (*Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "appointments.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("prescripto.doctor_id", doctorID),
		attribute.String("prescripto.slot_date", slotDate),
	)

	start := time.Now()
	appt, err := s.book(ctx, userID, doctorID, slotDate, slotTime)
	s.metrics.ObserveBooking(bookingStatus(err), time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"doctor_id", doctorID,
		"slot_date", slotDate,
		"slot_time", slotTime,
	)
	if s.notifier != nil {
		if err := s.notifier.AppointmentBooked(ctx, appt); err != nil {
			s.logger.Warn("booking notification failed", "error", err, "appointment_id", appt.ID)
		}
	}
	return appt, nil
}

func (s *Service) book(ctx context.Context, userID, doctorID, slotDate, slotTime string) (*Appointment, error) {
	if !ValidSlotDate(slotDate) || slotTime == "" {
		return nil, ErrInvalidSlot
	}

	doc, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, doctors.ErrDoctorNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	if !doc.Available {
		return nil, ErrDoctorUnavailable
	}

	pat, err := s.patients.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, patients.ErrPatientNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	appt := &Appointment{
		ID:        uuid.New().String(),
		UserID:    pat.ID,
		DoctorID:  doc.ID,
		SlotDate:  slotDate,
		SlotTime:  slotTime,
		Patient:   snapshotPatient(pat),
		Doctor:    snapshotDoctor(doc),
		Amount:    doc.Fees,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, doctorID); err != nil {
		s.logger.Warn("slot cache invalidation failed", "error", err, "doctor_id", doctorID)
	}
	return appt, nil
}

// Cancel marks an appointment cancelled on behalf of the owning patient or
// doctor (admins may cancel anything). The payment flag is deliberately
// left untouched: cancellation is not a refund.
func (s *Service) Cancel(ctx context.Context, requester identity.Identity, appointmentID string) error {
	ctx, span := bookingTracer.Start(ctx, "appointments.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("prescripto.appointment_id", appointmentID))

	appt, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		s.metrics.ObserveCancellation("not_found")
		return err
	}
	if !ownsAppointment(requester, appt) {
		s.metrics.ObserveCancellation("forbidden")
		return ErrForbidden
	}

	if err := s.repo.MarkCancelled(ctx, appointmentID); err != nil {
		span.RecordError(err)
		s.metrics.ObserveCancellation("conflict")
		return err
	}
	s.metrics.ObserveCancellation("ok")

	if err := s.cache.Invalidate(ctx, appt.DoctorID); err != nil {
		s.logger.Warn("slot cache invalidation failed", "error", err, "doctor_id", appt.DoctorID)
	}

	s.logger.Info("appointment cancelled",
		"appointment_id", appointmentID,
		"requester_id", requester.ID,
		"requester_role", requester.Role,
	)
	if s.notifier != nil {
		appt.Cancelled = true
		if err := s.notifier.AppointmentCancelled(ctx, appt); err != nil {
			s.logger.Warn("cancellation notification failed", "error", err, "appointment_id", appointmentID)
		}
	}
	return nil
}

// Complete marks an appointment completed by its owning doctor.
func (s *Service) Complete(ctx context.Context, doctorID, appointmentID string) error {
	appt, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if appt.DoctorID != doctorID {
		return ErrForbidden
	}
	if err := s.repo.MarkCompleted(ctx, appointmentID); err != nil {
		return err
	}
	s.logger.Info("appointment completed", "appointment_id", appointmentID, "doctor_id", doctorID)
	return nil
}

// MarkPaid flips the payment flag after the payment bridge verified the
// charge. Cancelled appointments reject the flip.
func (s *Service) MarkPaid(ctx context.Context, appointmentID string) error {
	if err := s.repo.MarkPaid(ctx, appointmentID); err != nil {
		return err
	}
	s.logger.Info("appointment payment verified", "appointment_id", appointmentID)
	return nil
}

// GetByID loads a single appointment.
func (s *Service) GetByID(ctx context.Context, appointmentID string) (*Appointment, error) {
	return s.repo.GetByID(ctx, appointmentID)
}

// ListForPatient returns the patient's appointments.
func (s *Service) ListForPatient(ctx context.Context, userID string) ([]*Appointment, error) {
	return s.repo.ListByPatient(ctx, userID)
}

// ListForDoctor returns the doctor's appointments.
func (s *Service) ListForDoctor(ctx context.Context, doctorID string) ([]*Appointment, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

// SlotsBooked returns the doctor's derived booked map, served from cache
// when fresh.
func (s *Service) SlotsBooked(ctx context.Context, doctorID string) (map[string][]string, error) {
	if booked, ok, err := s.cache.Get(ctx, doctorID); err != nil {
		s.logger.Warn("slot cache read failed", "error", err, "doctor_id", doctorID)
	} else if ok {
		return booked, nil
	}

	booked, err := s.repo.SlotsBooked(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, doctorID, booked); err != nil {
		s.logger.Warn("slot cache write failed", "error", err, "doctor_id", doctorID)
	}
	return booked, nil
}

func ownsAppointment(requester identity.Identity, appt *Appointment) bool {
	switch requester.Role {
	case identity.RolePatient:
		return appt.UserID == requester.ID
	case identity.RoleDoctor:
		return appt.DoctorID == requester.ID
	case identity.RoleAdmin:
		return true
	}
	return false
}

func bookingStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSlotTaken):
		return "slot_conflict"
	case errors.Is(err, ErrDoctorUnavailable):
		return "unavailable"
	case errors.Is(err, ErrDoctorNotFound), errors.Is(err, ErrPatientNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidSlot):
		return "invalid"
	}
	return "error"
}
