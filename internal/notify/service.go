package notify

import (
	"context"
	"fmt"

	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/appointments"
	"github.com/chnmndlai/prescripto-full-stack-sub000/pkg/logging"
)

// Service sends booking lifecycle emails to patients. It implements
// appointments.Notifier.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

// AppointmentBooked emails the patient a booking confirmation.
func (s *Service) AppointmentBooked(ctx context.Context, appt *appointments.Appointment) error {
	if s.email == nil || appt.Patient.Email == "" {
		return nil
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nYour appointment with %s is confirmed for %s at %s.\nConsultation fee: %d.\n\nPrescripto",
		appt.Patient.Name,
		appt.Doctor.Name,
		appt.SlotDate,
		appt.SlotTime,
		appt.Amount,
	)
	return s.email.Send(ctx, EmailMessage{
		To:      appt.Patient.Email,
		ToName:  appt.Patient.Name,
		Subject: "Appointment confirmed",
		Body:    body,
	})
}

// AppointmentCancelled emails the patient a cancellation notice.
func (s *Service) AppointmentCancelled(ctx context.Context, appt *appointments.Appointment) error {
	if s.email == nil || appt.Patient.Email == "" {
		return nil
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nYour appointment with %s on %s at %s has been cancelled.\n\nPrescripto",
		appt.Patient.Name,
		appt.Doctor.Name,
		appt.SlotDate,
		appt.SlotTime,
	)
	return s.email.Send(ctx, EmailMessage{
		To:      appt.Patient.Email,
		ToName:  appt.Patient.Name,
		Subject: "Appointment cancelled",
		Body:    body,
	})
}
