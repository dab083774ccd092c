package payments

import (
	"context"
	"errors"
)

var (
	// ErrProviderNotConfigured is returned when no checkout provider can
	// serve the request
	ErrProviderNotConfigured = errors.New("payment provider not configured")
)

// CheckoutParams describes the charge for one appointment.
type CheckoutParams struct {
	AppointmentID string
	PatientName   string
	DoctorName    string
	Amount        int64
	Currency      string
	SuccessURL    string
	CancelURL     string
}

// CheckoutResponse carries the provider redirect target.
type CheckoutResponse struct {
	URL        string
	ProviderID string
}

// CheckoutService creates a provider checkout session for an appointment.
type CheckoutService interface {
	CreateCheckout(ctx context.Context, params CheckoutParams) (*CheckoutResponse, error)
}

// AppointmentMarker flips an appointment's payment flag once the provider
// confirmed the charge. Implemented by the appointments service.
type AppointmentMarker interface {
	MarkPaid(ctx context.Context, appointmentID string) error
}

// ProcessedTracker deduplicates webhook deliveries per provider event.
// AlreadyProcessed is a read-only check; MarkProcessed is called only once
// the event's work is done, so failed deliveries stay retryable.
type ProcessedTracker interface {
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}
