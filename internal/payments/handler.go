package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/appointments"
	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/identity"
	"github.com/chnmndlai/prescripto-full-stack-sub000/pkg/logging"
)

// AppointmentLoader reads appointment state for checkout validation.
// Implemented by the appointments service.
type AppointmentLoader interface {
	GetByID(ctx context.Context, appointmentID string) (*appointments.Appointment, error)
}

// CheckoutHandler creates provider checkout sessions for appointments.
type CheckoutHandler struct {
	stripe   CheckoutService
	razorpay CheckoutService
	appts    AppointmentLoader
	currency string
	logger   *logging.Logger
}

// NewCheckoutHandler creates a checkout handler. Either provider may be nil
// when unconfigured.
func NewCheckoutHandler(stripe, razorpay CheckoutService, appts AppointmentLoader, currency string, logger *logging.Logger) *CheckoutHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CheckoutHandler{
		stripe:   stripe,
		razorpay: razorpay,
		appts:    appts,
		currency: currency,
		logger:   logger,
	}
}

// CheckoutRequest selects the payment provider.
type CheckoutRequest struct {
	Provider string `json:"provider"`
}

// CreateCheckout handles POST /payments/{appointmentID}/checkout requests.
func (h *CheckoutHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	apptID := chi.URLParam(r, "appointmentID")
	appt, err := h.appts.GetByID(r.Context(), apptID)
	if err != nil {
		if errors.Is(err, appointments.ErrAppointmentNotFound) {
			writeFailure(w, http.StatusNotFound, "appointment not found")
			return
		}
		h.logger.Error("failed to load appointment", "error", err, "appointment_id", apptID)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	if appt.UserID != id.ID {
		writeFailure(w, http.StatusForbidden, "not authorized for this appointment")
		return
	}
	if appt.Cancelled {
		writeFailure(w, http.StatusConflict, "appointment already cancelled")
		return
	}
	if appt.Payment {
		writeFailure(w, http.StatusConflict, "appointment already paid")
		return
	}

	svc, err := h.provider(req.Provider)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := svc.CreateCheckout(r.Context(), CheckoutParams{
		AppointmentID: appt.ID,
		PatientName:   appt.Patient.Name,
		DoctorName:    appt.Doctor.Name,
		Amount:        appt.Amount,
		Currency:      h.currency,
	})
	if err != nil {
		h.logger.Error("checkout creation failed", "error", err, "appointment_id", apptID, "provider", req.Provider)
		http.Error(w, "failed to create checkout", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":  true,
		"provider": req.Provider,
		"url":      resp.URL,
		"order_id": resp.ProviderID,
	})
}

func (h *CheckoutHandler) provider(name string) (CheckoutService, error) {
	switch name {
	case "stripe":
		if h.stripe == nil {
			return nil, ErrProviderNotConfigured
		}
		return h.stripe, nil
	case "razorpay":
		if h.razorpay == nil {
			return nil, ErrProviderNotConfigured
		}
		return h.razorpay, nil
	case "":
		return nil, errors.New("provider is required")
	}
	return nil, errors.New("unknown payment provider")
}

func writeFailure(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "reason": reason})
}
