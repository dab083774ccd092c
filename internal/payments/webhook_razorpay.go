package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/appointments"
	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/observability/metrics"
	"github.com/chnmndlai/prescripto-full-stack-sub000/pkg/logging"
)

// RazorpayWebhookHandler handles Razorpay webhook events for payment
// capture.
type RazorpayWebhookHandler struct {
	webhookSecret string
	appts         AppointmentMarker
	processed     ProcessedTracker
	metrics       *metrics.BookingMetrics
	logger        *logging.Logger
}

// NewRazorpayWebhookHandler creates a new handler for Razorpay webhooks.
func NewRazorpayWebhookHandler(webhookSecret string, appts AppointmentMarker, processed ProcessedTracker, m *metrics.BookingMetrics, logger *logging.Logger) *RazorpayWebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &RazorpayWebhookHandler{
		webhookSecret: webhookSecret,
		appts:         appts,
		processed:     processed,
		metrics:       m,
		logger:        logger,
	}
}

// Handle processes incoming Razorpay webhook events.
func (h *RazorpayWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if !verifyRazorpaySignature(h.webhookSecret, payload, r.Header.Get("X-Razorpay-Signature")) {
		h.metrics.ObservePayment("razorpay", "bad_signature")
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var evt razorpayWebhookEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		h.logger.Error("failed to decode razorpay event", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if evt.Event != "payment.captured" {
		w.WriteHeader(http.StatusOK)
		return
	}

	payment := evt.Payload.Payment.Entity
	if h.processed != nil && payment.ID != "" {
		if processed, err := h.processed.AlreadyProcessed(r.Context(), "razorpay", payment.ID); err != nil {
			h.logger.Error("processed lookup failed", "error", err)
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		} else if processed {
			w.WriteHeader(http.StatusOK)
			return
		}
	}

	appointmentID := payment.Notes["appointment_id"]
	if appointmentID == "" {
		h.logger.Warn("razorpay webhook missing appointment note", "payment_id", payment.ID)
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.appts.MarkPaid(r.Context(), appointmentID); err != nil {
		switch {
		case errors.Is(err, appointments.ErrAppointmentNotFound):
			h.metrics.ObservePayment("razorpay", "not_found")
			h.logger.Warn("razorpay webhook for unknown appointment", "appointment_id", appointmentID)
			h.markProcessed(r.Context(), payment.ID)
			w.WriteHeader(http.StatusOK)
		case errors.Is(err, appointments.ErrAlreadyCancelled):
			h.metrics.ObservePayment("razorpay", "cancelled")
			h.logger.Warn("razorpay payment for cancelled appointment", "appointment_id", appointmentID)
			h.markProcessed(r.Context(), payment.ID)
			w.WriteHeader(http.StatusOK)
		default:
			// Do not mark the payment: the 500 makes Razorpay redeliver
			// and the retry must reach MarkPaid again.
			h.logger.Error("failed to mark appointment paid", "error", err, "appointment_id", appointmentID)
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}

	h.markProcessed(r.Context(), payment.ID)
	h.metrics.ObservePayment("razorpay", "ok")
	h.logger.Info("razorpay payment verified", "appointment_id", appointmentID, "payment_id", payment.ID)
	w.WriteHeader(http.StatusOK)
}

func (h *RazorpayWebhookHandler) markProcessed(ctx context.Context, paymentID string) {
	if h.processed == nil || paymentID == "" {
		return
	}
	if _, err := h.processed.MarkProcessed(ctx, "razorpay", paymentID); err != nil {
		h.logger.Warn("failed to mark razorpay payment processed", "error", err, "payment_id", paymentID)
	}
}

type razorpayWebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity razorpayPaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type razorpayPaymentEntity struct {
	ID       string            `json:"id"`
	OrderID  string            `json:"order_id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Status   string            `json:"status"`
	Notes    map[string]string `json:"notes"`
}

// verifyRazorpaySignature verifies the X-Razorpay-Signature header:
// HMAC-SHA256 of the raw payload with the webhook secret, hex-encoded.
func verifyRazorpaySignature(secret string, payload []byte, header string) bool {
	if secret == "" {
		return true // bypass for development
	}
	if header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(header), []byte(expected))
}
