package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/chnmndlai/prescripto-full-stack-sub000/pkg/logging"
)

var razorpayTracer = otel.Tracer("prescripto.internal.payments.razorpay")

// RazorpayCheckoutService creates Razorpay orders for appointment fees. The
// client completes the order through Razorpay's hosted checkout; capture is
// reported back via webhook.
type RazorpayCheckoutService struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewRazorpayCheckoutService creates a new Razorpay checkout service.
func NewRazorpayCheckoutService(keyID, keySecret string, logger *logging.Logger) *RazorpayCheckoutService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RazorpayCheckoutService{
		keyID:      keyID,
		keySecret:  keySecret,
		baseURL:    "https://api.razorpay.com",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// WithBaseURL overrides the Razorpay API base URL (for testing).
func (s *RazorpayCheckoutService) WithBaseURL(baseURL string) *RazorpayCheckoutService {
	if baseURL != "" {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
	return s
}

type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes"`
}

type razorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// CreateCheckout implements CheckoutService for Razorpay.
func (s *RazorpayCheckoutService) CreateCheckout(ctx context.Context, params CheckoutParams) (*CheckoutResponse, error) {
	ctx, span := razorpayTracer.Start(ctx, "razorpay.create_order")
	defer span.End()
	span.SetAttributes(
		attribute.String("prescripto.appointment_id", params.AppointmentID),
		attribute.Int64("prescripto.amount", params.Amount),
	)

	currency := strings.ToUpper(params.Currency)
	if currency == "" {
		currency = "INR"
	}

	body, err := json.Marshal(razorpayOrderRequest{
		Amount:   params.Amount,
		Currency: currency,
		Receipt:  params.AppointmentID,
		Notes:    map[string]string{"appointment_id": params.AppointmentID},
	})
	if err != nil {
		return nil, fmt.Errorf("payments: razorpay encode: %w", err)
	}

	apiURL := s.baseURL + "/v1/orders"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("payments: razorpay request: %w", err)
	}
	req.SetBasicAuth(s.keyID, s.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payments: razorpay http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("payments: razorpay api status %d: %s", resp.StatusCode, string(respBody))
	}

	var order razorpayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("payments: razorpay decode: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("payments: razorpay response missing order id")
	}

	s.logger.Info("razorpay order created",
		"appointment_id", params.AppointmentID,
		"order_id", order.ID,
	)
	return &CheckoutResponse{
		ProviderID: order.ID,
	}, nil
}
