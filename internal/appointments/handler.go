package appointments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/identity"
	"github.com/chnmndlai/prescripto-full-stack-sub000/pkg/logging"
)

// Handler handles HTTP requests for appointments
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new appointments handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("appointments: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// BookRequest is the request body for booking an appointment.
type BookRequest struct {
	DoctorID string `json:"doc_id"`
	SlotDate string `json:"slot_date"`
	SlotTime string `json:"slot_time"`
}

// Book handles POST /appointments requests (patient only).
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	appt, err := h.service.Book(r.Context(), id.ID, req.DoctorID, req.SlotDate, req.SlotTime)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"success":        true,
		"appointment_id": appt.ID,
		"appointment":    appt,
	})
}

// Cancel handles POST /appointments/{appointmentID}/cancel requests.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "missing identity")
		return
	}

	apptID := chi.URLParam(r, "appointmentID")
	if err := h.service.Cancel(r.Context(), id, apptID); err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// Complete handles POST /appointments/{appointmentID}/complete requests
// (doctor only).
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "missing identity")
		return
	}

	apptID := chi.URLParam(r, "appointmentID")
	if err := h.service.Complete(r.Context(), id.ID, apptID); err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// ListMine handles GET /appointments requests: patients get their own
// bookings, doctors get their schedule.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var (
		appts []*Appointment
		err   error
	)
	switch id.Role {
	case identity.RoleDoctor:
		appts, err = h.service.ListForDoctor(r.Context(), id.ID)
	default:
		appts, err = h.service.ListForPatient(r.Context(), id.ID)
	}
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "requester_id", id.ID)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":      true,
		"appointments": appts,
		"count":        len(appts),
	})
}

// ListSchedule handles GET /doctors/me/appointments requests (doctor
// only): the authenticated doctor's schedule.
func (h *Handler) ListSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "missing identity")
		return
	}

	appts, err := h.service.ListForDoctor(r.Context(), id.ID)
	if err != nil {
		h.logger.Error("failed to list schedule", "error", err, "doctor_id", id.ID)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":      true,
		"appointments": appts,
		"count":        len(appts),
	})
}

// Slots handles GET /doctors/{doctorID}/slots requests: the derived booked
// map for a doctor.
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")
	booked, err := h.service.SlotsBooked(r.Context(), doctorID)
	if err != nil {
		h.logger.Error("failed to load booked slots", "error", err, "doctor_id", doctorID)
		http.Error(w, "failed to load booked slots", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":      true,
		"slots_booked": booked,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidSlot):
		writeFailure(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDoctorNotFound),
		errors.Is(err, ErrPatientNotFound),
		errors.Is(err, ErrAppointmentNotFound):
		writeFailure(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		writeFailure(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrDoctorUnavailable),
		errors.Is(err, ErrSlotTaken),
		errors.Is(err, ErrAlreadyCancelled):
		writeFailure(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("appointment operation failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeFailure(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "reason": reason})
}
