package doctors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chnmndlai/prescripto-full-stack-sub000/pkg/logging"
)

// Handler handles HTTP requests for the doctor directory
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new doctors handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// ListDoctorsResponse is the response for listing doctors
type ListDoctorsResponse struct {
	Success bool      `json:"success"`
	Doctors []*Doctor `json:"doctors"`
	Count   int       `json:"count"`
}

// List handles GET /doctors requests
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list doctors", "error", err)
		http.Error(w, "failed to list doctors", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListDoctorsResponse{
		Success: true,
		Doctors: docs,
		Count:   len(docs),
	})
}

// Get handles GET /doctors/{doctorID} requests
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "doctorID")
	doc, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			writeFailure(w, http.StatusNotFound, "doctor not found")
			return
		}
		h.logger.Error("failed to load doctor", "error", err, "doctor_id", id)
		http.Error(w, "failed to load doctor", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true, "doctor": doc})
}

// Create handles POST /admin/doctors requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("doctor registered", "id", doc.ID, "name", doc.Name)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"success": true, "doctor": doc})
}

// SetAvailabilityRequest is the request body for toggling availability.
type SetAvailabilityRequest struct {
	Available bool `json:"available"`
}

// SetAvailability handles PATCH /admin/doctors/{doctorID}/availability requests
func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "doctorID")

	var req SetAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.repo.SetAvailability(r.Context(), id, req.Available)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			writeFailure(w, http.StatusNotFound, "doctor not found")
			return
		}
		h.logger.Error("failed to update availability", "error", err, "doctor_id", id)
		http.Error(w, "failed to update availability", http.StatusInternalServerError)
		return
	}

	h.logger.Info("doctor availability updated", "id", doc.ID, "available", doc.Available)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true, "doctor": doc})
}

func writeFailure(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "reason": reason})
}
