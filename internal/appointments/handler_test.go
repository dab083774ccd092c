package appointments

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/identity"
)

func newHandlerFixture(t *testing.T) (*serviceFixture, http.Handler) {
	t.Helper()

	f := newServiceFixture(t)
	h := NewHandler(f.service, nil)

	r := chi.NewRouter()
	r.Get("/appointments", h.ListMine)
	r.Post("/appointments", h.Book)
	r.Post("/appointments/{appointmentID}/cancel", h.Cancel)
	r.Post("/appointments/{appointmentID}/complete", h.Complete)
	r.Get("/doctors/{doctorID}/slots", h.Slots)
	return f, r
}

func authedRequest(method, target string, body []byte, id identity.Identity) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	return req.WithContext(identity.WithIdentity(req.Context(), id))
}

func TestBookHandlerCreatesAppointment(t *testing.T) {
	f, router := newHandlerFixture(t)

	body, _ := json.Marshal(BookRequest{DoctorID: f.doctor.ID, SlotDate: "5_6_2024", SlotTime: "10:00 AM"})
	req := authedRequest(http.MethodPost, "/appointments", body, identity.Identity{ID: f.patient.ID, Role: identity.RolePatient})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success       bool        `json:"success"`
		AppointmentID string      `json:"appointment_id"`
		Appointment   Appointment `json:"appointment"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.AppointmentID == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Appointment.SlotDate != "5_6_2024" || resp.Appointment.SlotTime != "10:00 AM" {
		t.Fatalf("unexpected appointment payload: %+v", resp.Appointment)
	}
}

func TestBookHandlerRequiresIdentity(t *testing.T) {
	_, router := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestBookHandlerStatusCodes(t *testing.T) {
	f, router := newHandlerFixture(t)
	patient := identity.Identity{ID: f.patient.ID, Role: identity.RolePatient}

	// Malformed slot date -> 400.
	body, _ := json.Marshal(BookRequest{DoctorID: f.doctor.ID, SlotDate: "05_6_2024", SlotTime: "10:00 AM"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/appointments", body, patient))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad slot date, got %d", rec.Code)
	}

	// Unknown doctor -> 404.
	body, _ = json.Marshal(BookRequest{DoctorID: "missing", SlotDate: "5_6_2024", SlotTime: "10:00 AM"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/appointments", body, patient))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown doctor, got %d", rec.Code)
	}

	// Taken slot -> 409.
	body, _ = json.Marshal(BookRequest{DoctorID: f.doctor.ID, SlotDate: "5_6_2024", SlotTime: "10:00 AM"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/appointments", body, patient))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/appointments", body, patient))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for taken slot, got %d", rec.Code)
	}

	var resp struct {
		Success bool   `json:"success"`
		Reason  string `json:"reason"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode failure body: %v", err)
	}
	if resp.Success || resp.Reason == "" {
		t.Fatalf("expected failure body with reason, got %+v", resp)
	}
}

func TestCancelHandler(t *testing.T) {
	f, router := newHandlerFixture(t)
	patient := identity.Identity{ID: f.patient.ID, Role: identity.RolePatient}

	appt, err := f.service.Book(context.Background(), f.patient.ID, f.doctor.ID, "5_6_2024", "10:00 AM")
	if err != nil {
		t.Fatalf("Book returned error: %v", err)
	}

	// A stranger is refused.
	stranger := identity.Identity{ID: "someone-else", Role: identity.RolePatient}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/appointments/"+appt.ID+"/cancel", nil, stranger))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/appointments/"+appt.ID+"/cancel", nil, patient))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Cancelling again conflicts.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/appointments/"+appt.ID+"/cancel", nil, patient))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for repeat cancel, got %d", rec.Code)
	}
}

func TestCompleteHandler(t *testing.T) {
	f, router := newHandlerFixture(t)

	appt, err := f.service.Book(context.Background(), f.patient.ID, f.doctor.ID, "5_6_2024", "10:00 AM")
	if err != nil {
		t.Fatalf("Book returned error: %v", err)
	}

	doctor := identity.Identity{ID: f.doctor.ID, Role: identity.RoleDoctor}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/appointments/"+appt.ID+"/complete", nil, doctor))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	got, err := f.service.GetByID(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if !got.IsCompleted {
		t.Fatalf("expected appointment to be completed")
	}
}

func TestListMineSplitsByRole(t *testing.T) {
	f, router := newHandlerFixture(t)

	if _, err := f.service.Book(context.Background(), f.patient.ID, f.doctor.ID, "5_6_2024", "10:00 AM"); err != nil {
		t.Fatalf("Book returned error: %v", err)
	}

	for _, id := range []identity.Identity{
		{ID: f.patient.ID, Role: identity.RolePatient},
		{ID: f.doctor.ID, Role: identity.RoleDoctor},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodGet, "/appointments", nil, id))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", id.Role, rec.Code)
		}

		var resp struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Count != 1 {
			t.Fatalf("expected 1 appointment for %s, got %d", id.Role, resp.Count)
		}
	}
}

func TestSlotsHandler(t *testing.T) {
	f, router := newHandlerFixture(t)

	if _, err := f.service.Book(context.Background(), f.patient.ID, f.doctor.ID, "5_6_2024", "10:00 AM"); err != nil {
		t.Fatalf("Book returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/doctors/"+f.doctor.ID+"/slots", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		SlotsBooked map[string][]string `json:"slots_booked"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.SlotsBooked["5_6_2024"]) != 1 || resp.SlotsBooked["5_6_2024"][0] != "10:00 AM" {
		t.Fatalf("unexpected booked map: %v", resp.SlotsBooked)
	}
}
