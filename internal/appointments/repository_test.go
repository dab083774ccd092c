package appointments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestAppointment(doctorID, slotDate, slotTime string) *Appointment {
	return &Appointment{
		ID:        uuid.New().String(),
		UserID:    uuid.New().String(),
		DoctorID:  doctorID,
		SlotDate:  slotDate,
		SlotTime:  slotTime,
		Amount:    5000,
		CreatedAt: time.Now().UTC(),
	}
}

func TestCreateRejectsActiveSlotCollision(t *testing.T) {
	repo := NewInMemoryRepository()
	docID := uuid.New().String()

	first := newTestAppointment(docID, "5_6_2024", "10:00 AM")
	if err := repo.Create(context.Background(), first); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}

	second := newTestAppointment(docID, "5_6_2024", "10:00 AM")
	if err := repo.Create(context.Background(), second); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	// A different time on the same day is fine.
	third := newTestAppointment(docID, "5_6_2024", "10:30 AM")
	if err := repo.Create(context.Background(), third); err != nil {
		t.Fatalf("Create for free slot returned error: %v", err)
	}

	// Same slot with another doctor is independent.
	other := newTestAppointment(uuid.New().String(), "5_6_2024", "10:00 AM")
	if err := repo.Create(context.Background(), other); err != nil {
		t.Fatalf("Create for other doctor returned error: %v", err)
	}
}

func TestSlotTimesAreComparedByExactMatch(t *testing.T) {
	repo := NewInMemoryRepository()
	docID := uuid.New().String()

	if err := repo.Create(context.Background(), newTestAppointment(docID, "5_6_2024", "10:00 AM")); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	// "10:00AM" is a distinct slot from "10:00 AM"; no normalization.
	if err := repo.Create(context.Background(), newTestAppointment(docID, "5_6_2024", "10:00AM")); err != nil {
		t.Fatalf("Create for distinct time string returned error: %v", err)
	}
}

func TestCancellationFreesSlotForRebooking(t *testing.T) {
	repo := NewInMemoryRepository()
	docID := uuid.New().String()

	first := newTestAppointment(docID, "5_6_2024", "10:00 AM")
	if err := repo.Create(context.Background(), first); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := repo.MarkCancelled(context.Background(), first.ID); err != nil {
		t.Fatalf("MarkCancelled returned error: %v", err)
	}

	second := newTestAppointment(docID, "5_6_2024", "10:00 AM")
	if err := repo.Create(context.Background(), second); err != nil {
		t.Fatalf("expected slot to be free after cancellation, got %v", err)
	}

	// Both records still exist; cancellation never deletes.
	got, err := repo.GetByID(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if !got.Cancelled {
		t.Fatalf("expected first appointment to be cancelled")
	}
}

func TestMarkCancelledIsOnceOnly(t *testing.T) {
	repo := NewInMemoryRepository()
	appt := newTestAppointment(uuid.New().String(), "5_6_2024", "10:00 AM")
	if err := repo.Create(context.Background(), appt); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := repo.MarkCancelled(context.Background(), appt.ID); err != nil {
		t.Fatalf("MarkCancelled returned error: %v", err)
	}
	if err := repo.MarkCancelled(context.Background(), appt.ID); !errors.Is(err, ErrAlreadyCancelled) {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}
	if err := repo.MarkCancelled(context.Background(), uuid.New().String()); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestMarkPaidRejectsCancelledAppointment(t *testing.T) {
	repo := NewInMemoryRepository()
	appt := newTestAppointment(uuid.New().String(), "5_6_2024", "10:00 AM")
	if err := repo.Create(context.Background(), appt); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := repo.MarkCancelled(context.Background(), appt.ID); err != nil {
		t.Fatalf("MarkCancelled returned error: %v", err)
	}

	if err := repo.MarkPaid(context.Background(), appt.ID); !errors.Is(err, ErrAlreadyCancelled) {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}
}

func TestCancelledPaidAppointmentKeepsPaymentFlag(t *testing.T) {
	repo := NewInMemoryRepository()
	appt := newTestAppointment(uuid.New().String(), "5_6_2024", "10:00 AM")
	if err := repo.Create(context.Background(), appt); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := repo.MarkPaid(context.Background(), appt.ID); err != nil {
		t.Fatalf("MarkPaid returned error: %v", err)
	}
	if err := repo.MarkCancelled(context.Background(), appt.ID); err != nil {
		t.Fatalf("MarkCancelled returned error: %v", err)
	}

	got, err := repo.GetByID(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if !got.Payment {
		t.Fatalf("expected payment flag to survive cancellation")
	}
	if !got.Cancelled {
		t.Fatalf("expected cancelled flag to be set")
	}
}

func TestSlotsBookedDerivesFromActiveAppointments(t *testing.T) {
	repo := NewInMemoryRepository()
	docID := uuid.New().String()

	a := newTestAppointment(docID, "5_6_2024", "10:00 AM")
	b := newTestAppointment(docID, "5_6_2024", "11:00 AM")
	c := newTestAppointment(docID, "6_6_2024", "9:00 AM")
	for _, appt := range []*Appointment{a, b, c} {
		if err := repo.Create(context.Background(), appt); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	booked, err := repo.SlotsBooked(context.Background(), docID)
	if err != nil {
		t.Fatalf("SlotsBooked returned error: %v", err)
	}
	if len(booked["5_6_2024"]) != 2 || len(booked["6_6_2024"]) != 1 {
		t.Fatalf("unexpected booked map: %v", booked)
	}
	if booked["5_6_2024"][0] != "10:00 AM" || booked["5_6_2024"][1] != "11:00 AM" {
		t.Fatalf("expected booking order preserved, got %v", booked["5_6_2024"])
	}

	// After cancelling the last booking on a day, the day disappears.
	if err := repo.MarkCancelled(context.Background(), c.ID); err != nil {
		t.Fatalf("MarkCancelled returned error: %v", err)
	}
	booked, err = repo.SlotsBooked(context.Background(), docID)
	if err != nil {
		t.Fatalf("SlotsBooked returned error: %v", err)
	}
	if _, ok := booked["6_6_2024"]; ok {
		t.Fatalf("expected 6_6_2024 to be absent after cancellation, got %v", booked)
	}
}

func TestConcurrentBookingsYieldOneWinner(t *testing.T) {
	repo := NewInMemoryRepository()
	docID := uuid.New().String()

	const attempts = 32
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(context.Background(), newTestAppointment(docID, "5_6_2024", "10:00 AM"))
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrSlotTaken):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
	if conflicts != attempts-1 {
		t.Fatalf("expected %d conflicts, got %d", attempts-1, conflicts)
	}
}

func TestListByPatientAndDoctor(t *testing.T) {
	repo := NewInMemoryRepository()
	docID := uuid.New().String()
	userID := uuid.New().String()

	mine := newTestAppointment(docID, "5_6_2024", "10:00 AM")
	mine.UserID = userID
	other := newTestAppointment(docID, "5_6_2024", "11:00 AM")
	for _, appt := range []*Appointment{mine, other} {
		if err := repo.Create(context.Background(), appt); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	byPatient, err := repo.ListByPatient(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListByPatient returned error: %v", err)
	}
	if len(byPatient) != 1 || byPatient[0].ID != mine.ID {
		t.Fatalf("unexpected patient listing: %+v", byPatient)
	}

	byDoctor, err := repo.ListByDoctor(context.Background(), docID)
	if err != nil {
		t.Fatalf("ListByDoctor returned error: %v", err)
	}
	if len(byDoctor) != 2 {
		t.Fatalf("expected 2 doctor appointments, got %d", len(byDoctor))
	}
}
