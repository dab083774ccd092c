package appointments

import (
	"time"

	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/doctors"
	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/patients"
)

// DoctorSnapshot is the doctor state copied onto an appointment at booking
// time. It deliberately carries no booked-slot data and is never re-synced
// with the doctor record, so the appointment preserves what the patient
// agreed to.
type DoctorSnapshot struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Speciality string          `json:"speciality"`
	Degree     string          `json:"degree,omitempty"`
	Image      string          `json:"image,omitempty"`
	Fees       int64           `json:"fees"`
	Address    doctors.Address `json:"address"`
}

// PatientSnapshot is the patient state copied onto an appointment at
// booking time.
type PatientSnapshot struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Email   string           `json:"email"`
	Phone   string           `json:"phone"`
	DOB     string           `json:"dob,omitempty"`
	Gender  string           `json:"gender,omitempty"`
	Image   string           `json:"image,omitempty"`
	Address patients.Address `json:"address"`
}

// Appointment is created only by booking and never deleted. The three
// lifecycle booleans are independent; none transitions back to false.
type Appointment struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	DoctorID string `json:"doctor_id"`

	SlotDate string `json:"slot_date"`
	SlotTime string `json:"slot_time"`

	Patient PatientSnapshot `json:"patient"`
	Doctor  DoctorSnapshot  `json:"doctor"`

	Amount int64 `json:"amount"`

	Cancelled   bool `json:"cancelled"`
	IsCompleted bool `json:"is_completed"`
	Payment     bool `json:"payment"`

	CreatedAt time.Time `json:"created_at"`
}

// snapshotDoctor copies the booking-relevant doctor fields. The booked-slot
// state is derived data and must not be duplicated into the appointment.
func snapshotDoctor(d *doctors.Doctor) DoctorSnapshot {
	return DoctorSnapshot{
		ID:         d.ID,
		Name:       d.Name,
		Speciality: d.Speciality,
		Degree:     d.Degree,
		Image:      d.Image,
		Fees:       d.Fees,
		Address:    d.Address,
	}
}

func snapshotPatient(p *patients.Patient) PatientSnapshot {
	return PatientSnapshot{
		ID:      p.ID,
		Name:    p.Name,
		Email:   p.Email,
		Phone:   p.Phone,
		DOB:     p.DOB,
		Gender:  p.Gender,
		Image:   p.Image,
		Address: p.Address,
	}
}
