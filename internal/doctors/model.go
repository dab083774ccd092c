package doctors

import "time"

// Address is the clinic address shown to patients.
type Address struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2,omitempty"`
}

// Doctor represents a doctor profile in the directory. Booked slots are not
// stored here; they are derived from active appointments.
type Doctor struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Image      string    `json:"image,omitempty"`
	Speciality string    `json:"speciality"`
	Degree     string    `json:"degree,omitempty"`
	Experience string    `json:"experience,omitempty"`
	About      string    `json:"about,omitempty"`
	Available  bool      `json:"available"`
	Fees       int64     `json:"fees"`
	Address    Address   `json:"address"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateDoctorRequest is the admin request body for registering a doctor.
type CreateDoctorRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Image      string  `json:"image"`
	Speciality string  `json:"speciality"`
	Degree     string  `json:"degree"`
	Experience string  `json:"experience"`
	About      string  `json:"about"`
	Fees       int64   `json:"fees"`
	Address    Address `json:"address"`
}

// Validate validates the create doctor request
func (r *CreateDoctorRequest) Validate() error {
	if r.Name == "" {
		return ErrInvalidName
	}
	if r.Email == "" {
		return ErrInvalidEmail
	}
	if r.Fees <= 0 {
		return ErrInvalidFees
	}
	return nil
}
