package appointments

import "errors"

var (
	// ErrDoctorNotFound is returned when the referenced doctor does not exist
	ErrDoctorNotFound = errors.New("doctor not found")

	// ErrPatientNotFound is returned when the referenced patient does not exist
	ErrPatientNotFound = errors.New("patient not found")

	// ErrDoctorUnavailable is returned when the doctor is not accepting bookings
	ErrDoctorUnavailable = errors.New("doctor is currently not accepting bookings")

	// ErrSlotTaken is returned when the requested slot is held by an active appointment
	ErrSlotTaken = errors.New("this time slot is already booked")

	// ErrInvalidSlot is returned when the slot date key or time string is malformed
	ErrInvalidSlot = errors.New("invalid slot date or time")

	// ErrAppointmentNotFound is returned when an appointment is not found
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrForbidden is returned when the requester does not own the appointment
	ErrForbidden = errors.New("not authorized for this appointment")

	// ErrAlreadyCancelled is returned when acting on a cancelled appointment
	ErrAlreadyCancelled = errors.New("appointment already cancelled")
)
