package api

import (
	"time"

	"github.com/google/uuid"
)

type JoinQueueRequest struct {
	DoctorID string `json:"doctor_id"`
}

type InviteNextRequest struct {
	DoctorID string `json:"doctor_id"`
}

type QueueEntryResponse struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	Status      string    `json:"status"`
	Position    int       `json:"position"`
	JoinedAt    time.Time `json:"joined_at"`
}

type CreateAppointmentRequest struct {
	DoctorID        string `json:"doctor_id"`
	AppointmentTime string `json:"appointment_time"`
}

type UpdateAppointmentRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	DoctorName  string    `json:"doctor_name"`
	Time        time.Time `json:"appointment_time"`
	Status      string    `json:"status"`
}

type SlotResponse struct {
	Time      time.Time `json:"time"`
	Available bool      `json:"available"`
}

type DoctorResponse struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	Specialty     string         `json:"specialty"`
	Rating        float64        `json:"rating"`
	Cost          float64        `json:"cost"`
	ClinicName    string         `json:"clinic_name,omitempty"`
	ClinicAddress string         `json:"clinic_address,omitempty"`
	Lat           float64        `json:"lat"`
	Lng           float64        `json:"lng"`
	QueueLength   int            `json:"queue_length"`
	DistanceKm    *float64       `json:"distance_km,omitempty"`
	Slots         []SlotResponse `json:"available_slots,omitempty"`
}

type PaymentRequest struct {
	AppointmentID string  `json:"appointment_id"`
	Amount        float64 `json:"amount"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
