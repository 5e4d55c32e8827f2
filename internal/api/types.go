package api

import "time"

type CreateAppointmentRequest struct {
	PatientID   string    `json:"patientId"`
	TherapistID string    `json:"therapistId"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Status      string    `json:"status,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

// PatchAppointmentRequest carries partial updates; absent fields stay
// untouched.
type PatchAppointmentRequest struct {
	PatientID   *string    `json:"patientId,omitempty"`
	TherapistID *string    `json:"therapistId,omitempty"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}
