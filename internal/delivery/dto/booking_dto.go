package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type CreateBookingRequest struct {
	BookingReference string           `json:"booking_reference" validate:"required,max=50"`
	PatientName      string           `json:"patient_name" validate:"required,min=2,max=255"`
	PatientPhone     string           `json:"patient_phone" validate:"required,indian_phone"`
	PatientAge       *int             `json:"patient_age" validate:"omitempty,min=0,max=130"`
	PatientGender    string           `json:"patient_gender" validate:"omitempty,oneof=male female other"`
	MedicalCondition string           `json:"medical_condition"`
	City             string           `json:"city" validate:"omitempty,max=100"`
	HospitalName     string           `json:"hospital_name" validate:"omitempty,max=255"`
	HospitalIDs      []string         `json:"hospital_ids" validate:"omitempty,dive,uuid"`
	RefereePhone     string           `json:"referee_phone" validate:"required,indian_phone"`
	AppointmentDate  string           `json:"appointment_date" validate:"omitempty,datetime=2006-01-02"`
	AppointmentTime  string           `json:"appointment_time" validate:"omitempty,max=10"`
	PaymentMode      string           `json:"payment_mode" validate:"omitempty,max=50"`
	EstimatedAmount  *decimal.Decimal `json:"estimated_amount"`
}

// UpdateBookingRequest covers the controlled fields only. Disposition changes
// go through AdvanceDispositionRequest.
type UpdateBookingRequest struct {
	PatientAge       *int             `json:"patient_age" validate:"omitempty,min=0,max=130"`
	PatientGender    *string          `json:"patient_gender" validate:"omitempty,oneof=male female other"`
	MedicalCondition *string          `json:"medical_condition"`
	AppointmentDate  *string          `json:"appointment_date" validate:"omitempty,datetime=2006-01-02"`
	AppointmentTime  *string          `json:"appointment_time" validate:"omitempty,max=10"`
	PaymentMode      *string          `json:"payment_mode" validate:"omitempty,max=50"`
	EstimatedAmount  *decimal.Decimal `json:"estimated_amount"`
}

type AdvanceDispositionRequest struct {
	Disposition  string   `json:"disposition" validate:"required,max=100"`
	Notes        string   `json:"notes"`
	HospitalName string   `json:"hospital_name" validate:"omitempty,max=255"`
	HospitalIDs  []string `json:"hospital_ids" validate:"omitempty,dive,uuid"`
}

type ListBookingsRequest struct {
	AgentID     *uuid.UUID
	Disposition string
	From        *time.Time
	To          *time.Time
	Page        int
	Limit       int
}

// Response DTOs

type BookingResponse struct {
	ID                  uuid.UUID       `json:"id"`
	BookingReference    string          `json:"booking_reference"`
	PatientName         string          `json:"patient_name"`
	PatientPhone        string          `json:"patient_phone"`
	PatientAge          *int            `json:"patient_age,omitempty"`
	PatientGender       string          `json:"patient_gender,omitempty"`
	MedicalCondition    string          `json:"medical_condition,omitempty"`
	City                string          `json:"city,omitempty"`
	HospitalName        string          `json:"hospital_name,omitempty"`
	HospitalIDs         []string        `json:"hospital_ids"`
	RefereeID           uuid.UUID       `json:"referee_id"`
	RefereeName         string          `json:"referee_name,omitempty"`
	CreatedByAgentID    uuid.UUID       `json:"created_by_agent_id"`
	CreatedByAgentName  string          `json:"created_by_agent_name,omitempty"`
	CurrentDisposition  *string         `json:"current_disposition"`
	AppointmentDate     *string         `json:"appointment_date,omitempty"`
	AppointmentTime     string          `json:"appointment_time,omitempty"`
	PaymentMode         string          `json:"payment_mode,omitempty"`
	EstimatedAmount     decimal.Decimal `json:"estimated_amount"`
	LastInteractionDate *time.Time      `json:"last_interaction_date,omitempty"`
	DocumentURLs        []string        `json:"document_urls"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

type DispositionResponse struct {
	BookingID           uuid.UUID `json:"booking_id"`
	BookingReference    string    `json:"booking_reference"`
	LogID               int64     `json:"log_id"`
	PreviousDisposition *string   `json:"previous_disposition"`
	NewDisposition      string    `json:"new_disposition"`
	HospitalName        string    `json:"hospital_name,omitempty"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type DispositionLogResponse struct {
	ID                  int64     `json:"id"`
	PreviousDisposition *string   `json:"previous_disposition"`
	NewDisposition      string    `json:"new_disposition"`
	Notes               string    `json:"notes,omitempty"`
	HospitalName        string    `json:"hospital_name,omitempty"`
	UpdatedByUserID     uuid.UUID `json:"updated_by_user_id"`
	CreatedAt           time.Time `json:"created_at"`
}

type DocumentResponse struct {
	BookingReference string   `json:"booking_reference"`
	ShareLink        string   `json:"share_link"`
	DirectLink       string   `json:"direct_link"`
	DocumentURLs     []string `json:"document_urls"`
}

// DocumentUpload is a file already written to local disk by the handler.
type DocumentUpload struct {
	LocalPath string
	MimeType  string
	FileName  string
}
