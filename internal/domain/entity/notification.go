package entity

import (
	"time"

	"github.com/google/uuid"
)

// Contact is a person a notification can reach.
type Contact struct {
	Name  string
	Phone string
}

// DispositionNotification carries everything fan-out needs after a transition commits.
type DispositionNotification struct {
	BookingID           uuid.UUID
	BookingReference    string
	PatientName         string
	PatientPhone        string
	PaymentMode         string
	HospitalName        string
	HospitalGroupIDs    []string
	PreviousDisposition string
	NewDisposition      string
	Notes               string
	Agent               Contact
	Referee             Contact
	ActorID             uuid.UUID
	At                  time.Time
}

// BookingNotification carries everything fan-out needs after a booking is created.
type BookingNotification struct {
	BookingID        uuid.UUID
	BookingReference string
	PatientName      string
	PatientPhone     string
	MedicalCondition string
	City             string
	HospitalName     string
	HospitalGroupIDs []string
	AppointmentDate  *time.Time
	PaymentMode      string
	Agent            Contact
	Referee          Contact
	ActorID          uuid.UUID
	At               time.Time
}

// ImportNotification summarizes a finished bulk import for the audit trail.
type ImportNotification struct {
	Action  string
	ActorID *uuid.UUID
	Source  string
	Result  BatchResult
	At      time.Time
}

// Sheet job types
const (
	SheetJobDisposition = "disposition"
	SheetJobBooking     = "booking"
)

// SheetJob is one pending spreadsheet row submission.
type SheetJob struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	RowData    []string  `json:"rowData"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
