package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common disposition labels. The set is open: any agreed label is a valid target.
const (
	DispositionOPDBooked  = "OPD Booked"
	DispositionOPDDone    = "OPD Done"
	DispositionOPDMissed  = "OPD Missed"
	DispositionOPDRevisit = "OPD Revisit"
	DispositionAdmitted   = "Admitted"
	DispositionDischarged = "Discharged"
	DispositionLost       = "Lost"
)

// OpdBooking is a patient referral lead. CurrentDisposition only moves through
// disposition transitions, never through a plain field update.
type OpdBooking struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	BookingReference    string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"booking_reference"`
	PatientName         string          `gorm:"type:varchar(255);not null" json:"patient_name"`
	PatientPhone        string          `gorm:"type:char(10);not null;index" json:"patient_phone"`
	PatientAge          *int            `json:"patient_age,omitempty"`
	PatientGender       string          `gorm:"type:varchar(10)" json:"patient_gender,omitempty"`
	MedicalCondition    string          `gorm:"type:text" json:"medical_condition,omitempty"`
	City                string          `gorm:"type:varchar(100)" json:"city,omitempty"`
	HospitalName        string          `gorm:"type:varchar(255)" json:"hospital_name,omitempty"`
	HospitalIDs         StringList      `gorm:"column:hospital_ids;type:jsonb" json:"hospital_ids,omitempty"`
	RefereeID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"referee_id"`
	CreatedByAgentID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"created_by_agent_id"`
	CurrentDisposition  *string         `gorm:"type:varchar(100);index" json:"current_disposition,omitempty"`
	AppointmentDate     *time.Time      `gorm:"type:date" json:"appointment_date,omitempty"`
	AppointmentTime     string          `gorm:"type:varchar(10)" json:"appointment_time,omitempty"`
	PaymentMode         string          `gorm:"type:varchar(50)" json:"payment_mode,omitempty"`
	EstimatedAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"estimated_amount"`
	LastInteractionDate *time.Time      `json:"last_interaction_date,omitempty"`
	DocumentURLs        StringList      `gorm:"column:document_urls;type:jsonb" json:"document_urls,omitempty"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Referee         *Doctor          `gorm:"foreignKey:RefereeID" json:"referee,omitempty"`
	CreatedByAgent  *Agent           `gorm:"foreignKey:CreatedByAgentID" json:"created_by_agent,omitempty"`
	DispositionLogs []DispositionLog `gorm:"foreignKey:OpdBookingID;constraint:OnDelete:CASCADE" json:"disposition_logs,omitempty"`
}

func (OpdBooking) TableName() string {
	return "opd_bookings"
}

// Disposition returns the current label, or "" when unset.
func (b OpdBooking) Disposition() string {
	if b.CurrentDisposition == nil {
		return ""
	}
	return *b.CurrentDisposition
}

// BookingSnapshot is the joined read taken under row lock before a disposition
// transition: the booking's state plus the contacts that notifications go to.
type BookingSnapshot struct {
	ID                 uuid.UUID
	BookingReference   string
	CurrentDisposition *string
	HospitalName       string
	HospitalIDs        StringList
	City               string
	PatientName        string
	PatientPhone       string
	PaymentMode        string
	AgentID            uuid.UUID
	AgentFirstName     string
	AgentLastName      string
	AgentPhone         string
	RefereeID          uuid.UUID
	RefereeName        string
	RefereePhone       string
}

// HospitalSelection is a caller-supplied change of hospital for a booking.
// Empty IDs leave the booking's linked hospitals unchanged.
type HospitalSelection struct {
	Name string
	IDs  []string
}

// BookingFilter is a domain-level filter for listing bookings.
type BookingFilter struct {
	AgentID     *uuid.UUID
	Disposition string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}
