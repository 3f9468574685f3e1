package entity

import (
	"time"

	"github.com/google/uuid"
)

// DoctorStatus values
const (
	DoctorStatusActive   = "active"
	DoctorStatusInactive = "inactive"
)

// Doctor is a referring physician, keyed naturally by phone.
type Doctor struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FullName        string     `gorm:"type:varchar(255);not null" json:"full_name"`
	Phone           string     `gorm:"type:char(10);uniqueIndex;not null" json:"phone"`
	Locality        string     `gorm:"type:varchar(255)" json:"locality,omitempty"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	GPSLink         string     `gorm:"column:gps_link;type:text" json:"gps_link,omitempty"`
	OnboardingDate  time.Time  `gorm:"not null" json:"onboarding_date"`
	LastMeeting     time.Time  `gorm:"not null;index" json:"last_meeting"`
	AssignedAgentID *uuid.UUID `gorm:"type:uuid;index" json:"assigned_agent_id,omitempty"`
	Status          string     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	AssignedAgent *Agent          `gorm:"foreignKey:AssignedAgentID;constraint:OnDelete:SET NULL" json:"assigned_agent,omitempty"`
	Meetings      []DoctorMeeting `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE" json:"meetings,omitempty"`
}

func (Doctor) TableName() string {
	return "doctors"
}

// Window returns the doctor's reconciliation window.
func (d *Doctor) Window() ActivityWindow {
	w := ActivityWindow{OnboardingDate: d.OnboardingDate, LastMeeting: d.LastMeeting}
	if d.AssignedAgentID != nil {
		w.AssignedAgentID = *d.AssignedAgentID
	}
	return w
}

// ApplyWindow copies a reconciled window onto the doctor.
func (d *Doctor) ApplyWindow(w ActivityWindow) {
	d.OnboardingDate = w.OnboardingDate
	d.LastMeeting = w.LastMeeting
	if w.AssignedAgentID == uuid.Nil {
		d.AssignedAgentID = nil
		return
	}
	agentID := w.AssignedAgentID
	d.AssignedAgentID = &agentID
}
