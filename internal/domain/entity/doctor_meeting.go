package entity

import (
	"time"

	"github.com/google/uuid"
)

// Meeting types
const (
	MeetingTypePhysical = "physical"
	MeetingTypeCall     = "call"
)

// IsValidMeetingType checks a meeting type label.
func IsValidMeetingType(t string) bool {
	return t == MeetingTypePhysical || t == MeetingTypeCall
}

// DoctorMeeting is an immutable record of a field visit or call.
// CreatedAt is the time the meeting happened, not the time the row was written.
type DoctorMeeting struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DoctorID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"doctor_id"`
	AgentID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"agent_id"`
	MeetingType     string     `gorm:"type:varchar(20);not null" json:"meeting_type"`
	DurationMinutes int        `gorm:"column:duration;not null;default:0" json:"duration"`
	Locality        string     `gorm:"type:varchar(255)" json:"locality,omitempty"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	Photos          StringList `gorm:"type:jsonb" json:"photos,omitempty"`
	Notes           string     `gorm:"type:text" json:"notes,omitempty"`
	Summary         string     `gorm:"type:text" json:"summary,omitempty"`
	GPSVerified     bool       `gorm:"column:gps_verified;not null;default:false" json:"gps_verified"`
	CreatedAt       time.Time  `gorm:"not null;index" json:"created_at"`

	// Relationships
	Doctor *Doctor `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Agent  *Agent  `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
}

func (DoctorMeeting) TableName() string {
	return "doctor_meetings"
}
