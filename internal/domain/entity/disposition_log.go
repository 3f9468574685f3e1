package entity

import (
	"time"

	"github.com/google/uuid"
)

// DispositionLog is an append-only record of one disposition transition.
type DispositionLog struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OpdBookingID        uuid.UUID `gorm:"type:uuid;not null;index" json:"opd_booking_id"`
	PreviousDisposition *string   `gorm:"type:varchar(100)" json:"previous_disposition"`
	NewDisposition      string    `gorm:"type:varchar(100);not null" json:"new_disposition"`
	Notes               string    `gorm:"type:text" json:"notes,omitempty"`
	HospitalName        string    `gorm:"type:varchar(255)" json:"hospital_name,omitempty"`
	UpdatedByUserID     uuid.UUID `gorm:"type:uuid;not null" json:"updated_by_user_id"`
	CreatedAt           time.Time `gorm:"not null;index" json:"created_at"`
}

func (DispositionLog) TableName() string {
	return "disposition_logs"
}
