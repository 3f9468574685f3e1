package entity

import (
	"strings"

	"github.com/google/uuid"
)

// Hospital is a partner facility. City partitions the list shown when booking.
type Hospital struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	City    string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_hospitals_city_name" json:"city"`
	Name    string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_hospitals_city_name" json:"name"`
	GroupID string    `gorm:"type:varchar(255)" json:"group_id,omitempty"`
	Code    string    `gorm:"type:varchar(50);uniqueIndex" json:"code,omitempty"`
}

func (Hospital) TableName() string {
	return "hospitals"
}

// HospitalKey is the city-scoped natural key of a hospital.
type HospitalKey struct {
	City string
	Name string
}

// String is the case-insensitive lookup form of the key.
func (k HospitalKey) String() string {
	return strings.ToLower(strings.TrimSpace(k.City)) + "|" + strings.ToLower(strings.TrimSpace(k.Name))
}

// Key returns the hospital's natural key.
func (h *Hospital) Key() HospitalKey {
	return HospitalKey{City: h.City, Name: h.Name}
}
