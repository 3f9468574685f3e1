package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Agent is an internal sales user (NDM) that meetings and bookings are attributed to.
type Agent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FirstName string    `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName  string    `gorm:"type:varchar(100)" json:"last_name,omitempty"`
	Phone     string    `gorm:"type:char(10);uniqueIndex;not null" json:"phone"`
	Role      string    `gorm:"type:varchar(20);not null;default:'ndm'" json:"role"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Agent) TableName() string {
	return "agents"
}

// FullName joins first and last name.
func (a *Agent) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Active treats a missing flag as active.
func (a *Agent) Active() bool {
	return a.IsActive == nil || *a.IsActive
}
