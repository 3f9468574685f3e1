package repository

import (
	"time"

	"healthcare-crm-backend/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OpdBookingRepository interface {
	Create(db *gorm.DB, booking *entity.OpdBooking) error
	// InsertBatch inserts bookings in chunks, skipping references that already
	// exist, and returns the generated id per inserted reference.
	InsertBatch(db *gorm.DB, bookings []entity.OpdBooking, chunkSize int) (map[string]uuid.UUID, error)
	FindByReference(db *gorm.DB, reference string) (*entity.OpdBooking, error)
	FindExistingReferences(db *gorm.DB, references []string) ([]string, error)
	FindAll(db *gorm.DB, filter entity.BookingFilter) ([]entity.OpdBooking, int64, error)
	// LockSnapshot reads the booking with agent and referee contacts, locking the booking row.
	LockSnapshot(db *gorm.DB, reference string) (*entity.BookingSnapshot, error)
	UpdateDisposition(db *gorm.DB, bookingID uuid.UUID, disposition string, hospital *entity.HospitalSelection, at time.Time) error
	UpdateFields(db *gorm.DB, bookingID uuid.UUID, fields map[string]interface{}) error
	Delete(db *gorm.DB, bookingID uuid.UUID) (int64, error)
}
