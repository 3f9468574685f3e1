package repository

import (
	"healthcare-crm-backend/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DispositionLogRepository interface {
	Create(db *gorm.DB, log *entity.DispositionLog) error
	FindByBookingID(db *gorm.DB, bookingID uuid.UUID) ([]entity.DispositionLog, error)
}
