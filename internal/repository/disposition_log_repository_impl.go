package repository

import (
	"healthcare-crm-backend/internal/domain/entity"
	domainRepo "healthcare-crm-backend/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type dispositionLogRepository struct{}

func NewDispositionLogRepository() domainRepo.DispositionLogRepository {
	return &dispositionLogRepository{}
}

func (r *dispositionLogRepository) Create(db *gorm.DB, log *entity.DispositionLog) error {
	return db.Create(log).Error
}

func (r *dispositionLogRepository) FindByBookingID(db *gorm.DB, bookingID uuid.UUID) ([]entity.DispositionLog, error) {
	var logs []entity.DispositionLog
	err := db.Where("opd_booking_id = ?", bookingID).
		Order("created_at ASC, id ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
