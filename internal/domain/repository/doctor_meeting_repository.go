package repository

import (
	"healthcare-crm-backend/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorMeetingRepository interface {
	Create(db *gorm.DB, meeting *entity.DoctorMeeting) error
	InsertBatch(db *gorm.DB, meetings []entity.DoctorMeeting, chunkSize int) (int64, error)
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.DoctorMeeting, error)
	FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.DoctorMeeting, error)
	Delete(db *gorm.DB, id uuid.UUID) (int64, error)
}
