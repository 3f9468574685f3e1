package repository

import (
	"healthcare-crm-backend/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorRepository interface {
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Doctor, error)
	// FindByPhoneForUpdate reads the doctor row under a row lock.
	FindByPhoneForUpdate(db *gorm.DB, phone string) (*entity.Doctor, error)
	FindByPhones(db *gorm.DB, phones []string) ([]entity.Doctor, error)
	Create(db *gorm.DB, doctor *entity.Doctor) error
	// InsertBatch inserts doctors in chunks, skipping phones that already exist,
	// and returns the generated id per inserted phone.
	InsertBatch(db *gorm.DB, doctors []entity.Doctor, chunkSize int) (map[string]uuid.UUID, error)
	UpdateWindow(db *gorm.DB, phone string, window entity.ActivityWindow) (int64, error)
}
