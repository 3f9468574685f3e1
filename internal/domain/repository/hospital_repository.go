package repository

import (
	"healthcare-crm-backend/internal/domain/entity"

	"gorm.io/gorm"
)

type HospitalRepository interface {
	FindCities(db *gorm.DB) ([]string, error)
	FindByCity(db *gorm.DB, city string) ([]entity.Hospital, error)
	FindByIDs(db *gorm.DB, ids []string) ([]entity.Hospital, error)
	FindByKeys(db *gorm.DB, keys []entity.HospitalKey) ([]entity.Hospital, error)
}
