package repository

import (
	"strings"

	"healthcare-crm-backend/internal/domain/entity"
	domainRepo "healthcare-crm-backend/internal/domain/repository"

	"gorm.io/gorm"
)

type hospitalRepository struct{}

func NewHospitalRepository() domainRepo.HospitalRepository {
	return &hospitalRepository{}
}

func (r *hospitalRepository) FindCities(db *gorm.DB) ([]string, error) {
	var cities []string
	err := db.Model(&entity.Hospital{}).
		Distinct("city").
		Order("city ASC").
		Pluck("city", &cities).Error
	if err != nil {
		return nil, err
	}
	return cities, nil
}

func (r *hospitalRepository) FindByCity(db *gorm.DB, city string) ([]entity.Hospital, error) {
	var hospitals []entity.Hospital
	err := db.Where("LOWER(city) = ?", strings.ToLower(strings.TrimSpace(city))).
		Order("name ASC").
		Find(&hospitals).Error
	if err != nil {
		return nil, err
	}
	return hospitals, nil
}

func (r *hospitalRepository) FindByIDs(db *gorm.DB, ids []string) ([]entity.Hospital, error) {
	var hospitals []entity.Hospital
	if len(ids) == 0 {
		return hospitals, nil
	}
	err := db.Where("id::text IN ?", ids).Find(&hospitals).Error
	if err != nil {
		return nil, err
	}
	return hospitals, nil
}

func (r *hospitalRepository) FindByKeys(db *gorm.DB, keys []entity.HospitalKey) ([]entity.Hospital, error) {
	var hospitals []entity.Hospital
	if len(keys) == 0 {
		return hospitals, nil
	}
	lookup := make([]string, len(keys))
	for i, k := range keys {
		lookup[i] = k.String()
	}
	err := db.Where("LOWER(TRIM(city)) || '|' || LOWER(TRIM(name)) IN ?", lookup).Find(&hospitals).Error
	if err != nil {
		return nil, err
	}
	return hospitals, nil
}
