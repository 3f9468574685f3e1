package repository

import (
	"errors"

	"healthcare-crm-backend/internal/domain/entity"
	domainRepo "healthcare-crm-backend/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type doctorRepository struct{}

func NewDoctorRepository() domainRepo.DoctorRepository {
	return &doctorRepository{}
}

var doctorInsertColumns = []string{
	"full_name", "phone", "locality", "latitude", "longitude", "gps_link",
	"onboarding_date", "last_meeting", "assigned_agent_id", "status", "created_at", "updated_at",
}

func (r *doctorRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Doctor, error) {
	var doctor entity.Doctor
	err := db.Preload("AssignedAgent").Where("id = ?", id).First(&doctor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doctor, nil
}

func (r *doctorRepository) FindByPhoneForUpdate(db *gorm.DB, phone string) (*entity.Doctor, error) {
	var doctor entity.Doctor
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("phone = ?", phone).First(&doctor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doctor, nil
}

func (r *doctorRepository) FindByPhones(db *gorm.DB, phones []string) ([]entity.Doctor, error) {
	var doctors []entity.Doctor
	if len(phones) == 0 {
		return doctors, nil
	}
	err := db.Where("phone IN ?", phones).Find(&doctors).Error
	if err != nil {
		return nil, err
	}
	return doctors, nil
}

func (r *doctorRepository) Create(db *gorm.DB, doctor *entity.Doctor) error {
	return db.Create(doctor).Error
}

func (r *doctorRepository) InsertBatch(db *gorm.DB, doctors []entity.Doctor, chunkSize int) (map[string]uuid.UUID, error) {
	rows := make([][]interface{}, len(doctors))
	for i := range doctors {
		d := &doctors[i]
		status := d.Status
		if status == "" {
			status = entity.DoctorStatusActive
		}
		rows[i] = []interface{}{
			d.FullName, d.Phone, d.Locality, d.Latitude, d.Longitude, d.GPSLink,
			d.OnboardingDate, d.LastMeeting, d.AssignedAgentID, status, d.CreatedAt, d.UpdatedAt,
		}
	}

	inserted, err := insertIgnoringConflicts(db, entity.Doctor{}.TableName(), doctorInsertColumns, "phone", rows, chunkSize)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]uuid.UUID, len(inserted))
	for _, row := range inserted {
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, err
		}
		ids[row.Key] = id
	}
	return ids, nil
}

func (r *doctorRepository) UpdateWindow(db *gorm.DB, phone string, window entity.ActivityWindow) (int64, error) {
	var agentID *uuid.UUID
	if window.AssignedAgentID != uuid.Nil {
		id := window.AssignedAgentID
		agentID = &id
	}
	result := db.Model(&entity.Doctor{}).
		Where("phone = ?", phone).
		Updates(map[string]interface{}{
			"onboarding_date":   window.OnboardingDate,
			"last_meeting":      window.LastMeeting,
			"assigned_agent_id": agentID,
		})
	return result.RowsAffected, result.Error
}
