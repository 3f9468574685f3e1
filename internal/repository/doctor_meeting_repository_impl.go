package repository

import (
	"errors"

	"healthcare-crm-backend/internal/domain/entity"
	domainRepo "healthcare-crm-backend/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type doctorMeetingRepository struct{}

func NewDoctorMeetingRepository() domainRepo.DoctorMeetingRepository {
	return &doctorMeetingRepository{}
}

// Columns written per meeting row, used to size insert chunks.
const doctorMeetingColumnCount = 13

func (r *doctorMeetingRepository) Create(db *gorm.DB, meeting *entity.DoctorMeeting) error {
	return db.Create(meeting).Error
}

func (r *doctorMeetingRepository) InsertBatch(db *gorm.DB, meetings []entity.DoctorMeeting, chunkSize int) (int64, error) {
	if len(meetings) == 0 {
		return 0, nil
	}
	result := db.CreateInBatches(meetings, chunkSizeFor(chunkSize, doctorMeetingColumnCount))
	return result.RowsAffected, result.Error
}

func (r *doctorMeetingRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.DoctorMeeting, error) {
	var meeting entity.DoctorMeeting
	err := db.Where("id = ?", id).First(&meeting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meeting, nil
}

func (r *doctorMeetingRepository) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.DoctorMeeting, error) {
	var meetings []entity.DoctorMeeting
	err := db.Preload("Agent").
		Where("doctor_id = ?", doctorID).
		Order("created_at DESC").
		Find(&meetings).Error
	if err != nil {
		return nil, err
	}
	return meetings, nil
}

func (r *doctorMeetingRepository) Delete(db *gorm.DB, id uuid.UUID) (int64, error) {
	result := db.Where("id = ?", id).Delete(&entity.DoctorMeeting{})
	return result.RowsAffected, result.Error
}
