package repository

import (
	"errors"
	"time"

	"healthcare-crm-backend/internal/domain/entity"
	domainRepo "healthcare-crm-backend/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type opdBookingRepository struct{}

func NewOpdBookingRepository() domainRepo.OpdBookingRepository {
	return &opdBookingRepository{}
}

var opdBookingInsertColumns = []string{
	"booking_reference", "patient_name", "patient_phone", "patient_age", "patient_gender",
	"medical_condition", "city", "hospital_name", "hospital_ids", "referee_id", "created_by_agent_id",
	"appointment_date", "payment_mode", "estimated_amount", "document_urls", "created_at", "updated_at",
}

func (r *opdBookingRepository) Create(db *gorm.DB, booking *entity.OpdBooking) error {
	return db.Create(booking).Error
}

func (r *opdBookingRepository) InsertBatch(db *gorm.DB, bookings []entity.OpdBooking, chunkSize int) (map[string]uuid.UUID, error) {
	rows := make([][]interface{}, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		rows[i] = []interface{}{
			b.BookingReference, b.PatientName, b.PatientPhone, b.PatientAge, b.PatientGender,
			b.MedicalCondition, b.City, b.HospitalName, b.HospitalIDs, b.RefereeID, b.CreatedByAgentID,
			b.AppointmentDate, b.PaymentMode, b.EstimatedAmount, b.DocumentURLs, b.CreatedAt, b.UpdatedAt,
		}
	}

	inserted, err := insertIgnoringConflicts(db, entity.OpdBooking{}.TableName(), opdBookingInsertColumns, "booking_reference", rows, chunkSize)
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

func (r *opdBookingRepository) FindByReference(db *gorm.DB, reference string) (*entity.OpdBooking, error) {
	var booking entity.OpdBooking
	err := db.Preload("Referee").Preload("CreatedByAgent").
		Where("booking_reference = ?", reference).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *opdBookingRepository) FindExistingReferences(db *gorm.DB, references []string) ([]string, error) {
	var existing []string
	if len(references) == 0 {
		return existing, nil
	}
	err := db.Model(&entity.OpdBooking{}).
		Where("booking_reference IN ?", references).
		Pluck("booking_reference", &existing).Error
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *opdBookingRepository) FindAll(db *gorm.DB, filter entity.BookingFilter) ([]entity.OpdBooking, int64, error) {
	query := db.Model(&entity.OpdBooking{})
	if filter.AgentID != nil {
		query = query.Where("created_by_agent_id = ?", *filter.AgentID)
	}
	if filter.Disposition != "" {
		query = query.Where("current_disposition = ?", filter.Disposition)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []entity.OpdBooking
	err := query.Preload("Referee").Preload("CreatedByAgent").
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// LockSnapshot takes FOR UPDATE OF opd_bookings only; the joined agent and
// doctor rows are read but not locked.
func (r *opdBookingRepository) LockSnapshot(db *gorm.DB, reference string) (*entity.BookingSnapshot, error) {
	var snapshot entity.BookingSnapshot
	err := db.Table("opd_bookings AS b").
		Select(`b.id, b.booking_reference, b.current_disposition, b.hospital_name, b.hospital_ids, b.city,
			b.patient_name, b.patient_phone, b.payment_mode,
			a.id AS agent_id, a.first_name AS agent_first_name, a.last_name AS agent_last_name, a.phone AS agent_phone,
			d.id AS referee_id, d.full_name AS referee_name, d.phone AS referee_phone`).
		Joins("LEFT JOIN agents a ON a.id = b.created_by_agent_id").
		Joins("LEFT JOIN doctors d ON d.id = b.referee_id").
		Where("b.booking_reference = ?", reference).
		Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "b"}}).
		Take(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

func (r *opdBookingRepository) UpdateDisposition(db *gorm.DB, bookingID uuid.UUID, disposition string, hospital *entity.HospitalSelection, at time.Time) error {
	updates := map[string]interface{}{
		"current_disposition":   disposition,
		"last_interaction_date": at,
		"updated_at":            at,
	}
	if hospital != nil {
		updates["hospital_name"] = hospital.Name
		if len(hospital.IDs) > 0 {
			updates["hospital_ids"] = entity.StringList(hospital.IDs)
		}
	}
	// UpdateColumns keeps gorm from stamping its own updated_at.
	return db.Model(&entity.OpdBooking{}).
		Where("id = ?", bookingID).
		UpdateColumns(updates).Error
}

func (r *opdBookingRepository) UpdateFields(db *gorm.DB, bookingID uuid.UUID, fields map[string]interface{}) error {
	return db.Model(&entity.OpdBooking{}).
		Where("id = ?", bookingID).
		UpdateColumns(fields).Error
}

func (r *opdBookingRepository) Delete(db *gorm.DB, bookingID uuid.UUID) (int64, error) {
	result := db.Where("id = ?", bookingID).Delete(&entity.OpdBooking{})
	return result.RowsAffected, result.Error
}
