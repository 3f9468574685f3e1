package usecase

import (
	"context"
	"io"
	"strings"
	"time"

	"healthcare-crm-backend/internal/converter"
	"healthcare-crm-backend/internal/delivery/dto"
	"healthcare-crm-backend/internal/domain/entity"
	"healthcare-crm-backend/internal/domain/repository"
	"healthcare-crm-backend/internal/infrastructure/database"
	"healthcare-crm-backend/internal/service"
	"healthcare-crm-backend/pkg/apperr"
	"healthcare-crm-backend/pkg/csvbatch"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BookingSchema is the column layout of a booking upload.
var BookingSchema = csvbatch.Schema{
	Name: "bookings",
	Fields: []csvbatch.Field{
		{Name: "booking_reference", Kind: csvbatch.String, Required: true},
		{Name: "patient_name", Kind: csvbatch.String, Required: true},
		{Name: "patient_phone", Kind: csvbatch.Phone, Required: true},
		{Name: "age", Kind: csvbatch.Int},
		{Name: "gender", Kind: csvbatch.String},
		{Name: "medical_condition", Kind: csvbatch.String},
		{Name: "city", Kind: csvbatch.String},
		{Name: "hospital_name", Kind: csvbatch.String},
		{Name: "referee_phone", Kind: csvbatch.Phone, Required: true},
		{Name: "agent_name", Kind: csvbatch.String, Required: true},
		{Name: "appointment_date", Kind: csvbatch.Time},
		{Name: "payment_mode", Kind: csvbatch.String},
		{Name: "estimated_amount", Kind: csvbatch.Float},
		{Name: "created_at", Kind: csvbatch.Time},
	},
}

var validGenders = map[string]bool{"male": true, "female": true, "other": true}

type OpdBookingImportUsecase interface {
	ImportBookingsCSV(ctx context.Context, r io.Reader) (*dto.BatchResultResponse, error)
}

type opdBookingImportUsecase struct {
	transactor  database.Transactor
	log         *logrus.Logger
	resolver    service.IdentityResolver
	notifier    service.NotificationService
	bookingRepo repository.OpdBookingRepository
	chunkSize   int
	now         func() time.Time
}

func NewOpdBookingImportUsecase(
	transactor database.Transactor,
	log *logrus.Logger,
	resolver service.IdentityResolver,
	notifier service.NotificationService,
	bookingRepo repository.OpdBookingRepository,
	chunkSize int,
) OpdBookingImportUsecase {
	if chunkSize <= 0 {
		chunkSize = service.DefaultChunkSize
	}
	return &opdBookingImportUsecase{
		transactor:  transactor,
		log:         log,
		resolver:    resolver,
		notifier:    notifier,
		bookingRepo: bookingRepo,
		chunkSize:   chunkSize,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type bookingImportRow struct {
	rowNumber int
	booking   entity.OpdBooking
}

func (u *opdBookingImportUsecase) ImportBookingsCSV(ctx context.Context, r io.Reader) (*dto.BatchResultResponse, error) {
	batch, err := csvbatch.Parse(r, BookingSchema)
	if err != nil {
		return nil, err
	}

	result := &entity.BatchResult{TotalRows: batch.Total()}
	for _, rej := range batch.Rejected {
		result.Fail(rej.RowNumber, rej.Reason)
	}

	// Later rows repeating a reference inside the same file are failures.
	records := make([]csvbatch.Record, 0, len(batch.Records))
	seen := make(map[string]struct{}, len(batch.Records))
	for _, rec := range batch.Records {
		ref := rec.String("booking_reference")
		if _, dup := seen[ref]; dup {
			result.Fail(rec.RowNumber, "duplicate booking reference "+ref)
			continue
		}
		seen[ref] = struct{}{}
		records = append(records, rec)
	}

	now := u.now()
	err = u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		references := make([]string, 0, len(records))
		refereePhones := make([]string, 0, len(records))
		agentNames := make([]string, 0, len(records))
		hospitalKeys := make([]entity.HospitalKey, 0, len(records))
		for _, rec := range records {
			references = append(references, rec.String("booking_reference"))
			refereePhones = append(refereePhones, rec.Phone("referee_phone"))
			agentNames = append(agentNames, rec.String("agent_name"))
			hospitalKeys = append(hospitalKeys, entity.HospitalKey{City: rec.String("city"), Name: rec.String("hospital_name")})
		}

		existing, err := u.bookingRepo.FindExistingReferences(tx, references)
		if err != nil {
			return apperr.Persistence("failed to check booking references", err)
		}
		existingSet := make(map[string]struct{}, len(existing))
		for _, ref := range existing {
			existingSet[ref] = struct{}{}
		}

		referees, err := u.resolver.ResolveDoctors(tx, refereePhones)
		if err != nil {
			return apperr.Persistence("failed to resolve referee doctors", err)
		}
		agents, err := u.resolver.ResolveAgentsByName(tx, agentNames)
		if err != nil {
			return apperr.Persistence("failed to resolve agents", err)
		}
		hospitals, err := u.resolver.ResolveHospitals(tx, hospitalKeys)
		if err != nil {
			return apperr.Persistence("failed to resolve hospitals", err)
		}

		rows := make([]bookingImportRow, 0, len(records))
		for _, rec := range records {
			if _, ok := existingSet[rec.String("booking_reference")]; ok {
				result.Fail(rec.RowNumber, "duplicate booking reference "+rec.String("booking_reference"))
				continue
			}
			booking, err := bookingFromRecord(rec, referees, agents, hospitals, now)
			if err != nil {
				result.Fail(rec.RowNumber, err.Error())
				continue
			}
			rows = append(rows, bookingImportRow{rowNumber: rec.RowNumber, booking: booking})
		}
		if len(rows) == 0 {
			return nil
		}

		bookings := make([]entity.OpdBooking, len(rows))
		for i := range rows {
			bookings[i] = rows[i].booking
		}
		inserted, err := u.bookingRepo.InsertBatch(tx, bookings, u.chunkSize)
		if err != nil {
			return apperr.Persistence("failed to insert bookings", err)
		}

		// A reference missing from the returned set lost a race with a concurrent writer.
		for _, row := range rows {
			if _, ok := inserted[row.booking.BookingReference]; !ok {
				result.Fail(row.rowNumber, "duplicate booking reference "+row.booking.BookingReference)
			}
		}
		result.NewlyCreated += len(inserted)
		return nil
	})
	if err != nil {
		u.log.Warnf("Failed to import bookings: %+v", err)
		return nil, persistenceError("failed to import bookings", err)
	}

	result.SortFailures()

	u.log.WithFields(logrus.Fields{
		"total_rows":    result.TotalRows,
		"newly_created": result.NewlyCreated,
		"failed":        result.FailedCount,
	}).Info("Booking import finished")

	u.notifier.ImportCompleted(ctx, entity.ImportNotification{
		Action:  entity.AuditActionBookingImport,
		ActorID: actorPtr(ctx),
		Source:  BookingSchema.Name,
		Result:  *result,
		At:      now,
	})

	return converter.BatchResultToResponse(result), nil
}

// bookingFromRecord validates one row against the resolved references. An
// unresolved hospital keeps the typed name without ids.
func bookingFromRecord(
	rec csvbatch.Record,
	referees service.IDMap,
	agents service.IDMap,
	hospitals map[string]entity.Hospital,
	now time.Time,
) (entity.OpdBooking, error) {
	gender := strings.ToLower(rec.String("gender"))
	if gender != "" && !validGenders[gender] {
		return entity.OpdBooking{}, apperr.InvalidValue("gender must be male, female or other", rec.String("gender"))
	}
	age := rec.Int("age")
	if age < 0 || age > 130 {
		return entity.OpdBooking{}, apperr.InvalidValue("age is out of range", rec.String("age"))
	}

	refereeID, err := referees.Lookup(rec.Phone("referee_phone"), rec.String("referee_phone"), "referee doctor")
	if err != nil {
		return entity.OpdBooking{}, err
	}
	agentID, err := agents.Lookup(service.NameKey(rec.String("agent_name")), rec.String("agent_name"), "agent")
	if err != nil {
		return entity.OpdBooking{}, err
	}

	booking := entity.OpdBooking{
		BookingReference: rec.String("booking_reference"),
		PatientName:      rec.String("patient_name"),
		PatientPhone:     rec.Phone("patient_phone"),
		PatientGender:    gender,
		MedicalCondition: rec.String("medical_condition"),
		City:             rec.String("city"),
		HospitalName:     rec.String("hospital_name"),
		HospitalIDs:      entity.StringList{},
		RefereeID:        refereeID,
		CreatedByAgentID: agentID,
		PaymentMode:      rec.String("payment_mode"),
		EstimatedAmount:  decimal.Zero,
		DocumentURLs:     entity.StringList{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if rec.String("age") != "" {
		booking.PatientAge = &age
	}
	if h, ok := hospitals[entity.HospitalKey{City: booking.City, Name: booking.HospitalName}.String()]; ok {
		booking.HospitalName = h.Name
		booking.HospitalIDs = entity.StringList{h.ID.String()}
	}
	if rec.String("appointment_date") != "" {
		date := rec.Time("appointment_date")
		booking.AppointmentDate = &date
	}
	if amount, ok := rec.Float("estimated_amount"); ok {
		if amount < 0 {
			return entity.OpdBooking{}, apperr.InvalidValue("estimated_amount must not be negative", rec.String("estimated_amount"))
		}
		booking.EstimatedAmount = decimal.NewFromFloat(amount).Round(2)
	}
	if rec.String("created_at") != "" {
		booking.CreatedAt = rec.Time("created_at")
	}
	return booking, nil
}
