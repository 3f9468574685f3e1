package usecase

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"healthcare-crm-backend/internal/converter"
	"healthcare-crm-backend/internal/delivery/dto"
	"healthcare-crm-backend/internal/delivery/http/middleware"
	"healthcare-crm-backend/internal/domain/entity"
	"healthcare-crm-backend/internal/domain/repository"
	"healthcare-crm-backend/internal/infrastructure/database"
	"healthcare-crm-backend/internal/infrastructure/storage"
	"healthcare-crm-backend/internal/service"
	"healthcare-crm-backend/pkg/apperr"
	"healthcare-crm-backend/pkg/phone"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	maxDispositionLength = 100
	defaultPageLimit     = 20
	maxPageLimit         = 100
)

// DocumentUploader stores a local file and returns its links. The local file
// is removed whatever the outcome.
type DocumentUploader interface {
	Upload(ctx context.Context, localPath, mimeType, desiredName string) (*storage.UploadResult, error)
}

type OpdBookingUsecase interface {
	CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*dto.BookingResponse, error)
	GetBooking(ctx context.Context, reference string) (*dto.BookingResponse, error)
	ListBookings(ctx context.Context, req *dto.ListBookingsRequest) (*dto.BookingListResponse, error)
	UpdateBooking(ctx context.Context, reference string, req *dto.UpdateBookingRequest) (*dto.BookingResponse, error)
	AttachDocument(ctx context.Context, reference string, upload dto.DocumentUpload) (*dto.DocumentResponse, error)
	DeleteBooking(ctx context.Context, reference string) error
	AdvanceDisposition(ctx context.Context, reference string, req *dto.AdvanceDispositionRequest) (*dto.DispositionResponse, error)
	GetDispositionHistory(ctx context.Context, reference string) ([]dto.DispositionLogResponse, error)
}

type opdBookingUsecase struct {
	transactor         database.Transactor
	log                *logrus.Logger
	resolver           service.IdentityResolver
	notifier           service.NotificationService
	uploader           DocumentUploader
	bookingRepo        repository.OpdBookingRepository
	dispositionLogRepo repository.DispositionLogRepository
	hospitalRepo       repository.HospitalRepository
	now                func() time.Time
}

func NewOpdBookingUsecase(
	transactor database.Transactor,
	log *logrus.Logger,
	resolver service.IdentityResolver,
	notifier service.NotificationService,
	uploader DocumentUploader,
	bookingRepo repository.OpdBookingRepository,
	dispositionLogRepo repository.DispositionLogRepository,
	hospitalRepo repository.HospitalRepository,
) OpdBookingUsecase {
	return &opdBookingUsecase{
		transactor:         transactor,
		log:                log,
		resolver:           resolver,
		notifier:           notifier,
		uploader:           uploader,
		bookingRepo:        bookingRepo,
		dispositionLogRepo: dispositionLogRepo,
		hospitalRepo:       hospitalRepo,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// AdvanceDisposition moves a booking to a new disposition label. The read of
// the current label, the log row and the pointer update share one transaction
// and one timestamp; notifications go out only after commit.
func (u *opdBookingUsecase) AdvanceDisposition(ctx context.Context, reference string, req *dto.AdvanceDispositionRequest) (*dto.DispositionResponse, error) {
	actorID, ok := middleware.GetAgentIDFromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	label := strings.TrimSpace(req.Disposition)
	if label == "" {
		return nil, apperr.Validation("disposition is required")
	}
	if utf8.RuneCountInString(label) > maxDispositionLength {
		return nil, apperr.InvalidValue("disposition is too long", label)
	}

	var selection *entity.HospitalSelection
	if strings.TrimSpace(req.HospitalName) != "" || len(req.HospitalIDs) > 0 {
		selection = &entity.HospitalSelection{Name: strings.TrimSpace(req.HospitalName), IDs: req.HospitalIDs}
	}

	now := u.now()

	var (
		snapshot *entity.BookingSnapshot
		logRow   *entity.DispositionLog
		groupIDs []string
	)
	err := u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		snapshot, err = u.bookingRepo.LockSnapshot(tx, reference)
		if err != nil {
			return err
		}
		if snapshot == nil {
			return ErrBookingNotFound
		}

		if selection != nil && len(selection.IDs) == 0 {
			key := entity.HospitalKey{City: snapshot.City, Name: selection.Name}
			matches, err := u.resolver.ResolveHospitals(tx, []entity.HospitalKey{key})
			if err != nil {
				return err
			}
			if h, ok := matches[key.String()]; ok {
				selection.Name = h.Name
				selection.IDs = []string{h.ID.String()}
			}
		}

		hospitalName := snapshot.HospitalName
		hospitalIDs := []string(snapshot.HospitalIDs)
		if selection != nil && len(selection.IDs) > 0 {
			hospitalIDs = selection.IDs
		}
		hospitals, err := u.hospitalRepo.FindByIDs(tx, hospitalIDs)
		if err != nil {
			return err
		}
		if selection != nil {
			if len(selection.IDs) > 0 && len(hospitals) != len(uniqueStrings(selection.IDs)) {
				return apperr.ReferenceNotFound("hospital not found", strings.Join(selection.IDs, ","))
			}
			if selection.Name == "" && len(hospitals) > 0 {
				selection.Name = hospitals[0].Name
			}
			hospitalName = selection.Name
		}
		groupIDs = hospitalGroupIDs(hospitals)

		logRow = &entity.DispositionLog{
			OpdBookingID:        snapshot.ID,
			PreviousDisposition: snapshot.CurrentDisposition,
			NewDisposition:      label,
			Notes:               req.Notes,
			HospitalName:        hospitalName,
			UpdatedByUserID:     actorID,
			CreatedAt:           now,
		}
		if err := u.dispositionLogRepo.Create(tx, logRow); err != nil {
			return err
		}

		return u.bookingRepo.UpdateDisposition(tx, snapshot.ID, label, selection, now)
	})
	if err != nil {
		u.log.Warnf("Failed to advance disposition for %s: %+v", reference, err)
		return nil, persistenceError("failed to advance disposition", err)
	}

	previous := ""
	if logRow.PreviousDisposition != nil {
		previous = *logRow.PreviousDisposition
	}
	u.notifier.DispositionChanged(ctx, entity.DispositionNotification{
		BookingID:           snapshot.ID,
		BookingReference:    snapshot.BookingReference,
		PatientName:         snapshot.PatientName,
		PatientPhone:        snapshot.PatientPhone,
		PaymentMode:         snapshot.PaymentMode,
		HospitalName:        logRow.HospitalName,
		HospitalGroupIDs:    groupIDs,
		PreviousDisposition: previous,
		NewDisposition:      label,
		Notes:               req.Notes,
		Agent: entity.Contact{
			Name:  strings.TrimSpace(snapshot.AgentFirstName + " " + snapshot.AgentLastName),
			Phone: snapshot.AgentPhone,
		},
		Referee: entity.Contact{Name: snapshot.RefereeName, Phone: snapshot.RefereePhone},
		ActorID: actorID,
		At:      now,
	})

	return &dto.DispositionResponse{
		BookingID:           snapshot.ID,
		BookingReference:    snapshot.BookingReference,
		LogID:               logRow.ID,
		PreviousDisposition: logRow.PreviousDisposition,
		NewDisposition:      label,
		HospitalName:        logRow.HospitalName,
		UpdatedAt:           now,
	}, nil
}

func (u *opdBookingUsecase) GetDispositionHistory(ctx context.Context, reference string) ([]dto.DispositionLogResponse, error) {
	db := u.transactor.DB(ctx)

	booking, err := u.bookingRepo.FindByReference(db, reference)
	if err != nil {
		u.log.Warnf("Failed to find booking: %+v", err)
		return nil, persistenceError("failed to find booking", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	logs, err := u.dispositionLogRepo.FindByBookingID(db, booking.ID)
	if err != nil {
		u.log.Warnf("Failed to list disposition logs: %+v", err)
		return nil, persistenceError("failed to list disposition logs", err)
	}
	return converter.DispositionLogsToResponses(logs), nil
}

func (u *opdBookingUsecase) CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	actorID, ok := middleware.GetAgentIDFromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}
	reference := strings.TrimSpace(req.BookingReference)
	if reference == "" {
		return nil, apperr.Validation("booking_reference is required")
	}
	patientPhone, err := phone.Normalize(req.PatientPhone)
	if err != nil {
		return nil, err
	}
	refereePhone, err := phone.Normalize(req.RefereePhone)
	if err != nil {
		return nil, err
	}
	appointment, err := parseDate(req.AppointmentDate)
	if err != nil {
		return nil, err
	}

	now := u.now()
	booking := &entity.OpdBooking{
		ID:               uuid.New(),
		BookingReference: reference,
		PatientName:      strings.TrimSpace(req.PatientName),
		PatientPhone:     patientPhone,
		PatientAge:       req.PatientAge,
		PatientGender:    strings.ToLower(req.PatientGender),
		MedicalCondition: req.MedicalCondition,
		City:             strings.TrimSpace(req.City),
		HospitalName:     strings.TrimSpace(req.HospitalName),
		HospitalIDs:      entity.StringList(req.HospitalIDs),
		CreatedByAgentID: actorID,
		AppointmentDate:  appointment,
		AppointmentTime:  req.AppointmentTime,
		PaymentMode:      req.PaymentMode,
		EstimatedAmount:  decimal.Zero,
		DocumentURLs:     entity.StringList{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.EstimatedAmount != nil {
		booking.EstimatedAmount = *req.EstimatedAmount
	}

	var (
		created  *entity.OpdBooking
		groupIDs []string
	)
	err = u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		referees, err := u.resolver.ResolveDoctors(tx, []string{refereePhone})
		if err != nil {
			return err
		}
		booking.RefereeID, err = referees.Lookup(refereePhone, req.RefereePhone, "referee doctor")
		if err != nil {
			return err
		}

		hospitals, err := u.hospitalRepo.FindByIDs(tx, req.HospitalIDs)
		if err != nil {
			return err
		}
		if len(hospitals) != len(uniqueStrings(req.HospitalIDs)) {
			return apperr.ReferenceNotFound("hospital not found", strings.Join(req.HospitalIDs, ","))
		}
		if booking.HospitalName == "" && len(hospitals) > 0 {
			booking.HospitalName = hospitals[0].Name
		}
		groupIDs = hospitalGroupIDs(hospitals)

		if err := u.bookingRepo.Create(tx, booking); err != nil {
			if isDuplicateKeyError(err, "reference") {
				return ErrBookingExists
			}
			if isForeignKeyError(err, "referee") {
				return apperr.ReferenceNotFound("referee doctor not found", req.RefereePhone)
			}
			return err
		}

		created, err = u.bookingRepo.FindByReference(tx, reference)
		return err
	})
	if err != nil {
		u.log.Warnf("Failed to create booking: %+v", err)
		return nil, persistenceError("failed to create booking", err)
	}

	notification := entity.BookingNotification{
		BookingID:        created.ID,
		BookingReference: created.BookingReference,
		PatientName:      created.PatientName,
		PatientPhone:     created.PatientPhone,
		MedicalCondition: created.MedicalCondition,
		City:             created.City,
		HospitalName:     created.HospitalName,
		HospitalGroupIDs: groupIDs,
		AppointmentDate:  created.AppointmentDate,
		PaymentMode:      created.PaymentMode,
		ActorID:          actorID,
		At:               now,
	}
	if created.CreatedByAgent != nil {
		notification.Agent = entity.Contact{Name: created.CreatedByAgent.FullName(), Phone: created.CreatedByAgent.Phone}
	}
	if created.Referee != nil {
		notification.Referee = entity.Contact{Name: created.Referee.FullName, Phone: created.Referee.Phone}
	}
	u.notifier.BookingCreated(ctx, notification)

	return converter.BookingToResponse(created), nil
}

func (u *opdBookingUsecase) GetBooking(ctx context.Context, reference string) (*dto.BookingResponse, error) {
	booking, err := u.bookingRepo.FindByReference(u.transactor.DB(ctx), reference)
	if err != nil {
		u.log.Warnf("Failed to find booking: %+v", err)
		return nil, persistenceError("failed to find booking", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return converter.BookingToResponse(booking), nil
}

// ListBookings restricts NDMs to the bookings they created.
func (u *opdBookingUsecase) ListBookings(ctx context.Context, req *dto.ListBookingsRequest) (*dto.BookingListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	filter := entity.BookingFilter{
		AgentID:     req.AgentID,
		Disposition: strings.TrimSpace(req.Disposition),
		From:        req.From,
		To:          req.To,
		Limit:       limit,
		Offset:      (page - 1) * limit,
	}
	if role, _ := middleware.GetRoleFromContext(ctx); role == entity.RoleNDM {
		filter.AgentID = actorPtr(ctx)
	}

	bookings, total, err := u.bookingRepo.FindAll(u.transactor.DB(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to list bookings: %+v", err)
		return nil, persistenceError("failed to list bookings", err)
	}

	return &dto.BookingListResponse{
		Bookings: converter.BookingsToResponses(bookings),
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

func (u *opdBookingUsecase) UpdateBooking(ctx context.Context, reference string, req *dto.UpdateBookingRequest) (*dto.BookingResponse, error) {
	fields := map[string]interface{}{}
	if req.PatientAge != nil {
		fields["patient_age"] = *req.PatientAge
	}
	if req.PatientGender != nil {
		fields["patient_gender"] = strings.ToLower(*req.PatientGender)
	}
	if req.MedicalCondition != nil {
		fields["medical_condition"] = *req.MedicalCondition
	}
	if req.AppointmentDate != nil {
		date, err := parseDate(*req.AppointmentDate)
		if err != nil {
			return nil, err
		}
		fields["appointment_date"] = date
	}
	if req.AppointmentTime != nil {
		fields["appointment_time"] = *req.AppointmentTime
	}
	if req.PaymentMode != nil {
		fields["payment_mode"] = *req.PaymentMode
	}
	if req.EstimatedAmount != nil {
		if req.EstimatedAmount.IsNegative() {
			return nil, apperr.InvalidValue("estimated_amount must not be negative", req.EstimatedAmount.String())
		}
		fields["estimated_amount"] = *req.EstimatedAmount
	}
	if len(fields) == 0 {
		return nil, ErrNothingToUpdate
	}
	fields["updated_at"] = u.now()

	var before, after *entity.OpdBooking
	err := u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		before, err = u.bookingRepo.FindByReference(tx, reference)
		if err != nil {
			return err
		}
		if before == nil {
			return ErrBookingNotFound
		}
		if err := u.bookingRepo.UpdateFields(tx, before.ID, fields); err != nil {
			return err
		}
		after, err = u.bookingRepo.FindByReference(tx, reference)
		return err
	})
	if err != nil {
		u.log.Warnf("Failed to update booking: %+v", err)
		return nil, persistenceError("failed to update booking", err)
	}

	u.notifier.Record(ctx, actorPtr(ctx), entity.AuditActionBookingUpdate, entity.JSON{
		"entity":    "opd_booking",
		"entity_id": after.ID.String(),
		"old_value": converter.BookingToResponse(before),
		"new_value": converter.BookingToResponse(after),
	})

	return converter.BookingToResponse(after), nil
}

func (u *opdBookingUsecase) AttachDocument(ctx context.Context, reference string, upload dto.DocumentUpload) (*dto.DocumentResponse, error) {
	booking, err := u.bookingRepo.FindByReference(u.transactor.DB(ctx), reference)
	if err != nil || booking == nil || u.uploader == nil {
		_ = os.Remove(upload.LocalPath)
		switch {
		case err != nil:
			u.log.Warnf("Failed to find booking: %+v", err)
			return nil, persistenceError("failed to find booking", err)
		case booking == nil:
			return nil, ErrBookingNotFound
		default:
			return nil, ErrUploadUnavailable
		}
	}

	name := upload.FileName
	if name == "" {
		name = "document"
	}
	uploaded, err := u.uploader.Upload(ctx, upload.LocalPath, upload.MimeType, booking.BookingReference+"_"+name)
	if err != nil {
		u.log.Warnf("Failed to upload document for %s: %+v", reference, err)
		return nil, err
	}

	link, err := json.Marshal([]string{uploaded.ShareLink})
	if err != nil {
		return nil, err
	}

	var updated *entity.OpdBooking
	err = u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if err := u.bookingRepo.UpdateFields(tx, booking.ID, map[string]interface{}{
			"document_urls": gorm.Expr("COALESCE(document_urls, '[]'::jsonb) || ?::jsonb", string(link)),
			"updated_at":    u.now(),
		}); err != nil {
			return err
		}
		updated, err = u.bookingRepo.FindByReference(tx, reference)
		return err
	})
	if err != nil {
		u.log.Warnf("Failed to attach document: %+v", err)
		return nil, persistenceError("failed to attach document", err)
	}

	u.notifier.Record(ctx, actorPtr(ctx), entity.AuditActionBookingDocument, entity.JSON{
		"booking_reference": booking.BookingReference,
		"share_link":        uploaded.ShareLink,
	})

	return &dto.DocumentResponse{
		BookingReference: updated.BookingReference,
		ShareLink:        uploaded.ShareLink,
		DirectLink:       uploaded.DirectLink,
		DocumentURLs:     []string(updated.DocumentURLs),
	}, nil
}

func (u *opdBookingUsecase) DeleteBooking(ctx context.Context, reference string) error {
	var booking *entity.OpdBooking
	err := u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		booking, err = u.bookingRepo.FindByReference(tx, reference)
		if err != nil {
			return err
		}
		if booking == nil {
			return ErrBookingNotFound
		}
		_, err = u.bookingRepo.Delete(tx, booking.ID)
		return err
	})
	if err != nil {
		u.log.Warnf("Failed to delete booking: %+v", err)
		return persistenceError("failed to delete booking", err)
	}

	u.notifier.Record(ctx, actorPtr(ctx), entity.AuditActionBookingDelete, entity.JSON{
		"entity":    "opd_booking",
		"entity_id": booking.ID.String(),
		"old_value": converter.BookingToResponse(booking),
	})
	return nil
}

func parseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, apperr.InvalidValue("invalid date format, use YYYY-MM-DD", value)
	}
	return &t, nil
}

func hospitalGroupIDs(hospitals []entity.Hospital) []string {
	var ids []string
	seen := map[string]struct{}{}
	for _, h := range hospitals {
		if h.GroupID == "" {
			continue
		}
		if _, ok := seen[h.GroupID]; ok {
			continue
		}
		seen[h.GroupID] = struct{}{}
		ids = append(ids, h.GroupID)
	}
	return ids
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
