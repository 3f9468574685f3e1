package usecase

import (
	"context"
	"io"
	"strings"
	"time"

	"healthcare-crm-backend/internal/converter"
	"healthcare-crm-backend/internal/delivery/dto"
	"healthcare-crm-backend/internal/delivery/http/middleware"
	"healthcare-crm-backend/internal/domain/entity"
	"healthcare-crm-backend/internal/domain/repository"
	"healthcare-crm-backend/internal/infrastructure/database"
	"healthcare-crm-backend/internal/service"
	"healthcare-crm-backend/pkg/apperr"
	"healthcare-crm-backend/pkg/csvbatch"
	"healthcare-crm-backend/pkg/phone"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MeetingSchema is the column layout of a meeting upload.
var MeetingSchema = csvbatch.Schema{
	Name: "meetings",
	Fields: []csvbatch.Field{
		{Name: "doctor_name", Kind: csvbatch.String, Required: true},
		{Name: "doctor_phone", Kind: csvbatch.Phone, Required: true},
		{Name: "locality", Kind: csvbatch.String},
		{Name: "latitude", Kind: csvbatch.Float},
		{Name: "longitude", Kind: csvbatch.Float},
		{Name: "gps_link", Kind: csvbatch.String},
		{Name: "agent_phone", Kind: csvbatch.Phone, Required: true},
		{Name: "meeting_type", Kind: csvbatch.String, Required: true},
		{Name: "duration", Kind: csvbatch.Int},
		{Name: "summary", Kind: csvbatch.String},
		{Name: "meeting_time", Kind: csvbatch.Time, Required: true},
	},
}

type DoctorMeetingUsecase interface {
	ImportMeetingsCSV(ctx context.Context, r io.Reader) (*dto.BatchResultResponse, error)
	CreateMeeting(ctx context.Context, req *dto.CreateMeetingRequest) (*dto.CreateMeetingResponse, error)
	ListDoctorMeetings(ctx context.Context, doctorID uuid.UUID) (*dto.MeetingListResponse, error)
	DeleteMeeting(ctx context.Context, id uuid.UUID) error
}

type doctorMeetingUsecase struct {
	transactor  database.Transactor
	log         *logrus.Logger
	resolver    service.IdentityResolver
	engine      service.BulkUpsertService
	notifier    service.NotificationService
	doctorRepo  repository.DoctorRepository
	meetingRepo repository.DoctorMeetingRepository
	now         func() time.Time
}

func NewDoctorMeetingUsecase(
	transactor database.Transactor,
	log *logrus.Logger,
	resolver service.IdentityResolver,
	engine service.BulkUpsertService,
	notifier service.NotificationService,
	doctorRepo repository.DoctorRepository,
	meetingRepo repository.DoctorMeetingRepository,
) DoctorMeetingUsecase {
	return &doctorMeetingUsecase{
		transactor:  transactor,
		log:         log,
		resolver:    resolver,
		engine:      engine,
		notifier:    notifier,
		doctorRepo:  doctorRepo,
		meetingRepo: meetingRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (u *doctorMeetingUsecase) ImportMeetingsCSV(ctx context.Context, r io.Reader) (*dto.BatchResultResponse, error) {
	batch, err := csvbatch.Parse(r, MeetingSchema)
	if err != nil {
		return nil, err
	}

	result := &entity.BatchResult{TotalRows: batch.Total()}
	for _, rej := range batch.Rejected {
		result.Fail(rej.RowNumber, rej.Reason)
	}

	now := u.now()
	err = u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		agentPhones := make([]string, 0, len(batch.Records))
		for _, rec := range batch.Records {
			agentPhones = append(agentPhones, rec.Phone("agent_phone"))
		}
		agents, err := u.resolver.ResolveAgentsByPhone(tx, agentPhones)
		if err != nil {
			return apperr.Persistence("failed to resolve agents", err)
		}

		rows := make([]service.MeetingImportRow, 0, len(batch.Records))
		for _, rec := range batch.Records {
			row, err := meetingRowFromRecord(rec, agents)
			if err != nil {
				result.Fail(rec.RowNumber, err.Error())
				continue
			}
			rows = append(rows, row)
		}

		upserted, err := u.engine.UpsertMeetings(ctx, tx, rows, now)
		if err != nil {
			return err
		}
		result.Merge(upserted)
		return nil
	})
	if err != nil {
		u.log.Warnf("Failed to import meetings: %+v", err)
		return nil, persistenceError("failed to import meetings", err)
	}

	result.SortFailures()

	actorID := actorPtr(ctx)
	u.notifier.ImportCompleted(ctx, entity.ImportNotification{
		Action:  entity.AuditActionMeetingImport,
		ActorID: actorID,
		Source:  MeetingSchema.Name,
		Result:  *result,
		At:      now,
	})

	return converter.BatchResultToResponse(result), nil
}

func meetingRowFromRecord(rec csvbatch.Record, agents service.IDMap) (service.MeetingImportRow, error) {
	meetingType := strings.ToLower(rec.String("meeting_type"))
	if !entity.IsValidMeetingType(meetingType) {
		return service.MeetingImportRow{}, apperr.InvalidValue("meeting_type must be physical or call", rec.String("meeting_type"))
	}
	duration := rec.Int("duration")
	if duration < 0 {
		return service.MeetingImportRow{}, apperr.InvalidValue("duration must not be negative", rec.String("duration"))
	}

	agentID, err := agents.Lookup(rec.Phone("agent_phone"), rec.String("agent_phone"), "agent")
	if err != nil {
		return service.MeetingImportRow{}, err
	}

	doctor := entity.Doctor{
		FullName: rec.String("doctor_name"),
		Phone:    rec.Phone("doctor_phone"),
		Locality: rec.String("locality"),
		GPSLink:  rec.String("gps_link"),
		Status:   entity.DoctorStatusActive,
	}
	meeting := entity.DoctorMeeting{
		MeetingType:     meetingType,
		DurationMinutes: duration,
		Locality:        rec.String("locality"),
		Summary:         rec.String("summary"),
	}
	if lat, ok := rec.Float("latitude"); ok {
		doctor.Latitude = &lat
		meeting.Latitude = &lat
	}
	if lng, ok := rec.Float("longitude"); ok {
		doctor.Longitude = &lng
		meeting.Longitude = &lng
	}

	return service.MeetingImportRow{
		RowNumber:   rec.RowNumber,
		Doctor:      doctor,
		Observation: entity.Observation{At: rec.Time("meeting_time"), AgentID: agentID},
		Meeting:     meeting,
	}, nil
}

func (u *doctorMeetingUsecase) CreateMeeting(ctx context.Context, req *dto.CreateMeetingRequest) (*dto.CreateMeetingResponse, error) {
	agentID, ok := middleware.GetAgentIDFromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}
	doctorPhone, err := phone.Normalize(req.DoctorPhone)
	if err != nil {
		return nil, err
	}
	meetingType := strings.ToLower(req.MeetingType)
	if !entity.IsValidMeetingType(meetingType) {
		return nil, apperr.InvalidValue("meeting_type must be physical or call", req.MeetingType)
	}

	now := u.now()
	at := now
	if req.MeetingTime != nil {
		at = req.MeetingTime.UTC()
	}
	obs := entity.Observation{At: at, AgentID: agentID}

	meeting := &entity.DoctorMeeting{
		ID:              uuid.New(),
		AgentID:         agentID,
		MeetingType:     meetingType,
		DurationMinutes: req.Duration,
		Locality:        req.Locality,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		Photos:          entity.StringList(req.Photos),
		Notes:           req.Notes,
		Summary:         req.Summary,
		GPSVerified:     req.GPSVerified,
		CreatedAt:       at,
	}

	var doctor *entity.Doctor
	doctorCreated := false
	err = u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		existing, err := u.doctorRepo.FindByPhoneForUpdate(tx, doctorPhone)
		if err != nil {
			return err
		}

		if existing == nil {
			doctor = &entity.Doctor{
				ID:        uuid.New(),
				FullName:  req.DoctorName,
				Phone:     doctorPhone,
				Locality:  req.Locality,
				Latitude:  req.Latitude,
				Longitude: req.Longitude,
				GPSLink:   req.GPSLink,
				Status:    entity.DoctorStatusActive,
			}
			doctor.ApplyWindow(entity.NewActivityWindow(obs))
			if err := u.doctorRepo.Create(tx, doctor); err != nil {
				if isDuplicateKeyError(err, "phone") {
					return apperr.Conflict("doctor was created concurrently, retry the request")
				}
				return err
			}
			doctorCreated = true
		} else {
			doctor = existing
			window := existing.Window().Reconcile(obs)
			if _, err := u.doctorRepo.UpdateWindow(tx, doctorPhone, window); err != nil {
				return err
			}
			doctor.ApplyWindow(window)
		}

		meeting.DoctorID = doctor.ID
		return u.meetingRepo.Create(tx, meeting)
	})
	if err != nil {
		u.log.Warnf("Failed to create meeting: %+v", err)
		return nil, persistenceError("failed to create meeting", err)
	}

	u.notifier.Record(ctx, &agentID, entity.AuditActionMeetingCreate, entity.JSON{
		"meeting_id":     meeting.ID.String(),
		"doctor_id":      doctor.ID.String(),
		"doctor_phone":   doctor.Phone,
		"doctor_created": doctorCreated,
	})

	return &dto.CreateMeetingResponse{
		Meeting:       *converter.MeetingToResponse(meeting),
		DoctorID:      doctor.ID,
		DoctorPhone:   doctor.Phone,
		DoctorCreated: doctorCreated,
		Window:        converter.WindowToResponse(doctor.Window()),
	}, nil
}

func (u *doctorMeetingUsecase) ListDoctorMeetings(ctx context.Context, doctorID uuid.UUID) (*dto.MeetingListResponse, error) {
	db := u.transactor.DB(ctx)

	doctor, err := u.doctorRepo.FindByID(db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor: %+v", err)
		return nil, persistenceError("failed to find doctor", err)
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	meetings, err := u.meetingRepo.FindByDoctorID(db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to list meetings: %+v", err)
		return nil, persistenceError("failed to list meetings", err)
	}

	return &dto.MeetingListResponse{
		Meetings: converter.MeetingsToResponses(meetings),
		Total:    len(meetings),
	}, nil
}

func (u *doctorMeetingUsecase) DeleteMeeting(ctx context.Context, id uuid.UUID) error {
	affected, err := u.meetingRepo.Delete(u.transactor.DB(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to delete meeting: %+v", err)
		return persistenceError("failed to delete meeting", err)
	}
	if affected == 0 {
		return ErrMeetingNotFound
	}

	u.notifier.Record(ctx, actorPtr(ctx), entity.AuditActionMeetingDelete, entity.JSON{
		"meeting_id": id.String(),
	})
	return nil
}

// actorPtr returns the authenticated agent id, or nil for system callers such as the CLI.
func actorPtr(ctx context.Context) *uuid.UUID {
	agentID, ok := middleware.GetAgentIDFromContext(ctx)
	if !ok {
		return nil
	}
	return &agentID
}
