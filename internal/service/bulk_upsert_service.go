package service

import (
	"context"
	"fmt"
	"time"

	"healthcare-crm-backend/internal/domain/entity"
	"healthcare-crm-backend/internal/domain/repository"
	"healthcare-crm-backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultChunkSize is the number of rows per multi-row statement.
const DefaultChunkSize = 5000

// MeetingImportRow is one validated meeting row with its doctor's attributes.
// Doctor.Phone is the canonical natural key.
type MeetingImportRow struct {
	RowNumber   int
	Doctor      entity.Doctor
	Observation entity.Observation
	Meeting     entity.DoctorMeeting
}

// BulkUpsertService writes a batch of meeting rows: existing doctors get their
// reconciled window, missing doctors are inserted, then meetings are inserted
// against the resulting ids.
type BulkUpsertService interface {
	UpsertMeetings(ctx context.Context, tx *gorm.DB, rows []MeetingImportRow, now time.Time) (*entity.BatchResult, error)
}

type bulkUpsertService struct {
	log         *logrus.Logger
	resolver    IdentityResolver
	doctorRepo  repository.DoctorRepository
	meetingRepo repository.DoctorMeetingRepository
	chunkSize   int
}

func NewBulkUpsertService(
	log *logrus.Logger,
	resolver IdentityResolver,
	doctorRepo repository.DoctorRepository,
	meetingRepo repository.DoctorMeetingRepository,
	chunkSize int,
) BulkUpsertService {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &bulkUpsertService{
		log:         log,
		resolver:    resolver,
		doctorRepo:  doctorRepo,
		meetingRepo: meetingRepo,
		chunkSize:   chunkSize,
	}
}

// pendingDoctor accumulates the insert for a phone not yet in the store.
type pendingDoctor struct {
	doctor entity.Doctor
	window entity.ActivityWindow
}

func (s *bulkUpsertService) UpsertMeetings(ctx context.Context, tx *gorm.DB, rows []MeetingImportRow, now time.Time) (*entity.BatchResult, error) {
	result := &entity.BatchResult{}
	if len(rows) == 0 {
		return result, nil
	}

	// Phase 1: one lookup for every distinct phone.
	phones := make([]string, 0, len(rows))
	for _, row := range rows {
		phones = append(phones, row.Doctor.Phone)
	}
	existing, err := s.resolver.LoadDoctors(tx, phones)
	if err != nil {
		return nil, apperr.Persistence("failed to load doctors", err)
	}

	// Phase 2: fold observations in file order and tag each meeting with its doctor.
	updates := make(map[string]entity.ActivityWindow)
	var updateOrder []string
	inserts := make(map[string]*pendingDoctor)
	var insertOrder []string
	refs := make([]entity.DoctorRef, len(rows))

	for i, row := range rows {
		p := row.Doctor.Phone
		if known, ok := existing[p]; ok {
			w, seen := updates[p]
			if !seen {
				w = known.Window
				updateOrder = append(updateOrder, p)
			}
			updates[p] = w.Reconcile(row.Observation)
			refs[i] = entity.ResolvedDoctor(known.ID)
			continue
		}

		if pending, ok := inserts[p]; ok {
			pending.window = pending.window.Reconcile(row.Observation)
		} else {
			inserts[p] = &pendingDoctor{doctor: row.Doctor, window: entity.NewActivityWindow(row.Observation)}
			insertOrder = append(insertOrder, p)
		}
		refs[i] = entity.PendingDoctor(p)
	}

	// Phase 3: one update per existing phone.
	for _, p := range updateOrder {
		affected, err := s.doctorRepo.UpdateWindow(tx, p, updates[p])
		if err != nil {
			return nil, apperr.Persistence(fmt.Sprintf("failed to update doctor %s", p), err)
		}
		result.Updated += int(affected)
	}

	// Phase 4: chunked insert of new doctors, collecting generated ids.
	created := map[string]uuid.UUID{}
	if len(insertOrder) > 0 {
		doctors := make([]entity.Doctor, 0, len(insertOrder))
		for _, p := range insertOrder {
			pending := inserts[p]
			d := pending.doctor
			d.ApplyWindow(pending.window)
			if d.Status == "" {
				d.Status = entity.DoctorStatusActive
			}
			d.CreatedAt = now
			d.UpdatedAt = now
			doctors = append(doctors, d)
		}
		created, err = s.doctorRepo.InsertBatch(tx, doctors, s.chunkSize)
		if err != nil {
			return nil, apperr.Persistence("failed to insert doctors", err)
		}
		result.NewlyCreated = len(created)
	}

	// Phase 5: resolve pending references, then insert meetings.
	meetings := make([]entity.DoctorMeeting, 0, len(rows))
	for i, row := range rows {
		ref, ok := refs[i].Resolve(created)
		if !ok {
			result.Fail(row.RowNumber, fmt.Sprintf("doctor %s was not created; meeting skipped", refs[i].Phone()))
			continue
		}
		m := row.Meeting
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		m.DoctorID = ref.ID()
		m.AgentID = row.Observation.AgentID
		m.CreatedAt = row.Observation.At
		meetings = append(meetings, m)
	}

	inserted, err := s.meetingRepo.InsertBatch(tx, meetings, s.chunkSize)
	if err != nil {
		return nil, apperr.Persistence("failed to insert meetings", err)
	}
	result.DependentCreated = int(inserted)

	s.log.WithFields(logrus.Fields{
		"rows":             len(rows),
		"doctors_created":  result.NewlyCreated,
		"doctors_updated":  result.Updated,
		"meetings_created": result.DependentCreated,
		"meetings_skipped": result.FailedCount,
	}).Info("Meeting batch upserted")

	return result, nil
}
