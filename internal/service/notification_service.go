package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"healthcare-crm-backend/internal/domain/entity"
	"healthcare-crm-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Upper bound for one fan-out including every destination.
const defaultNotificationTimeout = 30 * time.Second

// MessageSender delivers a text message to a phone number or group id.
type MessageSender interface {
	Send(ctx context.Context, destination string, body string) error
}

// SheetEnqueuer persists a spreadsheet row for later delivery.
type SheetEnqueuer interface {
	Enqueue(ctx context.Context, jobType string, rowData []string) error
}

// NotificationService fans committed changes out to messaging, the sheet queue
// and the audit trail. Every call returns immediately; failures are logged and
// never reach the caller.
type NotificationService interface {
	DispositionChanged(ctx context.Context, n entity.DispositionNotification)
	BookingCreated(ctx context.Context, n entity.BookingNotification)
	ImportCompleted(ctx context.Context, n entity.ImportNotification)
	// Record writes an audit row in the background.
	Record(ctx context.Context, actorID *uuid.UUID, action string, metadata entity.JSON)
	// Wait stops accepting new fan-outs, then blocks until in-flight ones
	// finish or ctx ends.
	Wait(ctx context.Context) error
}

type notificationService struct {
	transactor   database.Transactor
	log          *logrus.Logger
	auditService AuditService
	sender       MessageSender
	sheets       SheetEnqueuer
	timeout      time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewNotificationService(
	transactor database.Transactor,
	log *logrus.Logger,
	auditService AuditService,
	sender MessageSender,
	sheets SheetEnqueuer,
) NotificationService {
	return &notificationService{
		transactor:   transactor,
		log:          log,
		auditService: auditService,
		sender:       sender,
		sheets:       sheets,
		timeout:      defaultNotificationTimeout,
	}
}

type destination struct {
	name string
	run  func(ctx context.Context) error
}

// dispatch runs every destination concurrently on a context detached from the
// request, so a finished request does not cancel its notifications.
func (s *notificationService) dispatch(ctx context.Context, event string, destinations []destination) {
	base := context.WithoutCancel(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.log.Warnf("Dropping %s fan-out after shutdown", event)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		runCtx, cancel := context.WithTimeout(base, s.timeout)
		defer cancel()

		var g errgroup.Group
		for _, d := range destinations {
			d := d
			g.Go(func() error {
				defer func() {
					if r := recover(); r != nil {
						s.log.Errorf("Panic in %s fan-out to %s: %v", event, d.name, r)
					}
				}()
				if err := d.run(runCtx); err != nil {
					s.log.Warnf("Failed to notify %s for %s: %+v", d.name, event, err)
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
}

func (s *notificationService) Wait(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *notificationService) message(to string, body string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return s.sender.Send(ctx, to, body)
	}
}

func (s *notificationService) audit(actorID uuid.UUID, action string, metadata entity.JSON) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		var actor *uuid.UUID
		if actorID != uuid.Nil {
			actor = &actorID
		}
		return s.auditService.LogEvent(ctx, s.transactor.DB(ctx), actor, action, metadata)
	}
}

func (s *notificationService) DispositionChanged(ctx context.Context, n entity.DispositionNotification) {
	previous := n.PreviousDisposition
	if previous == "" {
		previous = "-"
	}
	body := fmt.Sprintf(
		"Booking %s update\nPatient: %s\nStatus: %s -> %s\nHospital: %s",
		n.BookingReference, n.PatientName, previous, n.NewDisposition, valueOr(n.HospitalName, "-"),
	)
	if n.Notes != "" {
		body += "\nNotes: " + n.Notes
	}

	var destinations []destination
	if s.sender != nil {
		if n.Agent.Phone != "" {
			destinations = append(destinations, destination{"agent " + n.Agent.Phone, s.message(n.Agent.Phone, body)})
		}
		if n.Referee.Phone != "" {
			destinations = append(destinations, destination{"referee " + n.Referee.Phone, s.message(n.Referee.Phone, body)})
		}
		for _, group := range n.HospitalGroupIDs {
			if group == "" {
				continue
			}
			destinations = append(destinations, destination{"hospital group " + group, s.message(group, body)})
		}
	}
	if s.sheets != nil {
		row := []string{
			n.At.Format(time.RFC3339), n.BookingReference, n.PatientName, n.PatientPhone,
			n.PreviousDisposition, n.NewDisposition, n.HospitalName, n.Notes, n.Agent.Name, n.PaymentMode,
		}
		destinations = append(destinations, destination{"sheet queue", func(ctx context.Context) error {
			return s.sheets.Enqueue(ctx, entity.SheetJobDisposition, row)
		}})
	}
	destinations = append(destinations, destination{"audit log", s.audit(n.ActorID, entity.AuditActionDispositionAdvance, entity.JSON{
		"booking_id":           n.BookingID.String(),
		"booking_reference":    n.BookingReference,
		"previous_disposition": n.PreviousDisposition,
		"new_disposition":      n.NewDisposition,
		"hospital_name":        n.HospitalName,
		"at":                   n.At.Format(time.RFC3339Nano),
	})})

	s.dispatch(ctx, "disposition change", destinations)
}

func (s *notificationService) BookingCreated(ctx context.Context, n entity.BookingNotification) {
	appointment := "-"
	if n.AppointmentDate != nil {
		appointment = n.AppointmentDate.Format("02 Jan 2006")
	}
	body := fmt.Sprintf(
		"New OPD booking %s\nPatient: %s\nCondition: %s\nHospital: %s, %s\nAppointment: %s\nReferred by: %s",
		n.BookingReference, n.PatientName, valueOr(n.MedicalCondition, "-"),
		valueOr(n.HospitalName, "-"), valueOr(n.City, "-"), appointment, valueOr(n.Referee.Name, "-"),
	)

	var destinations []destination
	if s.sender != nil {
		if n.Agent.Phone != "" {
			destinations = append(destinations, destination{"agent " + n.Agent.Phone, s.message(n.Agent.Phone, body)})
		}
		for _, group := range n.HospitalGroupIDs {
			if group == "" {
				continue
			}
			destinations = append(destinations, destination{"hospital group " + group, s.message(group, body)})
		}
	}
	if s.sheets != nil {
		row := []string{
			n.At.Format(time.RFC3339), n.BookingReference, n.PatientName, n.PatientPhone, n.MedicalCondition,
			n.City, n.HospitalName, appointment, n.PaymentMode, n.Agent.Name, n.Referee.Name,
		}
		destinations = append(destinations, destination{"sheet queue", func(ctx context.Context) error {
			return s.sheets.Enqueue(ctx, entity.SheetJobBooking, row)
		}})
	}
	destinations = append(destinations, destination{"audit log", s.audit(n.ActorID, entity.AuditActionBookingCreate, entity.JSON{
		"booking_id":        n.BookingID.String(),
		"booking_reference": n.BookingReference,
		"hospital_name":     n.HospitalName,
		"hospital_groups":   strings.Join(n.HospitalGroupIDs, ","),
	})})

	s.dispatch(ctx, "booking creation", destinations)
}

func (s *notificationService) ImportCompleted(ctx context.Context, n entity.ImportNotification) {
	s.Record(ctx, n.ActorID, n.Action, entity.JSON{
		"source":                  n.Source,
		"total_rows":              n.Result.TotalRows,
		"newly_created_count":     n.Result.NewlyCreated,
		"updated_count":           n.Result.Updated,
		"dependent_created_count": n.Result.DependentCreated,
		"failed_count":            n.Result.FailedCount,
		"at":                      n.At.Format(time.RFC3339Nano),
	})
}

func (s *notificationService) Record(ctx context.Context, actorID *uuid.UUID, action string, metadata entity.JSON) {
	actor := uuid.Nil
	if actorID != nil {
		actor = *actorID
	}
	s.dispatch(ctx, action, []destination{{"audit log", s.audit(actor, action, metadata)}})
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
