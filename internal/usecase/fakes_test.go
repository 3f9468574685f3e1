package usecase

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"healthcare-crm-backend/internal/domain/entity"
	"healthcare-crm-backend/internal/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// memStore is an in-memory database shared by the fake repositories. A
// transaction holds txMu for its whole duration, which serializes writers
// the way the row lock does, and restores the saved state on error.
type memStore struct {
	txMu sync.Mutex

	bookings map[string]entity.OpdBooking
	logs     []entity.DispositionLog
	doctors  map[string]entity.Doctor
	meetings []entity.DoctorMeeting
	agents   []entity.Agent

	nextLogID int64
}

func newMemStore() *memStore {
	return &memStore{
		bookings: map[string]entity.OpdBooking{},
		doctors:  map[string]entity.Doctor{},
	}
}

type memState struct {
	bookings  map[string]entity.OpdBooking
	logs      []entity.DispositionLog
	doctors   map[string]entity.Doctor
	meetings  []entity.DoctorMeeting
	nextLogID int64
}

func (s *memStore) save() memState {
	st := memState{
		bookings:  make(map[string]entity.OpdBooking, len(s.bookings)),
		logs:      append([]entity.DispositionLog(nil), s.logs...),
		doctors:   make(map[string]entity.Doctor, len(s.doctors)),
		meetings:  append([]entity.DoctorMeeting(nil), s.meetings...),
		nextLogID: s.nextLogID,
	}
	for k, v := range s.bookings {
		st.bookings[k] = v
	}
	for k, v := range s.doctors {
		st.doctors[k] = v
	}
	return st
}

func (s *memStore) restore(st memState) {
	s.bookings = st.bookings
	s.logs = st.logs
	s.doctors = st.doctors
	s.meetings = st.meetings
	s.nextLogID = st.nextLogID
}

func (s *memStore) agentByID(id uuid.UUID) *entity.Agent {
	for i := range s.agents {
		if s.agents[i].ID == id {
			a := s.agents[i]
			return &a
		}
	}
	return nil
}

func (s *memStore) doctorByID(id uuid.UUID) *entity.Doctor {
	for _, d := range s.doctors {
		if d.ID == id {
			d := d
			return &d
		}
	}
	return nil
}

type memTransactor struct {
	store *memStore
}

func (t memTransactor) DB(ctx context.Context) *gorm.DB { return nil }

func (t memTransactor) WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	saved := t.store.save()
	if err := fn(nil); err != nil {
		t.store.restore(saved)
		return err
	}
	return nil
}

type fakeBookingRepo struct {
	store *memStore

	updateDispositionErr error
	// raced lists references a concurrent writer inserts first.
	raced map[string]bool

	lastFilter  entity.BookingFilter
	lastFields  map[string]interface{}
	insertChunk int
}

func (r *fakeBookingRepo) hydrate(b entity.OpdBooking) *entity.OpdBooking {
	b.CreatedByAgent = r.store.agentByID(b.CreatedByAgentID)
	b.Referee = r.store.doctorByID(b.RefereeID)
	return &b
}

func (r *fakeBookingRepo) Create(db *gorm.DB, booking *entity.OpdBooking) error {
	if _, ok := r.store.bookings[booking.BookingReference]; ok {
		return &pgconn.PgError{Code: "23505", ConstraintName: "opd_bookings_booking_reference_key"}
	}
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	r.store.bookings[booking.BookingReference] = *booking
	return nil
}

func (r *fakeBookingRepo) InsertBatch(db *gorm.DB, bookings []entity.OpdBooking, chunkSize int) (map[string]uuid.UUID, error) {
	r.insertChunk = chunkSize
	ids := map[string]uuid.UUID{}
	for _, b := range bookings {
		if _, ok := r.store.bookings[b.BookingReference]; ok || r.raced[b.BookingReference] {
			continue
		}
		b.ID = uuid.New()
		r.store.bookings[b.BookingReference] = b
		ids[b.BookingReference] = b.ID
	}
	return ids, nil
}

func (r *fakeBookingRepo) FindByReference(db *gorm.DB, reference string) (*entity.OpdBooking, error) {
	b, ok := r.store.bookings[reference]
	if !ok {
		return nil, nil
	}
	return r.hydrate(b), nil
}

func (r *fakeBookingRepo) FindExistingReferences(db *gorm.DB, references []string) ([]string, error) {
	var out []string
	for _, ref := range references {
		if _, ok := r.store.bookings[ref]; ok {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) FindAll(db *gorm.DB, filter entity.BookingFilter) ([]entity.OpdBooking, int64, error) {
	r.lastFilter = filter
	var out []entity.OpdBooking
	for _, b := range r.store.bookings {
		if filter.AgentID != nil && b.CreatedByAgentID != *filter.AgentID {
			continue
		}
		if filter.Disposition != "" && b.Disposition() != filter.Disposition {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingReference < out[j].BookingReference })
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) LockSnapshot(db *gorm.DB, reference string) (*entity.BookingSnapshot, error) {
	b, ok := r.store.bookings[reference]
	if !ok {
		return nil, nil
	}
	snap := &entity.BookingSnapshot{
		ID:                 b.ID,
		BookingReference:   b.BookingReference,
		CurrentDisposition: b.CurrentDisposition,
		HospitalName:       b.HospitalName,
		HospitalIDs:        b.HospitalIDs,
		City:               b.City,
		PatientName:        b.PatientName,
		PatientPhone:       b.PatientPhone,
		PaymentMode:        b.PaymentMode,
		AgentID:            b.CreatedByAgentID,
		RefereeID:          b.RefereeID,
	}
	if a := r.store.agentByID(b.CreatedByAgentID); a != nil {
		snap.AgentFirstName, snap.AgentLastName, snap.AgentPhone = a.FirstName, a.LastName, a.Phone
	}
	if d := r.store.doctorByID(b.RefereeID); d != nil {
		snap.RefereeName, snap.RefereePhone = d.FullName, d.Phone
	}
	return snap, nil
}

func (r *fakeBookingRepo) UpdateDisposition(db *gorm.DB, bookingID uuid.UUID, disposition string, hospital *entity.HospitalSelection, at time.Time) error {
	if r.updateDispositionErr != nil {
		return r.updateDispositionErr
	}
	for ref, b := range r.store.bookings {
		if b.ID != bookingID {
			continue
		}
		label := disposition
		b.CurrentDisposition = &label
		b.LastInteractionDate = &at
		b.UpdatedAt = at
		if hospital != nil {
			b.HospitalName = hospital.Name
			if len(hospital.IDs) > 0 {
				b.HospitalIDs = entity.StringList(hospital.IDs)
			}
		}
		r.store.bookings[ref] = b
	}
	return nil
}

func (r *fakeBookingRepo) UpdateFields(db *gorm.DB, bookingID uuid.UUID, fields map[string]interface{}) error {
	r.lastFields = fields
	for ref, b := range r.store.bookings {
		if b.ID != bookingID {
			continue
		}
		if v, ok := fields["payment_mode"].(string); ok {
			b.PaymentMode = v
		}
		if v, ok := fields["medical_condition"].(string); ok {
			b.MedicalCondition = v
		}
		if _, ok := fields["document_urls"]; ok {
			b.DocumentURLs = append(append(entity.StringList{}, b.DocumentURLs...), "appended")
		}
		r.store.bookings[ref] = b
	}
	return nil
}

func (r *fakeBookingRepo) Delete(db *gorm.DB, bookingID uuid.UUID) (int64, error) {
	for ref, b := range r.store.bookings {
		if b.ID == bookingID {
			delete(r.store.bookings, ref)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeDispositionLogRepo struct {
	store *memStore
}

func (r *fakeDispositionLogRepo) Create(db *gorm.DB, log *entity.DispositionLog) error {
	r.store.nextLogID++
	log.ID = r.store.nextLogID
	r.store.logs = append(r.store.logs, *log)
	return nil
}

func (r *fakeDispositionLogRepo) FindByBookingID(db *gorm.DB, bookingID uuid.UUID) ([]entity.DispositionLog, error) {
	var out []entity.DispositionLog
	for _, l := range r.store.logs {
		if l.OpdBookingID == bookingID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeDoctorRepo struct {
	store *memStore
}

func (r *fakeDoctorRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Doctor, error) {
	return r.store.doctorByID(id), nil
}

func (r *fakeDoctorRepo) FindByPhoneForUpdate(db *gorm.DB, phone string) (*entity.Doctor, error) {
	d, ok := r.store.doctors[phone]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *fakeDoctorRepo) FindByPhones(db *gorm.DB, phones []string) ([]entity.Doctor, error) {
	var out []entity.Doctor
	for _, p := range phones {
		if d, ok := r.store.doctors[p]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDoctorRepo) Create(db *gorm.DB, doctor *entity.Doctor) error {
	if _, ok := r.store.doctors[doctor.Phone]; ok {
		return &pgconn.PgError{Code: "23505", ConstraintName: "doctors_phone_key"}
	}
	r.store.doctors[doctor.Phone] = *doctor
	return nil
}

func (r *fakeDoctorRepo) InsertBatch(db *gorm.DB, doctors []entity.Doctor, chunkSize int) (map[string]uuid.UUID, error) {
	ids := map[string]uuid.UUID{}
	for _, d := range doctors {
		if _, ok := r.store.doctors[d.Phone]; ok {
			continue
		}
		d.ID = uuid.New()
		r.store.doctors[d.Phone] = d
		ids[d.Phone] = d.ID
	}
	return ids, nil
}

func (r *fakeDoctorRepo) UpdateWindow(db *gorm.DB, phone string, window entity.ActivityWindow) (int64, error) {
	d, ok := r.store.doctors[phone]
	if !ok {
		return 0, nil
	}
	d.ApplyWindow(window)
	r.store.doctors[phone] = d
	return 1, nil
}

type fakeMeetingRepo struct {
	store *memStore
}

func (r *fakeMeetingRepo) Create(db *gorm.DB, meeting *entity.DoctorMeeting) error {
	r.store.meetings = append(r.store.meetings, *meeting)
	return nil
}

func (r *fakeMeetingRepo) InsertBatch(db *gorm.DB, meetings []entity.DoctorMeeting, chunkSize int) (int64, error) {
	r.store.meetings = append(r.store.meetings, meetings...)
	return int64(len(meetings)), nil
}

func (r *fakeMeetingRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.DoctorMeeting, error) {
	for _, m := range r.store.meetings {
		if m.ID == id {
			m := m
			return &m, nil
		}
	}
	return nil, nil
}

func (r *fakeMeetingRepo) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.DoctorMeeting, error) {
	var out []entity.DoctorMeeting
	for _, m := range r.store.meetings {
		if m.DoctorID == doctorID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMeetingRepo) Delete(db *gorm.DB, id uuid.UUID) (int64, error) {
	for i, m := range r.store.meetings {
		if m.ID == id {
			r.store.meetings = append(r.store.meetings[:i], r.store.meetings[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeAgentRepo struct {
	store *memStore
}

func (r *fakeAgentRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Agent, error) {
	return r.store.agentByID(id), nil
}

func (r *fakeAgentRepo) FindByPhone(db *gorm.DB, phone string) (*entity.Agent, error) {
	for _, a := range r.store.agents {
		if a.Phone == phone {
			a := a
			return &a, nil
		}
	}
	return nil, nil
}

func (r *fakeAgentRepo) FindByPhones(db *gorm.DB, phones []string) ([]entity.Agent, error) {
	var out []entity.Agent
	for _, p := range phones {
		if a, _ := r.FindByPhone(db, p); a != nil {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAgentRepo) FindByNames(db *gorm.DB, names []string) ([]entity.Agent, error) {
	var out []entity.Agent
	for _, a := range r.store.agents {
		for _, n := range names {
			if strings.EqualFold(a.FirstName, n) || strings.EqualFold(a.FullName(), n) {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

type fakeHospitalRepo struct {
	hospitals []entity.Hospital
}

func (r *fakeHospitalRepo) FindCities(db *gorm.DB) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, h := range r.hospitals {
		if !seen[h.City] {
			seen[h.City] = true
			out = append(out, h.City)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *fakeHospitalRepo) FindByCity(db *gorm.DB, city string) ([]entity.Hospital, error) {
	var out []entity.Hospital
	for _, h := range r.hospitals {
		if strings.EqualFold(h.City, city) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *fakeHospitalRepo) FindByIDs(db *gorm.DB, ids []string) ([]entity.Hospital, error) {
	var out []entity.Hospital
	for _, h := range r.hospitals {
		for _, id := range uniqueStrings(ids) {
			if h.ID.String() == id {
				out = append(out, h)
			}
		}
	}
	return out, nil
}

func (r *fakeHospitalRepo) FindByKeys(db *gorm.DB, keys []entity.HospitalKey) ([]entity.Hospital, error) {
	var out []entity.Hospital
	for _, h := range r.hospitals {
		for _, k := range keys {
			if h.Key().String() == k.String() {
				out = append(out, h)
				break
			}
		}
	}
	return out, nil
}

type recordedAudit struct {
	actorID  *uuid.UUID
	action   string
	metadata entity.JSON
}

// recordingNotifier captures fan-out calls synchronously.
type recordingNotifier struct {
	mu           sync.Mutex
	dispositions []entity.DispositionNotification
	bookings     []entity.BookingNotification
	imports      []entity.ImportNotification
	audits       []recordedAudit
}

var _ service.NotificationService = (*recordingNotifier)(nil)

func (n *recordingNotifier) DispositionChanged(ctx context.Context, d entity.DispositionNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dispositions = append(n.dispositions, d)
}

func (n *recordingNotifier) BookingCreated(ctx context.Context, b entity.BookingNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bookings = append(n.bookings, b)
}

func (n *recordingNotifier) ImportCompleted(ctx context.Context, i entity.ImportNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.imports = append(n.imports, i)
}

func (n *recordingNotifier) Record(ctx context.Context, actorID *uuid.UUID, action string, metadata entity.JSON) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.audits = append(n.audits, recordedAudit{actorID: actorID, action: action, metadata: metadata})
}

func (n *recordingNotifier) Wait(ctx context.Context) error { return nil }

func (n *recordingNotifier) auditActions() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.audits))
	for _, a := range n.audits {
		out = append(out, a.action)
	}
	return out
}
