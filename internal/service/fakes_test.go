package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"healthcare-crm-backend/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fakeTransactor struct{}

func (fakeTransactor) DB(ctx context.Context) *gorm.DB { return nil }

func (fakeTransactor) WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type windowUpdate struct {
	phone  string
	window entity.ActivityWindow
}

type fakeDoctorRepo struct {
	byPhone map[string]*entity.Doctor

	// skipInsert lists phones InsertBatch drops as if they hit a conflict.
	skipInsert map[string]bool
	insertErr  error

	findCalls   int
	inserted    []entity.Doctor
	insertChunk int
	updates     []windowUpdate
}

func newFakeDoctorRepo(existing ...entity.Doctor) *fakeDoctorRepo {
	r := &fakeDoctorRepo{byPhone: map[string]*entity.Doctor{}, skipInsert: map[string]bool{}}
	for i := range existing {
		d := existing[i]
		r.byPhone[d.Phone] = &d
	}
	return r
}

func (r *fakeDoctorRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Doctor, error) {
	for _, d := range r.byPhone {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, nil
}

func (r *fakeDoctorRepo) FindByPhoneForUpdate(db *gorm.DB, phone string) (*entity.Doctor, error) {
	return r.byPhone[phone], nil
}

func (r *fakeDoctorRepo) FindByPhones(db *gorm.DB, phones []string) ([]entity.Doctor, error) {
	r.findCalls++
	var out []entity.Doctor
	for _, p := range phones {
		if d, ok := r.byPhone[p]; ok {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDoctorRepo) Create(db *gorm.DB, doctor *entity.Doctor) error {
	if doctor.ID == uuid.Nil {
		doctor.ID = uuid.New()
	}
	d := *doctor
	r.byPhone[d.Phone] = &d
	return nil
}

func (r *fakeDoctorRepo) InsertBatch(db *gorm.DB, doctors []entity.Doctor, chunkSize int) (map[string]uuid.UUID, error) {
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	r.insertChunk = chunkSize
	ids := make(map[string]uuid.UUID)
	for _, d := range doctors {
		r.inserted = append(r.inserted, d)
		if r.skipInsert[d.Phone] {
			continue
		}
		d.ID = uuid.New()
		r.byPhone[d.Phone] = &d
		ids[d.Phone] = d.ID
	}
	return ids, nil
}

func (r *fakeDoctorRepo) UpdateWindow(db *gorm.DB, phone string, window entity.ActivityWindow) (int64, error) {
	r.updates = append(r.updates, windowUpdate{phone: phone, window: window})
	d, ok := r.byPhone[phone]
	if !ok {
		return 0, nil
	}
	d.ApplyWindow(window)
	return 1, nil
}

type fakeMeetingRepo struct {
	inserted  []entity.DoctorMeeting
	insertErr error
}

func (r *fakeMeetingRepo) Create(db *gorm.DB, meeting *entity.DoctorMeeting) error {
	r.inserted = append(r.inserted, *meeting)
	return nil
}

func (r *fakeMeetingRepo) InsertBatch(db *gorm.DB, meetings []entity.DoctorMeeting, chunkSize int) (int64, error) {
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	r.inserted = append(r.inserted, meetings...)
	return int64(len(meetings)), nil
}

func (r *fakeMeetingRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.DoctorMeeting, error) {
	for i := range r.inserted {
		if r.inserted[i].ID == id {
			return &r.inserted[i], nil
		}
	}
	return nil, nil
}

func (r *fakeMeetingRepo) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.DoctorMeeting, error) {
	var out []entity.DoctorMeeting
	for _, m := range r.inserted {
		if m.DoctorID == doctorID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMeetingRepo) Delete(db *gorm.DB, id uuid.UUID) (int64, error) {
	return 0, nil
}

type fakeAgentRepo struct {
	agents    []entity.Agent
	nameCalls int
}

func (r *fakeAgentRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Agent, error) {
	for i := range r.agents {
		if r.agents[i].ID == id {
			return &r.agents[i], nil
		}
	}
	return nil, nil
}

func (r *fakeAgentRepo) FindByPhone(db *gorm.DB, phone string) (*entity.Agent, error) {
	for i := range r.agents {
		if r.agents[i].Phone == phone {
			return &r.agents[i], nil
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
	r.nameCalls++
	var out []entity.Agent
	for _, a := range r.agents {
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
	keyCalls  int
}

func (r *fakeHospitalRepo) FindCities(db *gorm.DB) ([]string, error) {
	return nil, nil
}

func (r *fakeHospitalRepo) FindByCity(db *gorm.DB, city string) ([]entity.Hospital, error) {
	return nil, nil
}

func (r *fakeHospitalRepo) FindByIDs(db *gorm.DB, ids []string) ([]entity.Hospital, error) {
	var out []entity.Hospital
	for _, h := range r.hospitals {
		for _, id := range ids {
			if h.ID.String() == id {
				out = append(out, h)
			}
		}
	}
	return out, nil
}

func (r *fakeHospitalRepo) FindByKeys(db *gorm.DB, keys []entity.HospitalKey) ([]entity.Hospital, error) {
	r.keyCalls++
	var out []entity.Hospital
	for _, h := range r.hospitals {
		for _, k := range keys {
			if h.Key().String() == k.String() {
				out = append(out, h)
			}
		}
	}
	return out, nil
}

type fakeAuditRepo struct {
	mu   sync.Mutex
	logs []entity.AuditLog
	err  error
}

func (r *fakeAuditRepo) Create(db *gorm.DB, log *entity.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeAuditRepo) FindAll(db *gorm.DB, limit, offset int) ([]entity.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.AuditLog(nil), r.logs...), int64(len(r.logs)), nil
}

func (r *fakeAuditRepo) FindByID(db *gorm.DB, id int64) (*entity.AuditLog, error) {
	return nil, nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.logs))
	for _, l := range r.logs {
		out = append(out, l.Action)
	}
	return out
}

type sentMessage struct {
	to   string
	body string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	// failFor makes Send fail for these destinations.
	failFor map[string]bool
	panicOn string
}

func (s *fakeSender) Send(ctx context.Context, to string, body string) error {
	if to == s.panicOn && to != "" {
		panic("sender exploded")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[to] {
		return errors.New("gateway unavailable")
	}
	s.sent = append(s.sent, sentMessage{to: to, body: body})
	return nil
}

func (s *fakeSender) destinations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sent))
	for _, m := range s.sent {
		out = append(out, m.to)
	}
	return out
}

type enqueuedJob struct {
	jobType string
	row     []string
}

type fakeEnqueuer struct {
	mu   sync.Mutex
	jobs []enqueuedJob
	err  error
}

func (e *fakeEnqueuer) Enqueue(ctx context.Context, jobType string, rowData []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.jobs = append(e.jobs, enqueuedJob{jobType: jobType, row: rowData})
	return nil
}
