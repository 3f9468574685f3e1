package usecase

import (
	"context"
	"errors"
	"testing"

	"healthcare-crm-backend/internal/domain/entity"
	"healthcare-crm-backend/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestHospitalUsecase(t *testing.T) {
	repo := &fakeHospitalRepo{hospitals: []entity.Hospital{
		{ID: uuid.New(), City: "Pune", Name: "Apollo"},
		{ID: uuid.New(), City: "Mumbai", Name: "Lilavati", GroupID: "grp-1"},
		{ID: uuid.New(), City: "Pune", Name: "Ruby Hall"},
	}}
	uc := NewHospitalUsecase(memTransactor{store: newMemStore()}, testLogger(), repo)
	ctx := context.Background()

	cities, err := uc.ListCities(ctx)
	if err != nil {
		t.Fatalf("list cities: %v", err)
	}
	if len(cities.Cities) != 2 || cities.Cities[0] != "Mumbai" || cities.Cities[1] != "Pune" {
		t.Errorf("unexpected cities %v", cities.Cities)
	}

	hospitals, err := uc.ListByCity(ctx, " pune ")
	if err != nil {
		t.Fatalf("list by city: %v", err)
	}
	if len(hospitals) != 2 {
		t.Errorf("expected 2 hospitals in Pune, got %d", len(hospitals))
	}

	if _, err := uc.ListByCity(ctx, "  "); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestHospitalUsecase_EmptyCityList(t *testing.T) {
	uc := NewHospitalUsecase(memTransactor{store: newMemStore()}, testLogger(), &fakeHospitalRepo{})
	cities, err := uc.ListCities(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cities.Cities == nil || len(cities.Cities) != 0 {
		t.Errorf("expected an empty, non-nil city list, got %v", cities.Cities)
	}
}

type fakeAuditLogRepo struct {
	logs []entity.AuditLog
	err  error

	gotLimit  int
	gotOffset int
}

func (r *fakeAuditLogRepo) Create(db *gorm.DB, log *entity.AuditLog) error {
	log.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeAuditLogRepo) FindAll(db *gorm.DB, limit, offset int) ([]entity.AuditLog, int64, error) {
	r.gotLimit, r.gotOffset = limit, offset
	if r.err != nil {
		return nil, 0, r.err
	}
	end := offset + limit
	if offset > len(r.logs) {
		offset = len(r.logs)
	}
	if end > len(r.logs) {
		end = len(r.logs)
	}
	return r.logs[offset:end], int64(len(r.logs)), nil
}

func (r *fakeAuditLogRepo) FindByID(db *gorm.DB, id int64) (*entity.AuditLog, error) {
	for i := range r.logs {
		if r.logs[i].ID == id {
			return &r.logs[i], nil
		}
	}
	return nil, nil
}

func TestAuditLogUsecase(t *testing.T) {
	repo := &fakeAuditLogRepo{}
	for i := 0; i < 3; i++ {
		_ = repo.Create(nil, &entity.AuditLog{Action: entity.AuditActionDispositionAdvance})
	}
	uc := NewAuditLogUsecase(memTransactor{store: newMemStore()}, testLogger(), repo)
	ctx := context.Background()

	list, err := uc.GetAllAuditLogs(ctx, 2, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 3 || len(list.Logs) != 1 || list.Logs[0].ID != 3 {
		t.Errorf("unexpected page %+v", list)
	}
	if repo.gotOffset != 2 {
		t.Errorf("expected offset 2, got %d", repo.gotOffset)
	}

	if _, err := uc.GetAllAuditLogs(ctx, 0, 1000); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.gotLimit != maxPageLimit || repo.gotOffset != 0 {
		t.Errorf("expected clamped paging, got limit %d offset %d", repo.gotLimit, repo.gotOffset)
	}

	got, err := uc.GetAuditLog(ctx, 1)
	if err != nil || got.ID != 1 {
		t.Errorf("unexpected audit log %+v (%v)", got, err)
	}
	if _, err := uc.GetAuditLog(ctx, 99); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	repo.err = errors.New("connection reset")
	if _, err := uc.GetAllAuditLogs(ctx, 1, 10); !apperr.Is(err, apperr.KindPersistence) {
		t.Errorf("expected persistence error, got %v", err)
	}
}
