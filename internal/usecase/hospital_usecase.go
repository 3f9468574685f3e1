package usecase

import (
	"context"
	"strings"

	"healthcare-crm-backend/internal/converter"
	"healthcare-crm-backend/internal/delivery/dto"
	"healthcare-crm-backend/internal/domain/repository"
	"healthcare-crm-backend/internal/infrastructure/database"
	"healthcare-crm-backend/pkg/apperr"

	"github.com/sirupsen/logrus"
)

type HospitalUsecase interface {
	ListCities(ctx context.Context) (*dto.CityListResponse, error)
	ListByCity(ctx context.Context, city string) ([]dto.HospitalResponse, error)
}

type hospitalUsecase struct {
	transactor   database.Transactor
	log          *logrus.Logger
	hospitalRepo repository.HospitalRepository
}

func NewHospitalUsecase(
	transactor database.Transactor,
	log *logrus.Logger,
	hospitalRepo repository.HospitalRepository,
) HospitalUsecase {
	return &hospitalUsecase{
		transactor:   transactor,
		log:          log,
		hospitalRepo: hospitalRepo,
	}
}

func (u *hospitalUsecase) ListCities(ctx context.Context) (*dto.CityListResponse, error) {
	cities, err := u.hospitalRepo.FindCities(u.transactor.DB(ctx))
	if err != nil {
		u.log.Warnf("Failed to find cities: %+v", err)
		return nil, persistenceError("failed to list cities", err)
	}
	if cities == nil {
		cities = []string{}
	}
	return &dto.CityListResponse{Cities: cities}, nil
}

func (u *hospitalUsecase) ListByCity(ctx context.Context, city string) ([]dto.HospitalResponse, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, apperr.Validation("city is required")
	}

	hospitals, err := u.hospitalRepo.FindByCity(u.transactor.DB(ctx), city)
	if err != nil {
		u.log.Warnf("Failed to find hospitals by city: %+v", err)
		return nil, persistenceError("failed to list hospitals", err)
	}
	return converter.HospitalsToResponses(hospitals), nil
}
