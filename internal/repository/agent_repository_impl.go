package repository

import (
	"errors"
	"strings"

	"healthcare-crm-backend/internal/domain/entity"
	domainRepo "healthcare-crm-backend/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type agentRepository struct{}

func NewAgentRepository() domainRepo.AgentRepository {
	return &agentRepository{}
}

func (r *agentRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Agent, error) {
	var agent entity.Agent
	err := db.Where("id = ?", id).First(&agent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepository) FindByPhone(db *gorm.DB, phone string) (*entity.Agent, error) {
	var agent entity.Agent
	err := db.Where("phone = ?", phone).First(&agent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepository) FindByPhones(db *gorm.DB, phones []string) ([]entity.Agent, error) {
	var agents []entity.Agent
	if len(phones) == 0 {
		return agents, nil
	}
	err := db.Where("phone IN ?", phones).Find(&agents).Error
	if err != nil {
		return nil, err
	}
	return agents, nil
}

func (r *agentRepository) FindByNames(db *gorm.DB, names []string) ([]entity.Agent, error) {
	var agents []entity.Agent
	if len(names) == 0 {
		return agents, nil
	}
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(strings.TrimSpace(n))
	}
	err := db.Where("LOWER(first_name) IN ? OR LOWER(TRIM(first_name || ' ' || COALESCE(last_name, ''))) IN ?", lowered, lowered).
		Find(&agents).Error
	if err != nil {
		return nil, err
	}
	return agents, nil
}
