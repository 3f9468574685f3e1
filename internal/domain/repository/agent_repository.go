package repository

import (
	"healthcare-crm-backend/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AgentRepository interface {
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Agent, error)
	FindByPhone(db *gorm.DB, phone string) (*entity.Agent, error)
	FindByPhones(db *gorm.DB, phones []string) ([]entity.Agent, error)
	// FindByNames matches either the bare first name or "first last", case-insensitively.
	FindByNames(db *gorm.DB, names []string) ([]entity.Agent, error)
}
