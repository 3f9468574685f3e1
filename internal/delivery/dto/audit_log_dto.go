package dto

import (
	"time"

	"healthcare-crm-backend/internal/domain/entity"
)

// Response DTOs

type AuditLogResponse struct {
	ID        int64          `json:"id"`
	Actor     *AgentResponse `json:"actor,omitempty"`
	Action    string         `json:"action"`
	Metadata  entity.JSON    `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int64              `json:"total"`
}
