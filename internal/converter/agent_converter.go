package converter

import (
	"healthcare-crm-backend/internal/delivery/dto"
	"healthcare-crm-backend/internal/domain/entity"
)

// AgentToResponse converts an Agent entity to AgentResponse DTO
func AgentToResponse(agent *entity.Agent) *dto.AgentResponse {
	if agent == nil {
		return nil
	}

	return &dto.AgentResponse{
		ID:        agent.ID,
		FirstName: agent.FirstName,
		LastName:  agent.LastName,
		Phone:     agent.Phone,
		Role:      agent.Role,
		IsActive:  agent.Active(),
		CreatedAt: agent.CreatedAt,
	}
}
