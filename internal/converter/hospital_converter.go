package converter

import (
	"healthcare-crm-backend/internal/delivery/dto"
	"healthcare-crm-backend/internal/domain/entity"
)

// HospitalsToResponses converts Hospital entities to DTOs
func HospitalsToResponses(hospitals []entity.Hospital) []dto.HospitalResponse {
	responses := make([]dto.HospitalResponse, len(hospitals))
	for i, h := range hospitals {
		responses[i] = dto.HospitalResponse{
			ID:      h.ID,
			City:    h.City,
			Name:    h.Name,
			GroupID: h.GroupID,
			Code:    h.Code,
		}
	}
	return responses
}
