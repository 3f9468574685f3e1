package converter

import (
	"healthcare-crm-backend/internal/delivery/dto"
	"healthcare-crm-backend/internal/domain/entity"
)

// BatchResultToResponse converts a BatchResult to its DTO
func BatchResultToResponse(result *entity.BatchResult) *dto.BatchResultResponse {
	if result == nil {
		return nil
	}

	failures := make([]dto.RowFailureResponse, len(result.Failures))
	for i, f := range result.Failures {
		failures[i] = dto.RowFailureResponse{RowNumber: f.RowNumber, Reason: f.Reason}
	}

	return &dto.BatchResultResponse{
		TotalRows:             result.TotalRows,
		NewlyCreatedCount:     result.NewlyCreated,
		UpdatedCount:          result.Updated,
		DependentCreatedCount: result.DependentCreated,
		FailedCount:           result.FailedCount,
		Failures:              failures,
	}
}
