package dto

// Response DTOs

type RowFailureResponse struct {
	RowNumber int    `json:"row_number"`
	Reason    string `json:"reason"`
}

type BatchResultResponse struct {
	TotalRows             int                  `json:"total_rows"`
	NewlyCreatedCount     int                  `json:"newly_created_count"`
	UpdatedCount          int                  `json:"updated_count"`
	DependentCreatedCount int                  `json:"dependent_created_count"`
	FailedCount           int                  `json:"failed_count"`
	Failures              []RowFailureResponse `json:"failures"`
}
