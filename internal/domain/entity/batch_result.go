package entity

import "sort"

// RowFailure is one input row that could not be validated or persisted.
type RowFailure struct {
	RowNumber int    `json:"row_number"`
	Reason    string `json:"reason"`
}

// BatchResult summarizes a bulk import. Partial success is the normal outcome.
type BatchResult struct {
	TotalRows        int          `json:"total_rows"`
	NewlyCreated     int          `json:"newly_created_count"`
	Updated          int          `json:"updated_count"`
	DependentCreated int          `json:"dependent_created_count"`
	FailedCount      int          `json:"failed_count"`
	Failures         []RowFailure `json:"failures"`
}

// Fail records a failed row.
func (r *BatchResult) Fail(rowNumber int, reason string) {
	r.Failures = append(r.Failures, RowFailure{RowNumber: rowNumber, Reason: reason})
	r.FailedCount = len(r.Failures)
}

// Merge adds another partial result into r.
func (r *BatchResult) Merge(other *BatchResult) {
	if other == nil {
		return
	}
	r.NewlyCreated += other.NewlyCreated
	r.Updated += other.Updated
	r.DependentCreated += other.DependentCreated
	r.Failures = append(r.Failures, other.Failures...)
	r.FailedCount = len(r.Failures)
}

// SortFailures orders failures by row number, keeping input order for ties.
func (r *BatchResult) SortFailures() {
	sort.SliceStable(r.Failures, func(i, j int) bool {
		return r.Failures[i].RowNumber < r.Failures[j].RowNumber
	})
	if r.Failures == nil {
		r.Failures = []RowFailure{}
	}
}
