package usecase

import (
	"errors"
	"strings"

	"healthcare-crm-backend/pkg/apperr"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrAgentNotFound     = apperr.NotFound("agent not found")
	ErrDoctorNotFound    = apperr.NotFound("doctor not found")
	ErrMeetingNotFound   = apperr.NotFound("meeting not found")
	ErrBookingNotFound   = apperr.NotFound("booking not found")
	ErrAuditLogNotFound  = apperr.NotFound("audit log not found")
	ErrBookingExists     = apperr.Conflict("booking reference already exists")
	ErrNotAuthenticated  = apperr.Unauthorized("authenticated agent required")
	ErrInvalidToken      = apperr.Unauthorized("invalid or expired token")
	ErrTokenRevoked      = apperr.Unauthorized("token has been revoked")
	ErrAgentInactive     = apperr.Forbidden("agent account is inactive")
	ErrInvalidOTP        = apperr.Unauthorized("invalid or expired code")
	ErrNothingToUpdate   = apperr.Validation("no updatable fields supplied")
	ErrUploadUnavailable = apperr.Upstream("document storage is not configured", nil)
)

// isDuplicateKeyError checks if the error is a PostgreSQL unique constraint violation
// containing the specified constraint name
func isDuplicateKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23505 = unique_violation
		if pgErr.Code == "23505" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName)) {
			return true
		}
	}
	return false
}

// isForeignKeyError checks if the error is a PostgreSQL foreign key violation
// containing the specified constraint name
func isForeignKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23503 = foreign_key_violation
		if pgErr.Code == "23503" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName)) {
			return true
		}
	}
	return false
}

// persistenceError keeps typed errors and wraps anything else.
func persistenceError(message string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Persistence(message, err)
}
