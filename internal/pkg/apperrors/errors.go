package apperrors

import "fmt"

// ValidationError - event atau request tidak valid, ditolak sebelum persist.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d invalid field(s)", len(e.Fields))
}

// QuotaExceededError - storage penuh; core tetap jalan in-memory.
type QuotaExceededError struct {
	Key string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("storage quota exceeded writing key %q", e.Key)
}

// StaleSessionError - caller memegang session id yang sudah tidak aktif.
type StaleSessionError struct {
	LearnerID string
	HeldID    string
	ActiveID  string
}

func (e *StaleSessionError) Error() string {
	return fmt.Sprintf("stale session %q for learner %q (active: %q)", e.HeldID, e.LearnerID, e.ActiveID)
}

// ConflictError - versi profile berubah dan retry merge sudah habis.
type ConflictError struct {
	Key      string
	Attempts int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("profile version conflict on %q after %d attempts", e.Key, e.Attempts)
}
