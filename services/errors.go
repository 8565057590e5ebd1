package services

import "errors"

// Workflow errors surfaced verbatim to handlers, which map them to HTTP
// statuses. None of these are retriable by the caller except as documented
// on AlreadyDecided (safe to treat as a no-op success).
var (
	// ErrNotFound: unknown match request or participant row.
	ErrNotFound = errors.New("match request not found")

	// ErrAlreadyDecided: the participant already responded, or the request
	// reached a terminal status before this call. Benign race loser.
	ErrAlreadyDecided = errors.New("already decided")

	// ErrNotEligible: viewer is not a participant, sits on the winning
	// side, or the request no longer accepts responses.
	ErrNotEligible = errors.New("not eligible to respond")

	// ErrConflict: a storage invariant was violated at write time. This
	// indicates an upstream bug and is logged as a defect, never retried.
	ErrConflict = errors.New("match request state conflict")
)

// Validation sub-reasons for match request creation. The UI keys
// human-readable messages off these.
const (
	ReasonMissingPlayer    = "MissingPlayer"
	ReasonDuplicatePlayer  = "DuplicatePlayer"
	ReasonSelfConflict     = "SelfConflict"
	ReasonWrongPlayerCount = "WrongPlayerCount"
	ReasonEmptyMatchName   = "EmptyMatchName"
	ReasonIncompleteScore  = "IncompleteScore"
)

// ValidationError rejects a match request creation payload. Always
// recoverable by the caller correcting input.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErr(reason, message string) *ValidationError {
	return &ValidationError{Reason: reason, Message: message}
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
