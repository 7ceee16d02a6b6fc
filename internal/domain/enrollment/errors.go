package enrollment

import (
	"context"
	"errors"
	"fmt"

	"github.com/ehr/enrollment/internal/platform/clientstore"
)

var (
	ErrSessionNotFound      = errors.New("enrollment session not found")
	ErrSessionFailed        = errors.New("enrollment session failed")
	ErrSessionCompleted     = errors.New("enrollment session already completed")
	ErrTransitionPending    = errors.New("a step transition is already in progress")
	ErrInvalidTransition    = errors.New("transition not allowed from the current step")
	ErrBranchRequired       = errors.New("action requires the referring practitioner branch")
	ErrPractitionerNotFound = errors.New("practitioner not found")
	ErrAddNewDisabled       = errors.New("a practitioner is already selected")
	ErrSubmissionInvalid    = errors.New("enrollment has invalid fields")
	ErrInvalidRegistrant    = errors.New("invalid registrant")
)

// ErrorSink receives the message of a fatal failure before the wizard routes
// to the error page.
type ErrorSink interface {
	Report(ctx context.Context, sessionID, message string) error
}

// StorageErrorSink writes the message to client storage under errorMessage.
type StorageErrorSink struct {
	Store clientstore.Store
}

func (s StorageErrorSink) Report(ctx context.Context, sessionID, message string) error {
	if err := s.Store.Set(ctx, sessionID, clientstore.KeyErrorMessage, message); err != nil {
		return fmt.Errorf("persist error message: %w", err)
	}
	return nil
}
