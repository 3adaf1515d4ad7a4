package fragment

import (
	"errors"
	"fmt"
)

// Sentinel errors for fragment loading.
var (
	ErrMissingContainer = errors.New("fragment: container not found")
	ErrBadStatus        = errors.New("fragment: unexpected response status")
	ErrRetriesExhausted = errors.New("fragment: retries exhausted")
	ErrCycleFailed      = errors.New("fragment: load cycle failed")
	ErrNoInitializer    = errors.New("fragment: no setup routines available")
	ErrTooLarge         = errors.New("fragment: response body too large")
)

// StatusError is returned for non-2xx fragment responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fragment: GET %s returned status %d", e.URL, e.Code)
}

// Is makes errors.Is(err, ErrBadStatus) hold.
func (e *StatusError) Is(target error) bool {
	return target == ErrBadStatus
}

// IsTransient reports whether err is worth another attempt.
func IsTransient(err error) bool {
	return err != nil && !errors.Is(err, ErrMissingContainer) && !errors.Is(err, ErrTooLarge)
}
