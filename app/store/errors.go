package store

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports an empty title or a day outside the month.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound reports that the targeted task no longer exists.
	ErrNotFound = errors.New("task not found")
	// ErrStoreUnavailable reports that the backend could not be reached or refused access.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNoIdentity reports an operation attempted without a signed-in user.
	ErrNoIdentity = errors.New("no signed-in user")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}

// unavailable wraps a driver error so callers can match ErrStoreUnavailable
// while the original cause stays inspectable.
func unavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
