package service

import (
	"errors"
	"fmt"

	"tinyfeed/internal/repository"
)

var (
	// ErrInvalidInput indicates a missing or empty required field. It is
	// returned before any store access.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUserNotFound indicates the referenced username or id does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials indicates the password did not match the stored credential.
	ErrInvalidCredentials = errors.New("incorrect credential")
	// ErrStoreUnavailable wraps any failure of the underlying key-value store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

func storeFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// lookupFailure separates a missing user from a broken store.
func lookupFailure(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrUserNotFound, err)
	}
	return storeFailure(op, err)
}
