package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Domain errors are deterministic for the current data and are never retried.
// ErrStoreUnavailable marks transient transport failures that callers may
// retry with backoff.
var (
	ErrInvalidParticipants = errors.New("invalid participants")
	ErrNotConnected        = errors.New("no connection exists between users")
	ErrNoMutualFriend      = errors.New("no mutual friend found for approval")
	ErrNotFound            = errors.New("not found")
	ErrDuplicateRequest    = errors.New("request already exists")
	ErrNotPending          = errors.New("request is not pending")
	ErrUnauthorized        = errors.New("not allowed")
	ErrStoreUnavailable    = errors.New("store unavailable")
)

// storeErr classifies a repository error: a missing record stays a domain
// ErrNotFound, a unique-index conflict means a concurrent writer already
// created the row, anything else is a transport failure.
func storeErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateRequest
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
