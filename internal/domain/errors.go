package domain

import "errors"

var (
	// ErrNotConnected means the user has no active platform connection. Not retryable until the
	// user re-authorizes.
	ErrNotConnected = errors.New("device platform not connected")
	// ErrFileUnavailable covers transport failures and non-2xx responses while downloading an
	// activity file. Safe to retry later.
	ErrFileUnavailable = errors.New("activity file unavailable")
	// ErrCryptoUnavailable is a signing primitive failure. Treated as fatal configuration.
	ErrCryptoUnavailable = errors.New("request signing unavailable")
	// ErrUnauthorized is returned when the caller has no valid identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSyncInProgress means another sync holds the lock for the same user and activity.
	ErrSyncInProgress = errors.New("sync already in progress for activity")
	// ErrAlreadySynced is returned by a SyncLedger when the pair was recorded before.
	ErrAlreadySynced = errors.New("activity already synced to workout log")
	// ErrInvalidInput wraps validation failures on import and notification input.
	ErrInvalidInput = errors.New("invalid input")
)
