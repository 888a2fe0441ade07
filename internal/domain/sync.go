package domain

import (
	"context"
	"fmt"
	"time"
)

// SyncRecord is the ledger row written once an activity has been attached to a workout log.
type SyncRecord struct {
	TenantID         string
	UserID           string
	WorkoutLogID     string
	ActivityID       string
	ExercisesCreated int
	SetsExtracted    int
	SyncedAt         time.Time
}

// SyncLedger remembers which activities were already attached to which workout logs.
type SyncLedger interface {
	HasSynced(ctx context.Context, tenantID, workoutLogID, activityID string) (bool, error)
	// RecordSync returns ErrAlreadySynced when the pair exists.
	RecordSync(ctx context.Context, record SyncRecord) error
}

// SyncLocker serialises syncs per key. TryLock fails fast with ErrSyncInProgress.
type SyncLocker interface {
	TryLock(ctx context.Context, key string) (release func(), err error)
}

// SyncLockKey scopes the sync lock to one user and activity.
func SyncLockKey(tenantID, userID, activityID string) string {
	return fmt.Sprintf("device-sync:%s:%s:%s", tenantID, userID, activityID)
}
