package domain

import (
	"context"
	"time"
)

// Connection is a user's link to the external device platform.
type Connection struct {
	TenantID    string
	UserID      string
	AccessToken string
	TokenSecret string
	Active      bool
	LastSyncAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ConnectionStore persists connections. At most one active connection exists per user; Save
// replaces the previous active record.
type ConnectionStore interface {
	// Active returns the user's active connection, or nil when there is none.
	Active(ctx context.Context, tenantID, userID string) (*Connection, error)
	Save(ctx context.Context, conn Connection) error
	MarkSynced(ctx context.Context, tenantID, userID string, at time.Time) error
	// Deactivate flips the active flag and keeps the row. Returns false when nothing was active.
	Deactivate(ctx context.Context, tenantID, userID string) (bool, error)
}

// CallbackRegistration is a platform notification announcing a downloadable activity file.
type CallbackRegistration struct {
	TenantID    string
	UserID      string
	ActivityID  string
	CallbackURL string
	ReceivedAt  time.Time
}

// CallbackStore keeps the callback URLs delivered by platform notifications.
type CallbackStore interface {
	SaveCallback(ctx context.Context, reg CallbackRegistration) error
	// CallbackURL returns "" when no callback was registered for the activity.
	CallbackURL(ctx context.Context, tenantID, userID, activityID string) (string, error)
}
