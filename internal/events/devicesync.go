// Package events defines the payloads exchanged over Kafka by the device sync service.
package events

import "time"

// Event types recorded in the outbox or consumed from the notification topic.
const (
	TypeExerciseLogCreated      = "exercise_log.created"
	TypeDeviceSyncCompleted     = "device_sync.completed"
	TypeDeviceActivityAvailable = "device_activity.available"
)

// SetDetail mirrors one persisted set.
type SetDetail struct {
	Set    int     `json:"set"`
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

// ExerciseLogCreated is emitted for every exercise log row written by a sync.
type ExerciseLogCreated struct {
	ExerciseLogID string      `json:"exercise_log_id"`
	TenantID      string      `json:"tenant_id"`
	UserID        string      `json:"user_id"`
	WorkoutLogID  string      `json:"workout_log_id"`
	ActivityID    string      `json:"activity_id"`
	ExerciseName  string      `json:"exercise_name"`
	SetsCompleted int         `json:"sets_completed"`
	RepsCompleted string      `json:"reps_completed"`
	WeightKg      *float64    `json:"weight_kg"`
	SetDetails    []SetDetail `json:"set_details"`
	CreatedAt     time.Time   `json:"created_at"`
}

// DeviceSyncCompleted is emitted once an activity has been attached to a workout log.
type DeviceSyncCompleted struct {
	TenantID         string    `json:"tenant_id"`
	UserID           string    `json:"user_id"`
	WorkoutLogID     string    `json:"workout_log_id"`
	ActivityID       string    `json:"activity_id"`
	ExercisesCreated int       `json:"exercises_created"`
	SetsExtracted    int       `json:"sets_extracted"`
	SyncedAt         time.Time `json:"synced_at"`
}

// DeviceActivityAvailable is the platform notification relayed by the webhook receiver. When
// WorkoutLogID is set the activity is imported straight away.
type DeviceActivityAvailable struct {
	TenantID     string    `json:"tenant_id"`
	UserID       string    `json:"user_id"`
	ActivityID   string    `json:"activity_id"`
	CallbackURL  string    `json:"callback_url"`
	WorkoutLogID string    `json:"workout_log_id,omitempty"`
	ReceivedAt   time.Time `json:"received_at"`
}
