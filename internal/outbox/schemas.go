package outbox

import "github.com/strukturantcoder/gymdagbokense-sub002/internal/events"

const exerciseLogCreatedSchema = `{
  "type": "object",
  "title": "ExerciseLogCreated",
  "properties": {
    "exercise_log_id": {"type": "string"},
    "tenant_id": {"type": "string"},
    "user_id": {"type": "string"},
    "workout_log_id": {"type": "string"},
    "activity_id": {"type": "string"},
    "exercise_name": {"type": "string"},
    "sets_completed": {"type": "integer", "minimum": 1},
    "reps_completed": {"type": "string"},
    "weight_kg": {"type": ["number", "null"]},
    "set_details": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "set": {"type": "integer"},
          "reps": {"type": "integer"},
          "weight": {"type": "number"}
        },
        "required": ["set", "reps", "weight"]
      }
    },
    "created_at": {"type": "string", "format": "date-time"}
  },
  "required": ["exercise_log_id", "tenant_id", "user_id", "workout_log_id", "exercise_name", "sets_completed", "reps_completed", "set_details", "created_at"],
  "additionalProperties": false
}`

const deviceSyncCompletedSchema = `{
  "type": "object",
  "title": "DeviceSyncCompleted",
  "properties": {
    "tenant_id": {"type": "string"},
    "user_id": {"type": "string"},
    "workout_log_id": {"type": "string"},
    "activity_id": {"type": "string"},
    "exercises_created": {"type": "integer"},
    "sets_extracted": {"type": "integer"},
    "synced_at": {"type": "string", "format": "date-time"}
  },
  "required": ["tenant_id", "user_id", "workout_log_id", "activity_id", "exercises_created", "sets_extracted", "synced_at"],
  "additionalProperties": false
}`

var schemaCatalog = map[string]string{
	events.TypeExerciseLogCreated:  exerciseLogCreatedSchema,
	events.TypeDeviceSyncCompleted: deviceSyncCompletedSchema,
}
