// Package postgres provides pgx-backed stores. Every call runs in its own transaction scoped to
// the caller's tenant through app.tenant_id.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strukturantcoder/gymdagbokense-sub002/internal/domain"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/events"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/observability"
)

const uniqueViolation = "23505"

// Repository implements the connection, callback, exercise log and ledger stores.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) inTenant(ctx context.Context, tenantID string, fn func(pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Active returns the user's active connection or nil.
func (r *Repository) Active(ctx context.Context, tenantID, userID string) (*domain.Connection, error) {
	const query = `SELECT tenant_id, user_id, access_token, token_secret, active, last_sync_at, created_at, updated_at
        FROM device_connections WHERE tenant_id=$1 AND user_id=$2 AND active`

	var conn *domain.Connection
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		var c domain.Connection
		err := tx.QueryRow(ctx, query, tenantID, userID).Scan(
			&c.TenantID, &c.UserID, &c.AccessToken, &c.TokenSecret, &c.Active, &c.LastSyncAt, &c.CreatedAt, &c.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		conn = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Save deactivates any active connection of the user and inserts conn as the active one.
func (r *Repository) Save(ctx context.Context, conn domain.Connection) error {
	now := time.Now().UTC()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	return r.inTenant(ctx, conn.TenantID, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE device_connections SET active=FALSE, updated_at=$3 WHERE tenant_id=$1 AND user_id=$2 AND active`,
			conn.TenantID, conn.UserID, now); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO device_connections (tenant_id, user_id, access_token, token_secret, active, last_sync_at, created_at, updated_at)
             VALUES ($1,$2,$3,$4,TRUE,$5,$6,$7)`,
			conn.TenantID, conn.UserID, conn.AccessToken, conn.TokenSecret, conn.LastSyncAt, conn.CreatedAt, now)
		return err
	})
}

// MarkSynced stamps last_sync_at on the active connection.
func (r *Repository) MarkSynced(ctx context.Context, tenantID, userID string, at time.Time) error {
	return r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE device_connections SET last_sync_at=$3, updated_at=$3 WHERE tenant_id=$1 AND user_id=$2 AND active`,
			tenantID, userID, at.UTC())
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotConnected
		}
		return nil
	})
}

// Deactivate flips the active flag; the row is kept.
func (r *Repository) Deactivate(ctx context.Context, tenantID, userID string) (bool, error) {
	var changed bool
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE device_connections SET active=FALSE, updated_at=NOW() WHERE tenant_id=$1 AND user_id=$2 AND active`,
			tenantID, userID)
		if err != nil {
			return err
		}
		changed = tag.RowsAffected() > 0
		return nil
	})
	return changed, err
}

// SaveCallback upserts the callback URL of an activity.
func (r *Repository) SaveCallback(ctx context.Context, reg domain.CallbackRegistration) error {
	receivedAt := reg.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}
	return r.inTenant(ctx, reg.TenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO device_activity_callbacks (tenant_id, user_id, activity_id, callback_url, received_at)
             VALUES ($1,$2,$3,$4,$5)
             ON CONFLICT (tenant_id, user_id, activity_id) DO UPDATE SET callback_url=EXCLUDED.callback_url, received_at=EXCLUDED.received_at`,
			reg.TenantID, reg.UserID, reg.ActivityID, reg.CallbackURL, receivedAt)
		return err
	})
}

// CallbackURL returns "" when nothing was registered.
func (r *Repository) CallbackURL(ctx context.Context, tenantID, userID, activityID string) (string, error) {
	var callbackURL string
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT callback_url FROM device_activity_callbacks WHERE tenant_id=$1 AND user_id=$2 AND activity_id=$3`,
			tenantID, userID, activityID).Scan(&callbackURL)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	})
	return callbackURL, err
}

// CreateExerciseLog inserts entry and its exercise_log.created outbox event in one transaction.
func (r *Repository) CreateExerciseLog(ctx context.Context, entry domain.ExerciseLogEntry) error {
	details, err := json.Marshal(entry.SetDetails)
	if err != nil {
		return err
	}

	err = r.inTenant(ctx, entry.TenantID, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO exercise_logs (exercise_log_id, tenant_id, user_id, workout_log_id, activity_id, exercise_name, sets_completed, reps_completed, weight_kg, set_details, notes, created_at)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			entry.ID, entry.TenantID, entry.UserID, entry.WorkoutLogID, entry.ActivityID, entry.ExerciseName,
			entry.SetsCompleted, entry.RepsCompleted, entry.WeightKg, details, entry.Notes, entry.CreatedAt,
		); err != nil {
			return err
		}

		setDetails := make([]events.SetDetail, len(entry.SetDetails))
		for i, d := range entry.SetDetails {
			setDetails[i] = events.SetDetail{Set: d.Set, Reps: d.Reps, Weight: d.Weight}
		}
		return insertOutbox(ctx, tx, outboxRecord{
			tenantID:    entry.TenantID,
			aggregateID: entry.ID,
			eventType:   events.TypeExerciseLogCreated,
			routingKey:  entry.WorkoutLogID,
			payload: events.ExerciseLogCreated{
				ExerciseLogID: entry.ID,
				TenantID:      entry.TenantID,
				UserID:        entry.UserID,
				WorkoutLogID:  entry.WorkoutLogID,
				ActivityID:    entry.ActivityID,
				ExerciseName:  entry.ExerciseName,
				SetsCompleted: entry.SetsCompleted,
				RepsCompleted: entry.RepsCompleted,
				WeightKg:      entry.WeightKg,
				SetDetails:    setDetails,
				CreatedAt:     entry.CreatedAt,
			},
		})
	})
	if err != nil {
		return err
	}
	observability.RecordExerciseLogPersisted(entry.CreatedAt)
	return nil
}

// ListExerciseLogs returns the entries of a workout log in insertion order.
func (r *Repository) ListExerciseLogs(ctx context.Context, tenantID, workoutLogID string) ([]domain.ExerciseLogEntry, error) {
	const query = `SELECT exercise_log_id, tenant_id, user_id, workout_log_id, activity_id, exercise_name, sets_completed, reps_completed, weight_kg, set_details, notes, created_at
        FROM exercise_logs WHERE tenant_id=$1 AND workout_log_id=$2 ORDER BY created_at, exercise_log_id`

	var out []domain.ExerciseLogEntry
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, tenantID, workoutLogID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e domain.ExerciseLogEntry
			var details []byte
			if err := rows.Scan(&e.ID, &e.TenantID, &e.UserID, &e.WorkoutLogID, &e.ActivityID, &e.ExerciseName,
				&e.SetsCompleted, &e.RepsCompleted, &e.WeightKg, &details, &e.Notes, &e.CreatedAt); err != nil {
				return err
			}
			if err := json.Unmarshal(details, &e.SetDetails); err != nil {
				return fmt.Errorf("decode set_details of %s: %w", e.ID, err)
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	return out, err
}

// HasSynced reports whether the activity is already attached to the workout log.
func (r *Repository) HasSynced(ctx context.Context, tenantID, workoutLogID, activityID string) (bool, error) {
	var exists bool
	err := r.inTenant(ctx, tenantID, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM device_activity_syncs WHERE tenant_id=$1 AND workout_log_id=$2 AND activity_id=$3)`,
			tenantID, workoutLogID, activityID).Scan(&exists)
	})
	return exists, err
}

// RecordSync writes the ledger row and a device_sync.completed event. A duplicate pair yields
// domain.ErrAlreadySynced.
func (r *Repository) RecordSync(ctx context.Context, record domain.SyncRecord) error {
	err := r.inTenant(ctx, record.TenantID, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO device_activity_syncs (tenant_id, user_id, workout_log_id, activity_id, exercises_created, sets_extracted, synced_at)
             VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			record.TenantID, record.UserID, record.WorkoutLogID, record.ActivityID,
			record.ExercisesCreated, record.SetsExtracted, record.SyncedAt,
		); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, outboxRecord{
			tenantID:    record.TenantID,
			aggregateID: record.WorkoutLogID + ":" + record.ActivityID,
			eventType:   events.TypeDeviceSyncCompleted,
			routingKey:  record.UserID,
			payload: events.DeviceSyncCompleted{
				TenantID:         record.TenantID,
				UserID:           record.UserID,
				WorkoutLogID:     record.WorkoutLogID,
				ActivityID:       record.ActivityID,
				ExercisesCreated: record.ExercisesCreated,
				SetsExtracted:    record.SetsExtracted,
				SyncedAt:         record.SyncedAt,
			},
		})
	})

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrAlreadySynced
	}
	return err
}

type outboxRecord struct {
	tenantID    string
	aggregateID string
	eventType   string
	routingKey  string
	payload     any
}

func insertOutbox(ctx context.Context, tx pgx.Tx, rec outboxRecord) error {
	body, err := json.Marshal(rec.payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[rec.eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", rec.eventType)
	}

	const stmt = `INSERT INTO outbox (tenant_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, stmt,
		rec.tenantID,
		meta.AggregateType,
		rec.aggregateID,
		rec.eventType,
		meta.Topic,
		meta.SchemaSubject,
		rec.tenantID+":"+rec.routingKey,
		body,
		fmt.Sprintf("%s:%s", rec.aggregateID, rec.eventType),
	)
	return err
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	AggregateType string
	Topic         string
	SchemaSubject string
}

// Exercise logs are keyed by workout log so one workout's rows stay ordered on a partition.
var eventCatalog = map[string]EventMetadata{
	events.TypeExerciseLogCreated: {
		AggregateType: "exercise_log",
		Topic:         "exercise_log_events",
		SchemaSubject: "exercise_log_events-value",
	},
	events.TypeDeviceSyncCompleted: {
		AggregateType: "device_sync",
		Topic:         "device_sync_events",
		SchemaSubject: "device_sync_events-value",
	},
}
