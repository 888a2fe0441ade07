// Package reconcile aggregates extracted sets into exercise log entries and persists them.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/strukturantcoder/gymdagbokense-sub002/internal/domain"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/observability"
)

// Messages returned to callers.
const (
	MessageNoData  = "No strength sets were found in this activity file. It may have been recorded without per-set tracking on the device."
	messagePreview = "Found %d exercises. Nothing was saved because no workout log was given."
	messageCreated = "Imported %d exercises from the device activity."
	messagePartial = "Imported %d of %d exercises from the device activity; %d could not be saved."
)

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger overrides the logger used to report skipped entries.
func WithLogger(logger *log.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = now
	}
}

// Reconciler implements domain.Reconciler.
type Reconciler struct {
	store  domain.ExerciseLogStore
	logger *log.Logger
	now    func() time.Time
}

// New constructs a Reconciler writing to store.
func New(store domain.ExerciseLogStore, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:  store,
		logger: log.New(log.Writer(), "[reconcile] ", log.LstdFlags|log.Lshortfile),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile builds one entry per exercise. Entries are only persisted when input carries a
// workout log id; a failed insert is logged and skipped.
func (r *Reconciler) Reconcile(ctx context.Context, input domain.ReconcileInput, extraction domain.Extraction) domain.ReconcileResult {
	entries := BuildEntries(input, extraction, r.now())
	result := domain.ReconcileResult{Entries: entries}

	if len(entries) == 0 {
		result.DryRun = input.WorkoutLogID == ""
		result.Message = MessageNoData
		return result
	}
	if input.WorkoutLogID == "" {
		result.DryRun = true
		result.Message = fmt.Sprintf(messagePreview, len(entries))
		return result
	}

	var failures []error
	for _, entry := range entries {
		if err := r.store.CreateExerciseLog(ctx, entry); err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", entry.ExerciseName, err))
			result.FailedExercises = append(result.FailedExercises, entry.ExerciseName)
			observability.RecordEntryPersistFailure()
			continue
		}
		result.EntriesCreated++
	}

	if len(failures) > 0 {
		r.logger.Printf("workout_log=%s activity=%s: skipped %d exercise logs: %v",
			input.WorkoutLogID, input.ActivityID, len(failures), errors.Join(failures...))
		result.Message = fmt.Sprintf(messagePartial, result.EntriesCreated, len(entries), len(failures))
		return result
	}
	result.Message = fmt.Sprintf(messageCreated, result.EntriesCreated)
	return result
}

// BuildEntries computes the exercise log entries for an extraction without persisting them.
func BuildEntries(input domain.ReconcileInput, extraction domain.Extraction, now time.Time) []domain.ExerciseLogEntry {
	entries := make([]domain.ExerciseLogEntry, 0, len(extraction.Exercises))
	for _, ex := range extraction.Exercises {
		if len(ex.Reps) == 0 {
			continue
		}
		details := make([]domain.SetDetail, len(ex.Reps))
		for i, reps := range ex.Reps {
			var weight float64
			if i < len(ex.Weights) {
				weight = ex.Weights[i]
			}
			details[i] = domain.SetDetail{Set: i + 1, Reps: reps, Weight: weight}
		}

		entries = append(entries, domain.ExerciseLogEntry{
			ID:            uuid.NewString(),
			TenantID:      input.TenantID,
			UserID:        input.UserID,
			WorkoutLogID:  input.WorkoutLogID,
			ActivityID:    input.ActivityID,
			ExerciseName:  ex.Name,
			SetsCompleted: len(details),
			RepsCompleted: domain.JoinReps(ex.Reps),
			WeightKg:      representativeWeight(ex.Weights),
			SetDetails:    details,
			Notes:         domain.ProvenanceNote,
			CreatedAt:     now,
		})
	}
	return entries
}

// representativeWeight is the heaviest set rounded to one decimal, or nil without weight data.
func representativeWeight(weights []float64) *float64 {
	heaviest := 0.0
	for _, w := range weights {
		if w > heaviest {
			heaviest = w
		}
	}
	if heaviest <= 0 {
		return nil
	}
	rounded := math.Round(heaviest*10) / 10
	return &rounded
}
