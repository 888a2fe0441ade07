package domain

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// ProvenanceNote marks exercise logs created by device sync.
const ProvenanceNote = "Imported from connected device sync"

// ExtractedSet is one plausible strength set recovered from an activity file.
type ExtractedSet struct {
	Category int     `json:"category"`
	Reps     int     `json:"reps"`
	WeightKg float64 `json:"weightKg"`
	Offset   int     `json:"offset"` // byte offset of the accepted window
}

// ExerciseSets groups the sets of one resolved exercise name in scan order.
type ExerciseSets struct {
	Name    string
	Reps    []int
	Weights []float64
}

// Extraction is the grouped output of a scan. Exercises are ordered by first appearance.
type Extraction struct {
	Exercises []ExerciseSets
	Sets      []ExtractedSet
}

// Empty reports whether nothing plausible was found.
func (e Extraction) Empty() bool {
	return len(e.Exercises) == 0
}

// ByName returns the name keyed view of the extraction.
func (e Extraction) ByName() map[string]ExerciseSets {
	out := make(map[string]ExerciseSets, len(e.Exercises))
	for _, ex := range e.Exercises {
		out[ex.Name] = ex
	}
	return out
}

// FileSummary describes the container that was scanned. Scanning does not depend on it.
type FileSummary struct {
	WellFormed   bool
	CRCValid     bool
	FileType     string
	Manufacturer string
	Product      string
	SerialNumber uint32
	CreatedAt    time.Time
}

// SetDetail is one performed set; Set is 1-based.
type SetDetail struct {
	Set    int     `json:"set"`
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

// ExerciseLogEntry is the persisted per-exercise row attached to a workout log.
type ExerciseLogEntry struct {
	ID            string
	TenantID      string
	UserID        string
	WorkoutLogID  string
	ActivityID    string
	ExerciseName  string
	SetsCompleted int
	RepsCompleted string
	WeightKg      *float64
	SetDetails    []SetDetail
	Notes         string
	CreatedAt     time.Time
}

// Reps returns the per-set repetitions in set order.
func (e ExerciseLogEntry) Reps() []int {
	out := make([]int, len(e.SetDetails))
	for i, d := range e.SetDetails {
		out[i] = d.Reps
	}
	return out
}

// Weights returns the per-set weights in set order.
func (e ExerciseLogEntry) Weights() []float64 {
	out := make([]float64, len(e.SetDetails))
	for i, d := range e.SetDetails {
		out[i] = d.Weight
	}
	return out
}

// JoinReps renders reps for display, e.g. "5,5,3".
func JoinReps(reps []int) string {
	parts := make([]string, len(reps))
	for i, r := range reps {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, ",")
}

// ExerciseLogStore persists exercise log rows. Rows are insert-only.
type ExerciseLogStore interface {
	CreateExerciseLog(ctx context.Context, entry ExerciseLogEntry) error
}

// ReconcileInput identifies where reconciled entries belong. An empty WorkoutLogID means preview.
type ReconcileInput struct {
	TenantID     string
	UserID       string
	ActivityID   string
	WorkoutLogID string
}

// ReconcileResult reports reconciliation. Entries holds every computed entry; EntriesCreated
// counts those persisted.
type ReconcileResult struct {
	EntriesCreated  int
	Entries         []ExerciseLogEntry
	FailedExercises []string
	DryRun          bool
	Message         string
}

// Reconciler turns an extraction into exercise log entries.
type Reconciler interface {
	Reconcile(ctx context.Context, input ReconcileInput, extraction Extraction) ReconcileResult
}
