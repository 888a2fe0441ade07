// Package domain defines the device sync business logic: connections, extracted strength
// sets, exercise log entries and the import pipeline tying them together.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/strukturantcoder/gymdagbokense-sub002/internal/observability"
)

// FileFetcher downloads the raw activity file for an activity.
type FileFetcher interface {
	Fetch(ctx context.Context, activityID string, conn *Connection) ([]byte, error)
}

// ActivityDecoder turns raw activity bytes into strength sets. Implementations never fail on
// malformed input.
type ActivityDecoder interface {
	Extract(buf []byte) Extraction
	Inspect(buf []byte) FileSummary
}

// Outcome classifies a finished import.
type Outcome string

const (
	OutcomeImported      Outcome = "imported"
	OutcomePartial       Outcome = "partial"
	OutcomePreview       Outcome = "preview"
	OutcomeNoData        Outcome = "no_data"
	OutcomeAlreadySynced Outcome = "already_synced"
)

// ImportInput identifies the activity to import and, optionally, the workout log to attach to.
type ImportInput struct {
	TenantID     string
	UserID       string
	ActivityID   string
	WorkoutLogID string
}

// Validate checks required fields.
func (in ImportInput) Validate() error {
	switch {
	case strings.TrimSpace(in.UserID) == "":
		return ErrUnauthorized
	case strings.TrimSpace(in.ActivityID) == "":
		return fmt.Errorf("%w: activityId is required", ErrInvalidInput)
	}
	return nil
}

// ExerciseSummary is the caller-facing view of one imported exercise.
type ExerciseSummary struct {
	ExerciseName string
	Sets         int
	Reps         []int
	Weights      []float64
}

// ImportResult is returned for every import that got past connection and download.
type ImportResult struct {
	Success          bool
	Outcome          Outcome
	ExercisesCreated int
	Exercises        []ExerciseSummary
	FailedExercises  []string
	Message          string
	File             *FileSummary
}

// ConnectionStatus is the caller-facing view of a user's connection.
type ConnectionStatus struct {
	Connected  bool
	LastSyncAt *time.Time
}

// ServiceOption configures optional Service behaviour.
type ServiceOption func(*Service)

// WithServiceLogger overrides the service logger.
func WithServiceLogger(logger *log.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// Service orchestrates device sync workflows.
type Service struct {
	connections ConnectionStore
	callbacks   CallbackStore
	fetcher     FileFetcher
	decoder     ActivityDecoder
	reconciler  Reconciler
	ledger      SyncLedger
	locker      SyncLocker
	logger      *log.Logger
	now         func() time.Time
}

// Dependencies bundles the collaborators of a Service.
type Dependencies struct {
	Connections ConnectionStore
	Callbacks   CallbackStore
	Fetcher     FileFetcher
	Decoder     ActivityDecoder
	Reconciler  Reconciler
	Ledger      SyncLedger
	Locker      SyncLocker
}

// NewService constructs a Service.
func NewService(deps Dependencies, opts ...ServiceOption) *Service {
	s := &Service{
		connections: deps.Connections,
		callbacks:   deps.Callbacks,
		fetcher:     deps.Fetcher,
		decoder:     deps.Decoder,
		reconciler:  deps.Reconciler,
		ledger:      deps.Ledger,
		locker:      deps.Locker,
		logger:      log.New(log.Writer(), "[devicesync] ", log.LstdFlags|log.Lshortfile),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImportActivity downloads one activity file, extracts strength sets and reconciles them into
// exercise logs. Without a WorkoutLogID nothing is written and the result is a preview.
func (s *Service) ImportActivity(ctx context.Context, input ImportInput) (*ImportResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	release, err := s.locker.TryLock(ctx, SyncLockKey(input.TenantID, input.UserID, input.ActivityID))
	if err != nil {
		observability.RecordSyncOutcome(failureOutcome(err))
		return nil, err
	}
	defer release()

	if input.WorkoutLogID != "" {
		synced, err := s.ledger.HasSynced(ctx, input.TenantID, input.WorkoutLogID, input.ActivityID)
		if err != nil {
			return nil, fmt.Errorf("check sync ledger: %w", err)
		}
		if synced {
			observability.RecordSyncOutcome(string(OutcomeAlreadySynced))
			return &ImportResult{
				Success:   true,
				Outcome:   OutcomeAlreadySynced,
				Exercises: []ExerciseSummary{},
				Message:   "This activity has already been imported into the workout log.",
			}, nil
		}
	}

	conn, err := s.connections.Active(ctx, input.TenantID, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("load connection: %w", err)
	}
	if conn == nil || !conn.Active {
		observability.RecordSyncOutcome(failureOutcome(ErrNotConnected))
		return nil, ErrNotConnected
	}

	started := time.Now()
	buf, err := s.fetcher.Fetch(ctx, input.ActivityID, conn)
	observability.ObserveFetch(time.Since(started), err)
	if err != nil {
		if errors.Is(err, ErrCryptoUnavailable) {
			s.logger.Printf("CRITICAL request signing failed for activity %s: %v", input.ActivityID, err)
		}
		observability.RecordSyncOutcome(failureOutcome(err))
		return nil, err
	}

	extraction := s.decoder.Extract(buf)
	summary := s.decoder.Inspect(buf)
	if !summary.WellFormed {
		s.logger.Printf("activity %s: file is not a well-formed container, scanning anyway", input.ActivityID)
	} else if !summary.CRCValid {
		s.logger.Printf("activity %s: file checksum mismatch, scanning anyway", input.ActivityID)
	}
	observability.RecordSetsExtracted(len(extraction.Sets))

	syncedAt := s.now()
	if err := s.connections.MarkSynced(ctx, input.TenantID, input.UserID, syncedAt); err != nil {
		s.logger.Printf("mark connection synced (user=%s): %v", input.UserID, err)
	}
	observability.RecordSyncCompleted(syncedAt)

	reconciled := s.reconciler.Reconcile(ctx, ReconcileInput{
		TenantID:     input.TenantID,
		UserID:       input.UserID,
		ActivityID:   input.ActivityID,
		WorkoutLogID: input.WorkoutLogID,
	}, extraction)

	if reconciled.EntriesCreated > 0 {
		record := SyncRecord{
			TenantID:         input.TenantID,
			UserID:           input.UserID,
			WorkoutLogID:     input.WorkoutLogID,
			ActivityID:       input.ActivityID,
			ExercisesCreated: reconciled.EntriesCreated,
			SetsExtracted:    len(extraction.Sets),
			SyncedAt:         syncedAt,
		}
		if err := s.ledger.RecordSync(ctx, record); err != nil && !errors.Is(err, ErrAlreadySynced) {
			s.logger.Printf("record sync (workout_log=%s, activity=%s): %v", input.WorkoutLogID, input.ActivityID, err)
		}
	}

	result := buildResult(reconciled, summary)
	observability.RecordSyncOutcome(string(result.Outcome))
	return result, nil
}

// RegisterCallback stores the callback URL of a platform notification.
func (s *Service) RegisterCallback(ctx context.Context, reg CallbackRegistration) error {
	switch {
	case strings.TrimSpace(reg.UserID) == "":
		return ErrUnauthorized
	case strings.TrimSpace(reg.ActivityID) == "":
		return fmt.Errorf("%w: activityId is required", ErrInvalidInput)
	case !strings.HasPrefix(reg.CallbackURL, "https://") && !strings.HasPrefix(reg.CallbackURL, "http://"):
		return fmt.Errorf("%w: callbackUrl must be an http(s) URL", ErrInvalidInput)
	}
	if reg.ReceivedAt.IsZero() {
		reg.ReceivedAt = s.now()
	}
	return s.callbacks.SaveCallback(ctx, reg)
}

// Connect stores tokens obtained by the authorization handshake as the user's active connection.
func (s *Service) Connect(ctx context.Context, conn Connection) error {
	switch {
	case strings.TrimSpace(conn.UserID) == "":
		return ErrUnauthorized
	case strings.TrimSpace(conn.AccessToken) == "":
		return fmt.Errorf("%w: accessToken is required", ErrInvalidInput)
	}
	conn.Active = true
	conn.LastSyncAt = nil
	conn.CreatedAt = s.now()
	return s.connections.Save(ctx, conn)
}

// ConnectionStatus reports whether the user is connected and when the last sync happened.
func (s *Service) ConnectionStatus(ctx context.Context, tenantID, userID string) (ConnectionStatus, error) {
	conn, err := s.connections.Active(ctx, tenantID, userID)
	if err != nil {
		return ConnectionStatus{}, err
	}
	if conn == nil || !conn.Active {
		return ConnectionStatus{}, nil
	}
	return ConnectionStatus{Connected: true, LastSyncAt: conn.LastSyncAt}, nil
}

// RevokeConnection deactivates the user's connection. Sync history is kept.
func (s *Service) RevokeConnection(ctx context.Context, tenantID, userID string) error {
	ok, err := s.connections.Deactivate(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotConnected
	}
	return nil
}

func buildResult(reconciled ReconcileResult, summary FileSummary) *ImportResult {
	exercises := make([]ExerciseSummary, 0, len(reconciled.Entries))
	for _, entry := range reconciled.Entries {
		exercises = append(exercises, ExerciseSummary{
			ExerciseName: entry.ExerciseName,
			Sets:         entry.SetsCompleted,
			Reps:         entry.Reps(),
			Weights:      entry.Weights(),
		})
	}

	result := &ImportResult{
		Success:          true,
		ExercisesCreated: reconciled.EntriesCreated,
		Exercises:        exercises,
		FailedExercises:  reconciled.FailedExercises,
		Message:          reconciled.Message,
	}
	if summary.WellFormed {
		file := summary
		result.File = &file
	}

	switch {
	case len(reconciled.Entries) == 0:
		result.Outcome = OutcomeNoData
	case reconciled.DryRun:
		result.Outcome = OutcomePreview
	case len(reconciled.FailedExercises) > 0:
		result.Outcome = OutcomePartial
		result.Success = reconciled.EntriesCreated > 0
	default:
		result.Outcome = OutcomeImported
	}
	return result
}

func failureOutcome(err error) string {
	switch {
	case errors.Is(err, ErrNotConnected):
		return "not_connected"
	case errors.Is(err, ErrFileUnavailable):
		return "file_unavailable"
	case errors.Is(err, ErrCryptoUnavailable):
		return "crypto_unavailable"
	case errors.Is(err, ErrSyncInProgress):
		return "in_progress"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
