package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/strukturantcoder/gymdagbokense-sub002/internal/domain"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/events"
)

// Importer is the part of domain.Service the import handler drives.
type Importer interface {
	RegisterCallback(ctx context.Context, reg domain.CallbackRegistration) error
	ImportActivity(ctx context.Context, input domain.ImportInput) (*domain.ImportResult, error)
}

// ImportHandler registers announced activity files and imports those that name a workout log.
// Only FileUnavailable and infrastructure errors are returned, which leaves the record
// uncommitted for a later attempt.
type ImportHandler struct {
	importer Importer
	logger   *log.Logger
}

// NewImportHandler constructs an ImportHandler.
func NewImportHandler(importer Importer, logger *log.Logger) *ImportHandler {
	if logger == nil {
		logger = log.New(log.Writer(), "[consumer] ", log.LstdFlags|log.Lshortfile)
	}
	return &ImportHandler{importer: importer, logger: logger}
}

// Handle implements Handler.
func (h *ImportHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != events.TypeDeviceActivityAvailable {
		return nil
	}

	var note events.DeviceActivityAvailable
	if err := json.Unmarshal(msg.Payload, &note); err != nil {
		h.logger.Printf("drop notification at offset %d: %v", msg.Offset, err)
		return nil
	}
	if note.TenantID == "" {
		note.TenantID = msg.TenantID
	}

	if note.CallbackURL != "" {
		err := h.importer.RegisterCallback(ctx, domain.CallbackRegistration{
			TenantID:    note.TenantID,
			UserID:      note.UserID,
			ActivityID:  note.ActivityID,
			CallbackURL: note.CallbackURL,
			ReceivedAt:  note.ReceivedAt,
		})
		if err != nil {
			if permanent(err) {
				h.logger.Printf("drop notification for activity %s: %v", note.ActivityID, err)
				return nil
			}
			return err
		}
	}

	if note.WorkoutLogID == "" {
		return nil
	}

	result, err := h.importer.ImportActivity(ctx, domain.ImportInput{
		TenantID:     note.TenantID,
		UserID:       note.UserID,
		ActivityID:   note.ActivityID,
		WorkoutLogID: note.WorkoutLogID,
	})
	switch {
	case err == nil:
		h.logger.Printf("activity %s -> workout log %s: %s (%d exercises)", note.ActivityID, note.WorkoutLogID, result.Outcome, result.ExercisesCreated)
		return nil
	case permanent(err), errors.Is(err, domain.ErrSyncInProgress):
		h.logger.Printf("skip import of activity %s: %v", note.ActivityID, err)
		return nil
	default:
		return err
	}
}

// permanent errors cannot be fixed by redelivering the same record.
func permanent(err error) bool {
	return errors.Is(err, domain.ErrNotConnected) ||
		errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrAlreadySynced)
}
