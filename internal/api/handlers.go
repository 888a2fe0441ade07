// Package api exposes the device sync HTTP endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/strukturantcoder/gymdagbokense-sub002/internal/auth"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/domain"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	logger  *log.Logger
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{
		service: service,
		logger:  log.New(log.Writer(), "[api] ", log.LstdFlags|log.Lshortfile),
	}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/device-sync/imports", h.imports)
	mux.HandleFunc("/v1/device-sync/notifications", h.notifications)
	mux.HandleFunc("/v1/device-sync/connection", h.connection)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) imports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := h.authorize(w, r, auth.ScopeDeviceSyncWrite)
	if !ok {
		return
	}

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	result, err := h.service.ImportActivity(r.Context(), domain.ImportInput{
		TenantID:     claims.TenantID,
		UserID:       claims.Subject,
		ActivityID:   req.ActivityID,
		WorkoutLogID: req.WorkoutLogID,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toImportResponse(result))
}

func (h *Handler) notifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := h.authorize(w, r, auth.ScopeDeviceSyncWrite)
	if !ok {
		return
	}

	var req NotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	err := h.service.RegisterCallback(r.Context(), domain.CallbackRegistration{
		TenantID:    claims.TenantID,
		UserID:      claims.Subject,
		ActivityID:  strings.TrimSpace(req.ActivityID),
		CallbackURL: strings.TrimSpace(req.CallbackURL),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) connection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		claims, ok := h.authorize(w, r, auth.ScopeDeviceSyncRead)
		if !ok {
			return
		}
		status, err := h.service.ConnectionStatus(r.Context(), claims.TenantID, claims.Subject)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ConnectionResponse{Connected: status.Connected, LastSyncAt: status.LastSyncAt})
	case http.MethodPut:
		claims, ok := h.authorize(w, r, auth.ScopeDeviceSyncWrite)
		if !ok {
			return
		}
		var req ConnectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		err := h.service.Connect(r.Context(), domain.Connection{
			TenantID:    claims.TenantID,
			UserID:      claims.Subject,
			AccessToken: req.AccessToken,
			TokenSecret: req.TokenSecret,
		})
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ConnectionResponse{Connected: true})
	case http.MethodDelete:
		claims, ok := h.authorize(w, r, auth.ScopeDeviceSyncWrite)
		if !ok {
			return
		}
		if err := h.service.RevokeConnection(r.Context(), claims.TenantID, claims.Subject); err != nil {
			h.writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

// authorize accepts claims carrying scope; write scope implies read.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, scope string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if !claims.HasScope(scope) && !(scope == auth.ScopeDeviceSyncRead && claims.HasScope(auth.ScopeDeviceSyncWrite)) {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scope+" required")
		return nil, false
	}
	return claims, true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotConnected):
		writeError(w, http.StatusBadRequest, "not_connected", "no active device connection; authorize the device platform first")
	case errors.Is(err, domain.ErrFileUnavailable):
		writeError(w, http.StatusBadRequest, "file_unavailable", "the activity file could not be downloaded; try again later")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrSyncInProgress):
		writeError(w, http.StatusConflict, "sync_in_progress", "a sync for this activity is already running")
	case errors.Is(err, domain.ErrCryptoUnavailable):
		h.logger.Printf("request signing unavailable: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error", "request signing is unavailable")
	default:
		h.logger.Printf("unhandled error: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

// ImportRequest is the payload for POST /v1/device-sync/imports.
type ImportRequest struct {
	ActivityID   string `json:"activityId"`
	WorkoutLogID string `json:"workoutLogId,omitempty"`
}

// Validate ensures request correctness.
func (r *ImportRequest) Validate() error {
	r.ActivityID = strings.TrimSpace(r.ActivityID)
	r.WorkoutLogID = strings.TrimSpace(r.WorkoutLogID)
	if r.ActivityID == "" {
		return errors.New("activityId is required")
	}
	return nil
}

// ExerciseView is one imported exercise.
type ExerciseView struct {
	ExerciseName string    `json:"exerciseName"`
	Sets         int       `json:"sets"`
	Reps         []int     `json:"reps"`
	Weight       []float64 `json:"weight"`
}

// FileView describes the downloaded container.
type FileView struct {
	WellFormed   bool       `json:"wellFormed"`
	CRCValid     bool       `json:"crcValid"`
	FileType     string     `json:"fileType,omitempty"`
	Manufacturer string     `json:"manufacturer,omitempty"`
	Product      string     `json:"product,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

// ImportResponse is returned for a finished import.
type ImportResponse struct {
	Success          bool           `json:"success"`
	ExercisesCreated int            `json:"exercisesCreated"`
	Exercises        []ExerciseView `json:"exercises"`
	Message          string         `json:"message"`
	Outcome          string         `json:"outcome"`
	FailedExercises  []string       `json:"failedExercises,omitempty"`
	File             *FileView      `json:"file,omitempty"`
}

// NotificationRequest is the payload for POST /v1/device-sync/notifications.
type NotificationRequest struct {
	ActivityID  string `json:"activityId"`
	CallbackURL string `json:"callbackUrl"`
}

// ConnectRequest is the payload for PUT /v1/device-sync/connection.
type ConnectRequest struct {
	AccessToken string `json:"accessToken"`
	TokenSecret string `json:"tokenSecret"`
}

// ConnectionResponse describes the caller's connection.
type ConnectionResponse struct {
	Connected  bool       `json:"connected"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toImportResponse(result *domain.ImportResult) ImportResponse {
	resp := ImportResponse{
		Success:          result.Success,
		ExercisesCreated: result.ExercisesCreated,
		Exercises:        make([]ExerciseView, 0, len(result.Exercises)),
		Message:          result.Message,
		Outcome:          string(result.Outcome),
		FailedExercises:  result.FailedExercises,
	}
	for _, ex := range result.Exercises {
		resp.Exercises = append(resp.Exercises, ExerciseView{
			ExerciseName: ex.ExerciseName,
			Sets:         ex.Sets,
			Reps:         ex.Reps,
			Weight:       ex.Weights,
		})
	}
	if f := result.File; f != nil {
		view := &FileView{
			WellFormed:   f.WellFormed,
			CRCValid:     f.CRCValid,
			FileType:     f.FileType,
			Manufacturer: f.Manufacturer,
			Product:      f.Product,
		}
		if !f.CreatedAt.IsZero() {
			created := f.CreatedAt
			view.CreatedAt = &created
		}
		resp.File = view
	}
	return resp
}
