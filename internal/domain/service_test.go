package domain_test

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/strukturantcoder/gymdagbokense-sub002/internal/domain"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/fetcher"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/fitscan"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/persistence/memory"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/reconcile"
)

var syncTime = time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)

// benchPressFile has one accepted window at offset 20: Bench Press, 8 reps, 70.5 kg.
func benchPressFile() []byte {
	buf := make([]byte, 32)
	buf[0] = 14
	buf[20] = 0
	buf[21] = 8
	binary.LittleEndian.PutUint16(buf[22:24], 705)
	return buf
}

type harness struct {
	service *domain.Service
	store   *memory.Store
	locker  *memory.Locker
	hits    *atomic.Int32
}

func newHarness(t *testing.T, handler http.HandlerFunc) *harness {
	t.Helper()

	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	store := memory.NewStore()
	locker := memory.NewLocker()
	quiet := log.New(io.Discard, "", 0)
	svc := domain.NewService(domain.Dependencies{
		Connections: store,
		Callbacks:   store,
		Fetcher:     fetcher.New(fetcher.Config{BaseURL: srv.URL, Timeout: time.Second}, store, nil),
		Decoder:     fitscan.Scanner{},
		Reconciler:  reconcile.New(store, reconcile.WithLogger(quiet)),
		Ledger:      store,
		Locker:      locker,
	}, domain.WithServiceLogger(quiet), domain.WithClock(func() time.Time { return syncTime }))

	return &harness{service: svc, store: store, locker: locker, hits: hits}
}

func (h *harness) connect(t *testing.T) {
	t.Helper()
	require.NoError(t, h.store.Save(context.Background(), domain.Connection{
		TenantID: "t1", UserID: "u1", AccessToken: "token", TokenSecret: "secret",
	}))
}

func serveFile(data []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}
}

func TestImportActivityEndToEnd(t *testing.T) {
	h := newHarness(t, serveFile(benchPressFile()))
	h.connect(t)

	result, err := h.service.ImportActivity(context.Background(), domain.ImportInput{
		TenantID: "t1", UserID: "u1", ActivityID: "a1", WorkoutLogID: "w1",
	})
	require.NoError(t, err)

	require.True(t, result.Success)
	require.Equal(t, domain.OutcomeImported, result.Outcome)
	require.Equal(t, 1, result.ExercisesCreated)
	require.Equal(t, []domain.ExerciseSummary{{
		ExerciseName: "Bench Press", Sets: 1, Reps: []int{8}, Weights: []float64{70.5},
	}}, result.Exercises)

	logs := h.store.ExerciseLogs("w1")
	require.Len(t, logs, 1)
	require.Equal(t, 1, logs[0].SetsCompleted)
	require.NotNil(t, logs[0].WeightKg)
	require.Equal(t, 70.5, *logs[0].WeightKg)

	conn, err := h.store.Active(context.Background(), "t1", "u1")
	require.NoError(t, err)
	require.NotNil(t, conn.LastSyncAt)
	require.Equal(t, syncTime, *conn.LastSyncAt)

	synced, err := h.store.HasSynced(context.Background(), "t1", "w1", "a1")
	require.NoError(t, err)
	require.True(t, synced)
}

func TestImportActivityTwiceSkipsSecondRun(t *testing.T) {
	h := newHarness(t, serveFile(benchPressFile()))
	h.connect(t)
	input := domain.ImportInput{TenantID: "t1", UserID: "u1", ActivityID: "a1", WorkoutLogID: "w1"}

	_, err := h.service.ImportActivity(context.Background(), input)
	require.NoError(t, err)

	again, err := h.service.ImportActivity(context.Background(), input)
	require.NoError(t, err)
	require.True(t, again.Success)
	require.Equal(t, domain.OutcomeAlreadySynced, again.Outcome)
	require.Zero(t, again.ExercisesCreated)

	require.Len(t, h.store.ExerciseLogs("w1"), 1)
	require.EqualValues(t, 1, h.hits.Load())
}

func TestImportActivityPreviewWritesNothing(t *testing.T) {
	h := newHarness(t, serveFile(benchPressFile()))
	h.connect(t)

	result, err := h.service.ImportActivity(context.Background(), domain.ImportInput{TenantID: "t1", UserID: "u1", ActivityID: "a1"})
	require.NoError(t, err)
	require.Equal(t, domain.OutcomePreview, result.Outcome)
	require.Zero(t, result.ExercisesCreated)
	require.Len(t, result.Exercises, 1)
	require.Empty(t, h.store.ExerciseLogs(""))
}

func TestImportActivityNoStrengthData(t *testing.T) {
	h := newHarness(t, serveFile(make([]byte, 64)))
	h.connect(t)

	result, err := h.service.ImportActivity(context.Background(), domain.ImportInput{
		TenantID: "t1", UserID: "u1", ActivityID: "a1", WorkoutLogID: "w1",
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, domain.OutcomeNoData, result.Outcome)
	require.Zero(t, result.ExercisesCreated)
	require.Equal(t, reconcile.MessageNoData, result.Message)

	synced, err := h.store.HasSynced(context.Background(), "t1", "w1", "a1")
	require.NoError(t, err)
	require.False(t, synced)
}

func TestImportActivityNotConnected(t *testing.T) {
	h := newHarness(t, serveFile(benchPressFile()))

	_, err := h.service.ImportActivity(context.Background(), domain.ImportInput{TenantID: "t1", UserID: "u1", ActivityID: "a1"})
	require.ErrorIs(t, err, domain.ErrNotConnected)
	require.Zero(t, h.hits.Load())
}

func TestImportActivityRevokedConnection(t *testing.T) {
	h := newHarness(t, serveFile(benchPressFile()))
	h.connect(t)
	require.NoError(t, h.service.RevokeConnection(context.Background(), "t1", "u1"))

	_, err := h.service.ImportActivity(context.Background(), domain.ImportInput{TenantID: "t1", UserID: "u1", ActivityID: "a1"})
	require.ErrorIs(t, err, domain.ErrNotConnected)

	status, err := h.service.ConnectionStatus(context.Background(), "t1", "u1")
	require.NoError(t, err)
	require.False(t, status.Connected)
	require.ErrorIs(t, h.service.RevokeConnection(context.Background(), "t1", "u1"), domain.ErrNotConnected)
}

func TestImportActivityFileUnavailable(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"upstream"}`, http.StatusBadGateway)
	})
	h.connect(t)

	_, err := h.service.ImportActivity(context.Background(), domain.ImportInput{
		TenantID: "t1", UserID: "u1", ActivityID: "a1", WorkoutLogID: "w1",
	})
	require.ErrorIs(t, err, domain.ErrFileUnavailable)
	require.Empty(t, h.store.ExerciseLogs("w1"))

	conn, err := h.store.Active(context.Background(), "t1", "u1")
	require.NoError(t, err)
	require.Nil(t, conn.LastSyncAt)
}

func TestImportActivityRejectsConcurrentSync(t *testing.T) {
	h := newHarness(t, serveFile(benchPressFile()))
	h.connect(t)

	release, err := h.locker.TryLock(context.Background(), domain.SyncLockKey("t1", "u1", "a1"))
	require.NoError(t, err)
	defer release()

	_, err = h.service.ImportActivity(context.Background(), domain.ImportInput{TenantID: "t1", UserID: "u1", ActivityID: "a1"})
	require.ErrorIs(t, err, domain.ErrSyncInProgress)
	require.Zero(t, h.hits.Load())
}

func TestImportActivityValidation(t *testing.T) {
	h := newHarness(t, serveFile(nil))

	_, err := h.service.ImportActivity(context.Background(), domain.ImportInput{UserID: "u1"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = h.service.ImportActivity(context.Background(), domain.ImportInput{ActivityID: "a1"})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestImportActivityUsesRegisteredCallback(t *testing.T) {
	callback := httptest.NewServer(serveFile(benchPressFile()))
	defer callback.Close()

	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h.connect(t)

	require.NoError(t, h.service.RegisterCallback(context.Background(), domain.CallbackRegistration{
		TenantID: "t1", UserID: "u1", ActivityID: "a1", CallbackURL: callback.URL + "/file",
	}))

	result, err := h.service.ImportActivity(context.Background(), domain.ImportInput{TenantID: "t1", UserID: "u1", ActivityID: "a1"})
	require.NoError(t, err)
	require.Len(t, result.Exercises, 1)
	require.Zero(t, h.hits.Load())
}

func TestRegisterCallbackValidation(t *testing.T) {
	h := newHarness(t, serveFile(nil))

	err := h.service.RegisterCallback(context.Background(), domain.CallbackRegistration{UserID: "u1", ActivityID: "a1", CallbackURL: "ftp://x"})
	require.True(t, errors.Is(err, domain.ErrInvalidInput))
}
