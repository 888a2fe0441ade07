// Package bootstrap assembles the device sync service from configuration. It is shared by the
// API and consumer binaries.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strukturantcoder/gymdagbokense-sub002/internal/config"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/domain"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/fetcher"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/fitscan"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/persistence/memory"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/persistence/postgres"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/reconcile"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/signer"
)

// Backends accepted by STORE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Runtime is a wired service plus the resources it owns.
type Runtime struct {
	Service *domain.Service
	// Pool is nil for the memory backend.
	Pool *pgxpool.Pool
}

// Close releases the database pool, if any.
func (r *Runtime) Close() {
	if r.Pool != nil {
		r.Pool.Close()
	}
}

type stores struct {
	connections domain.ConnectionStore
	callbacks   domain.CallbackStore
	logs        domain.ExerciseLogStore
	ledger      domain.SyncLedger
	locker      domain.SyncLocker
}

// Build wires the service for cfg.
func Build(ctx context.Context, cfg config.Config) (*Runtime, error) {
	authorizer, err := newAuthorizer(cfg)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{}
	var s stores
	switch cfg.StoreBackend {
	case BackendMemory:
		store := memory.NewStore()
		s = stores{connections: store, callbacks: store, logs: store, ledger: store, locker: memory.NewLocker()}
	case BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		rt.Pool = pool
		repo := postgres.NewRepository(pool)
		s = stores{connections: repo, callbacks: repo, logs: repo, ledger: repo, locker: postgres.NewLocker(pool)}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	fetch := fetcher.New(fetcher.Config{
		BaseURL:    cfg.PlatformAPIURL,
		AuthScheme: cfg.PlatformAuthScheme,
		Timeout:    cfg.FetchTimeout,
		MaxBytes:   cfg.MaxActivityFileBytes,
	}, s.callbacks, authorizer)

	rt.Service = domain.NewService(domain.Dependencies{
		Connections: s.connections,
		Callbacks:   s.callbacks,
		Fetcher:     fetch,
		Decoder:     fitscan.Scanner{},
		Reconciler:  reconcile.New(s.logs),
		Ledger:      s.ledger,
		Locker:      s.locker,
	})
	return rt, nil
}

func newAuthorizer(cfg config.Config) (fetcher.Authorizer, error) {
	switch cfg.PlatformAuthScheme {
	case config.AuthSchemeBearer:
		return nil, nil
	case config.AuthSchemeOAuth1:
		if cfg.PlatformConsumerKey == "" || cfg.PlatformConsumerSecret == "" {
			return nil, fmt.Errorf("%w: oauth1 requires PLATFORM_CONSUMER_KEY and PLATFORM_CONSUMER_SECRET", domain.ErrCryptoUnavailable)
		}
		return signer.New(cfg.PlatformConsumerKey, cfg.PlatformConsumerSecret), nil
	default:
		return nil, fmt.Errorf("unknown platform auth scheme %q", cfg.PlatformAuthScheme)
	}
}
