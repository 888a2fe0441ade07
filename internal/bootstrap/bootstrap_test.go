package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strukturantcoder/gymdagbokense-sub002/internal/config"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/domain"
)

func memoryConfig() config.Config {
	return config.Config{
		StoreBackend:       BackendMemory,
		PlatformAPIURL:     "https://platform.example/activityFile",
		PlatformAuthScheme: config.AuthSchemeBearer,
	}
}

func TestBuildMemoryBackend(t *testing.T) {
	rt, err := Build(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer rt.Close()

	require.NotNil(t, rt.Service)
	require.Nil(t, rt.Pool)

	status, err := rt.Service.ConnectionStatus(context.Background(), "t1", "u1")
	require.NoError(t, err)
	require.False(t, status.Connected)
}

func TestBuildOAuth1NeedsConsumerCredentials(t *testing.T) {
	cfg := memoryConfig()
	cfg.PlatformAuthScheme = config.AuthSchemeOAuth1

	_, err := Build(context.Background(), cfg)
	require.ErrorIs(t, err, domain.ErrCryptoUnavailable)

	cfg.PlatformConsumerKey = "ck"
	cfg.PlatformConsumerSecret = "cs"
	rt, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	rt.Close()
}

func TestBuildRejectsUnknownSettings(t *testing.T) {
	cfg := memoryConfig()
	cfg.StoreBackend = "sqlite"
	_, err := Build(context.Background(), cfg)
	require.Error(t, err)

	cfg = memoryConfig()
	cfg.PlatformAuthScheme = "basic"
	_, err = Build(context.Background(), cfg)
	require.Error(t, err)
}
