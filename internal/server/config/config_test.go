package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"rulehub-server"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestLoadConfig_Defaults(t *testing.T) {
	withArgs(t)

	cfg := LoadConfig()

	require.Equal(t, ":8080", cfg.EndpointAddr)
	require.Equal(t, 60*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, 24*time.Hour, cfg.EmailVerifyTokenTTL)
	require.Equal(t, 2*time.Hour, cfg.ResetTokenTTL)
	require.False(t, cfg.RequireEmailVerification)
	require.Empty(t, cfg.SMTPHost)
	require.Empty(t, cfg.RedisAddr)
}

func TestLoadConfig_Flags(t *testing.T) {
	withArgs(t, "-a", ":9090", "-d", "postgres://x", "-t", "5", "-r", "60", "-v")

	cfg := LoadConfig()

	require.Equal(t, ":9090", cfg.EndpointAddr)
	require.Equal(t, "postgres://x", cfg.DatabaseDSN)
	require.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, time.Hour, cfg.RefreshTokenTTL)
	require.True(t, cfg.RequireEmailVerification)
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "conf*.json")
	require.NoError(t, err)
	_, err = f.WriteString(`{
		"endpoint_addr": ":7070",
		"access_token_ttl": "30m",
		"refresh_token_ttl": "168h",
		"require_email_verification": true,
		"redis_addr": "localhost:6379",
		"redis_cache_ttl": "45s"
	}`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	withArgs(t, "-c", f.Name())

	cfg := LoadConfig()

	require.Equal(t, ":7070", cfg.EndpointAddr)
	require.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 168*time.Hour, cfg.RefreshTokenTTL)
	require.True(t, cfg.RequireEmailVerification)
	require.Equal(t, "localhost:6379", cfg.RedisAddr)
	require.Equal(t, 45*time.Second, cfg.RedisCacheTTL)
	// values absent from the file keep their defaults
	require.Equal(t, 24*time.Hour, cfg.EmailVerifyTokenTTL)
}

func TestLoadConfig_FlagsOverrideJson(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "conf*.json")
	require.NoError(t, err)
	_, err = f.WriteString(`{"endpoint_addr": ":7070"}`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	withArgs(t, "-c", f.Name(), "-a", ":6060")

	cfg := LoadConfig()
	require.Equal(t, ":6060", cfg.EndpointAddr)
}
