package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadServerConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadServerConfig(nil)
	require.NoError(t, err)
	require.Equal(t, "localhost:8080", cfg.Address.String())
	require.Equal(t, DefaultStoreFile, cfg.StoreFile)
	require.Equal(t, DefaultStoreInterval, cfg.StoreInterval)
	require.Equal(t, DefaultMigrationsPath, cfg.MigrationsPath)
	require.True(t, cfg.Restore)
	require.False(t, cfg.TLSEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadServerConfig_Precedence(t *testing.T) {
	clearEnv(t)
	path := writeJSON(t, `{
		"address": "0.0.0.0:9000",
		"database_dsn": "postgres://json",
		"store_interval": "1m",
		"restore": false,
		"admin_user": "root"
	}`)
	t.Setenv(EnvAddress, "127.0.0.1:9100")
	t.Setenv(EnvAdminPassword, "env-secret")
	t.Setenv(EnvStoreInterval, "15")

	cfg, err := LoadServerConfig([]string{"-c", path, "-d", "postgres://flag", "-tls-cert", "c.pem", "-tls-key", "k.pem"})
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9100", cfg.Address.String())
	require.Equal(t, "postgres://flag", cfg.DatabaseDSN)
	require.Equal(t, 15*time.Second, cfg.StoreInterval)
	require.False(t, cfg.Restore)
	require.Equal(t, "root", cfg.AdminUser)
	require.Equal(t, "env-secret", cfg.AdminPassword)
	require.True(t, cfg.TLSEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadServerConfig_AddressFlag(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAddress, "127.0.0.1:9100")

	cfg, err := LoadServerConfig([]string{"-a", ":7070"})
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.Address.String())
}

func TestServerConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  ServerConfig
	}{
		{name: "cert without key", cfg: ServerConfig{TLSCert: "c.pem"}},
		{name: "admin without password", cfg: ServerConfig{AdminUser: "root"}},
		{name: "negative interval", cfg: ServerConfig{StoreInterval: -time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.cfg.Validate())
		})
	}
}
