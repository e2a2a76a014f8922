package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// clearEnv обнуляет переменные окружения, влияющие на загрузку конфигурации.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvAddress, EnvUsername, EnvPassword, EnvDeviceID, EnvInterval, EnvInterface,
		EnvFailureBudget, EnvCPUTempPath, EnvGPUTool, EnvMemSource, EnvHostMetrics,
		EnvCommandTimeout, EnvRequestTimeout, EnvSchedule, EnvStartDelay, EnvCAFile,
		EnvKey, EnvGzip, EnvLogLevel, EnvConfig,
		EnvDatabaseDSN, EnvStoreFile, EnvStoreInterval, EnvRestore, EnvAuditFile, EnvAuditURL,
		EnvAdminUser, EnvAdminPassword, EnvTLSCert, EnvTLSKey, EnvMigrationsPath,
	} {
		t.Setenv(key, "")
	}
}

func writeJSON(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAgentConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadAgentConfig(nil)
	require.NoError(t, err)
	require.Equal(t, DefaultInterval, cfg.Interval)
	require.Equal(t, DefaultFailureBudget, cfg.FailureBudget)
	require.Equal(t, DefaultInterface, cfg.Interface)
	require.Equal(t, DefaultCPUTempPath, cfg.CPUTempPath)
	require.Equal(t, DefaultGPUTool, cfg.GPUTool)
	require.Equal(t, MemSourceFree, cfg.MemSource)
	require.Equal(t, ScheduleDelay, cfg.Schedule)
	require.Equal(t, DefaultCommandTimeout, cfg.CommandTimeout)
	require.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	require.Zero(t, cfg.StartDelay)
	require.False(t, cfg.Gzip)
	require.False(t, cfg.HostMetrics)
}

func TestLoadAgentConfig_Precedence(t *testing.T) {
	clearEnv(t)
	path := writeJSON(t, `{
		"address": "https://json.example/api",
		"username": "json-user",
		"password": "json-pass",
		"device_id": "json-device",
		"interval": "30s",
		"interface": "wlan0",
		"failure_budget": 9,
		"gzip": true,
		"start_delay": "1m"
	}`)

	t.Setenv(EnvInterval, "10")
	t.Setenv(EnvUsername, "env-user")
	t.Setenv(EnvFailureBudget, "3")

	cfg, err := LoadAgentConfig([]string{"-c", path, "-i", "2", "-d", "flag-device", "-a", "https://flag.example/api/"})
	require.NoError(t, err)

	require.Equal(t, "https://flag.example/api", cfg.BaseURL, "flag wins, trailing slash trimmed")
	require.Equal(t, "flag-device", cfg.DeviceID)
	require.Equal(t, 2*time.Second, cfg.Interval)
	require.Equal(t, "env-user", cfg.Username)
	require.Equal(t, 3, cfg.FailureBudget)
	require.Equal(t, "json-pass", cfg.Password)
	require.Equal(t, "wlan0", cfg.Interface)
	require.True(t, cfg.Gzip)
	require.Equal(t, time.Minute, cfg.StartDelay)
	require.NoError(t, cfg.Validate())
}

func TestLoadAgentConfig_ConfigFromEnv(t *testing.T) {
	clearEnv(t)
	path := writeJSON(t, `{"schedule": "rate", "mem_source": "gopsutil", "host_metrics": true}`)
	t.Setenv(EnvConfig, path)

	cfg, err := LoadAgentConfig(nil)
	require.NoError(t, err)
	require.Equal(t, ScheduleRate, cfg.Schedule)
	require.Equal(t, MemSourceGopsutil, cfg.MemSource)
	require.True(t, cfg.HostMetrics)
}

func TestLoadAgentConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
		json string
	}{
		{name: "bad env int", env: map[string]string{EnvFailureBudget: "many"}},
		{name: "bad env bool", env: map[string]string{EnvGzip: "perhaps"}},
		{name: "bad json duration", json: `{"interval": "soon"}`},
		{name: "broken json", json: `{`},
		{name: "unknown flag", args: []string{"-unknown"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			args := tt.args
			if tt.json != "" {
				args = append(args, "-c", writeJSON(t, tt.json))
			}
			_, err := LoadAgentConfig(args)
			require.Error(t, err)
		})
	}
}

func TestLoadAgentConfig_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadAgentConfig([]string{"-c", filepath.Join(t.TempDir(), "absent.json")})
	require.Error(t, err)
}

func validAgentConfig() *AgentConfig {
	cfg := DefaultAgentConfig()
	cfg.BaseURL = "https://backend.example/api"
	cfg.Username = "agent"
	cfg.Password = "secret"
	cfg.DeviceID = "rig-01"
	return cfg
}

func TestAgentConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *AgentConfig)
		want   error
	}{
		{name: "valid", mutate: func(c *AgentConfig) {}},
		{name: "missing address", mutate: func(c *AgentConfig) { c.BaseURL = "" }, want: ErrMissingAddress},
		{name: "missing username", mutate: func(c *AgentConfig) { c.Username = "" }, want: ErrMissingUsername},
		{name: "missing password", mutate: func(c *AgentConfig) { c.Password = "" }, want: ErrMissingPassword},
		{name: "missing device", mutate: func(c *AgentConfig) { c.DeviceID = "" }, want: ErrMissingDeviceID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAgentConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAgentConfig_ValidateRanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *AgentConfig)
	}{
		{name: "zero interval", mutate: func(c *AgentConfig) { c.Interval = 0 }},
		{name: "zero budget", mutate: func(c *AgentConfig) { c.FailureBudget = 0 }},
		{name: "empty interface", mutate: func(c *AgentConfig) { c.Interface = "" }},
		{name: "negative start delay", mutate: func(c *AgentConfig) { c.StartDelay = -time.Second }},
		{name: "unknown schedule", mutate: func(c *AgentConfig) { c.Schedule = "cron" }},
		{name: "unknown mem source", mutate: func(c *AgentConfig) { c.MemSource = "proc" }},
		{name: "scheme missing", mutate: func(c *AgentConfig) { c.BaseURL = "backend.example/api" }},
		{name: "ftp scheme", mutate: func(c *AgentConfig) { c.BaseURL = "ftp://backend.example" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAgentConfig()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestAgentConfig_ValidateJoinsErrors(t *testing.T) {
	err := DefaultAgentConfig().Validate()
	require.Error(t, err)
	for _, want := range []error{ErrMissingAddress, ErrMissingUsername, ErrMissingPassword, ErrMissingDeviceID} {
		require.True(t, errors.Is(err, want), "expected %v in %v", want, err)
	}
}
