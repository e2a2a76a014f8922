package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/RoGogDBD/sysmon-uploader/internal/config"
	"github.com/RoGogDBD/sysmon-uploader/internal/gateway"
	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"github.com/RoGogDBD/sysmon-uploader/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func clearServerEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvAddress, config.EnvDatabaseDSN, config.EnvStoreFile, config.EnvStoreInterval,
		config.EnvRestore, config.EnvKey, config.EnvAuditFile, config.EnvAuditURL,
		config.EnvAdminUser, config.EnvAdminPassword, config.EnvTLSCert, config.EnvTLSKey,
		config.EnvMigrationsPath, config.EnvLogLevel, config.EnvConfig,
	} {
		t.Setenv(key, "")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestRun_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-nope"}},
		{"cert without key", []string{"-tls-cert", "cert.pem"}},
		{"admin without password", []string{"-admin-user", "root"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearServerEnv(t)
			var stderr bytes.Buffer
			code := run(context.Background(), append(tt.args, "-log-level", "error"), &stderr)
			assert.Equal(t, exitConfig, code)
		})
	}
}

func TestSetup_MemoryStorage(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	storeFile := filepath.Join(dir, "store.json")
	auditFile := filepath.Join(dir, "audit", "audit.log")

	seed := repository.NewMemStorage()
	require.NoError(t, seed.CreateDevice(ctx, models.Device{DeviceID: "rig-01", Name: "Rig"}))
	require.NoError(t, seed.CreateKey(ctx, models.Key{KeyName: models.CPUTemperature, DataType: models.DataTypeFloat}))
	require.NoError(t, repository.SaveToFile(seed, storeFile))

	cfg := &config.ServerConfig{
		StoreFile:     storeFile,
		StoreInterval: time.Minute,
		Restore:       true,
		AdminUser:     "root",
		AdminPassword: "root-pass",
		AuditFile:     auditFile,
	}
	a, err := setup(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.close()
	require.NotNil(t, a.snaps)

	srv := httptest.NewServer(a.router)
	defer srv.Close()
	c, err := gateway.New(gateway.Options{BaseURL: srv.URL + "/api", Timeout: 5 * time.Second})
	require.NoError(t, err)

	token, err := c.Login(ctx, models.Credentials{Username: "root", Password: "root-pass"})
	require.NoError(t, err)

	devices, err := c.ListDevices(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, []models.Device{{DeviceID: "rig-01", Name: "Rig"}}, devices)

	require.NoError(t, c.SubmitBatch(ctx, token, []models.Sample{
		{Key: models.CPUTemperature, Machine: "rig-01", Value: 50.5},
	}))

	audit, err := os.ReadFile(auditFile)
	require.NoError(t, err)
	assert.Contains(t, string(audit), `"machine":"rig-01"`)
	assert.Contains(t, string(audit), `"username":"root"`)
	assert.Contains(t, string(audit), `"count":1`)
}

func TestSetup_MissingSnapshotIsNotAnError(t *testing.T) {
	cfg := &config.ServerConfig{
		StoreFile: filepath.Join(t.TempDir(), "absent.json"),
		Restore:   true,
	}
	a, err := setup(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	a.close()
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	clearServerEnv(t)
	storeFile := filepath.Join(t.TempDir(), "store.json")
	addr := "127.0.0.1:" + strconv.Itoa(freePort(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"-a", addr, "-f", storeFile, "-i", "0", "-log-level", "error"}, &bytes.Buffer{})
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case code := <-done:
		assert.Equal(t, exitOK, code)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}

	// Финальный снимок пишется при остановке.
	_, err := os.Stat(storeFile)
	assert.NoError(t, err)
}
