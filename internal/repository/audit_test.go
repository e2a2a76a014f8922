package repository

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileAuditObserver_OnAuditEvent(t *testing.T) {
	tmpDir := t.TempDir()
	tests := []struct {
		name     string
		filePath string
		event    models.AuditEvent
		wantLine string
	}{
		{
			name:     "write event",
			filePath: filepath.Join(tmpDir, "audit.log"),
			event:    models.AuditEvent{Timestamp: time.Now().Unix(), Machine: "rig-01", Keys: []string{"CPU_Temperature"}, IPAddress: "127.0.0.1"},
			wantLine: `"keys":["CPU_Temperature"]`,
		},
		{
			name:     "create nested dir",
			filePath: filepath.Join(tmpDir, "nested", "audit.log"),
			event:    models.AuditEvent{Timestamp: time.Now().Unix(), Machine: "rig-02", Keys: []string{"SM_Clock"}},
			wantLine: `"machine":"rig-02"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := NewFileAuditObserver(tt.filePath)
			require.NoError(t, err)
			require.NoError(t, obs.OnAuditEvent(tt.event))

			f, err := os.Open(tt.filePath)
			require.NoError(t, err)
			defer func() { _ = f.Close() }()
			line, err := bufio.NewReader(f).ReadString('\n')
			require.NoError(t, err)
			assert.Contains(t, line, tt.wantLine)
		})
	}
}

func TestHTTPAuditObserver_OnAuditEvent(t *testing.T) {
	tests := []struct {
		name        string
		respondCode int
		wantErr     bool
	}{
		{"ok 200", http.StatusOK, false},
		{"created 201", http.StatusCreated, false},
		{"server error 500", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				mu       sync.Mutex
				received bytes.Buffer
			)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b, _ := io.ReadAll(r.Body)
				mu.Lock()
				received.Write(b)
				mu.Unlock()
				w.WriteHeader(tt.respondCode)
			}))
			defer srv.Close()

			obs := NewHTTPAuditObserver(srv.URL)
			err := obs.OnAuditEvent(models.AuditEvent{Timestamp: 1700000000, Machine: "rig-01", Keys: []string{"Power_Draw"}, IPAddress: "127.0.0.1"})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			assert.Contains(t, received.String(), `"keys":["Power_Draw"]`)
			assert.Contains(t, received.String(), `"ts":1700000000`)
		})
	}
}

type failingObserver struct{ calls int }

func (f *failingObserver) OnAuditEvent(models.AuditEvent) error {
	f.calls++
	return errors.New("boom")
}

func TestAuditManager(t *testing.T) {
	mgr := NewAuditManager(nil)
	require.False(t, mgr.HasObservers())

	fpath := filepath.Join(t.TempDir(), "am.log")
	fileObs, err := NewFileAuditObserver(fpath)
	require.NoError(t, err)
	failing := &failingObserver{}

	mgr.Attach(failing)
	mgr.Attach(fileObs)
	require.True(t, mgr.HasObservers())

	// Ошибка одного наблюдателя не мешает остальным.
	mgr.Notify(models.AuditEvent{Timestamp: 1, Machine: "rig-01", Keys: []string{"t1"}})
	assert.Equal(t, 1, failing.calls)

	data, err := os.ReadFile(fpath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"t1"`)

	mgr.Detach(failing)
	mgr.Notify(models.AuditEvent{Timestamp: 2, Machine: "rig-01", Keys: []string{"t2"}})
	assert.Equal(t, 1, failing.calls)

	mgr.Detach(fileObs)
	assert.False(t, mgr.HasObservers())
}
