package sensor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner возвращает заранее заданный вывод и запоминает вызовы.
type fakeRunner struct {
	out   []byte
	err   error
	calls [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.out, f.err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestCPUTemp_Read(t *testing.T) {
	tests := []struct {
		name   string
		body   *string
		want   float64
		wantOK bool
	}{
		{name: "millidegrees", body: ptr("55200\n"), want: 55.2, wantOK: true},
		{name: "negative", body: ptr("-1500"), want: -1.5, wantOK: true},
		{name: "garbage", body: ptr("hot")},
		{name: "missing file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "temp1_input")
			if tt.body != nil {
				path = writeFile(t, "temp1_input", *tt.body)
			}
			got, ok := (&CPUTemp{Path: path}).Read(context.Background())
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func ptr(s string) *string { return &s }

func TestParseGPU(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    GPUReading
		wantErr bool
	}{
		{
			name: "eight fields",
			out:  "61, 37, 1410, 5001, 1275, 1395, 112.45, 3021\n",
			want: GPUReading{Temperature: 61, Utilization: 37, SMClock: 1410, MemoryClock: 5001,
				VideoClock: 1275, GraphicsClock: 1395, PowerDraw: 112.45, MemoryUsed: 3021},
		},
		{
			name: "leading blank line and second gpu",
			out:  "\n40,0,300,405,540,300,20.1,5\n41,1,300,405,540,300,20.2,6\n",
			want: GPUReading{Temperature: 40, Utilization: 0, SMClock: 300, MemoryClock: 405,
				VideoClock: 540, GraphicsClock: 300, PowerDraw: 20.1, MemoryUsed: 5},
		},
		{name: "seven fields", out: "61, 37, 1410, 5001, 1275, 1395, 112.45", wantErr: true},
		{name: "not available", out: "61, 37, 1410, 5001, 1275, 1395, [N/A], 3021", wantErr: true},
		{name: "empty", out: "\n\n", wantErr: true},
		{name: "nan", out: "45, 10, 1000, 5000, NaN, 900, 30.5, 512", wantErr: true},
		{name: "inf", out: "45, 10, 1000, 5000, 800, 900, +Inf, 512", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGPU([]byte(tt.out))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestGPUReading_MaxVideoGraphicClock(t *testing.T) {
	assert.Equal(t, 1395.0, GPUReading{VideoClock: 1275, GraphicsClock: 1395}.MaxVideoGraphicClock())
	assert.Equal(t, 540.0, GPUReading{VideoClock: 540, GraphicsClock: 300}.MaxVideoGraphicClock())
}

func TestGPU_Read(t *testing.T) {
	t.Run("query arguments", func(t *testing.T) {
		r := &fakeRunner{out: []byte("61, 37, 1410, 5001, 1275, 1395, 112.45, 3021")}
		got, ok := (&GPU{Runner: r, Binary: "nvidia-smi"}).Read(context.Background())
		require.True(t, ok)
		require.Equal(t, 61.0, got.Temperature)
		require.Len(t, r.calls, 1)
		require.Equal(t, []string{
			"nvidia-smi",
			"--query-gpu=temperature.gpu,utilization.gpu,clocks.current.sm,clocks.current.memory,clocks.current.video,clocks.current.graphics,power.draw,memory.used",
			"--format=csv,noheader,nounits",
		}, r.calls[0])
	})

	t.Run("seven fields is atomic failure", func(t *testing.T) {
		r := &fakeRunner{out: []byte("61, 37, 1410, 5001, 1275, 1395, 112.45")}
		got, ok := (&GPU{Runner: r, Binary: "nvidia-smi"}).Read(context.Background())
		require.False(t, ok)
		require.Equal(t, GPUReading{}, got)
	})

	t.Run("non-finite field is atomic failure", func(t *testing.T) {
		r := &fakeRunner{out: []byte("61, 37, 1410, 5001, 1275, 1395, nan, 3021")}
		got, ok := (&GPU{Runner: r, Binary: "nvidia-smi"}).Read(context.Background())
		require.False(t, ok)
		require.Equal(t, GPUReading{}, got)
	})

	t.Run("tool error", func(t *testing.T) {
		r := &fakeRunner{err: errors.New("exit status 9")}
		_, ok := (&GPU{Runner: r, Binary: "nvidia-smi"}).Read(context.Background())
		require.False(t, ok)
	})
}

const freeOutput = `               total        used        free      shared  buff/cache   available
Mem:           15890        3584        8101         412        4205       11584
Swap:           2047           0        2047
`

func TestParseFree(t *testing.T) {
	used, err := ParseFree([]byte(freeOutput))
	require.NoError(t, err)
	require.Equal(t, 3584.0, used)

	_, err = ParseFree([]byte("Swap: 2047 0 2047\n"))
	require.Error(t, err)

	_, err = ParseFree([]byte("Mem: 15890\n"))
	require.Error(t, err)

	_, err = ParseFree([]byte("Mem: 15890 nan 1024\n"))
	require.Error(t, err)
}

func TestMemory_Read(t *testing.T) {
	r := &fakeRunner{out: []byte(freeOutput)}
	got, ok := (&Memory{Runner: r}).Read(context.Background())
	require.True(t, ok)
	assert.InDelta(t, 3.5, got, 1e-9)
	require.Equal(t, []string{"free", "-m"}, r.calls[0])

	_, ok = (&Memory{Runner: &fakeRunner{err: errors.New("not found")}}).Read(context.Background())
	require.False(t, ok)
}

func TestVirtualMemory_Read(t *testing.T) {
	v := &VirtualMemory{stat: func(context.Context) (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{Used: 3 * 1024 * 1024 * 1024}, nil
	}}
	got, ok := v.Read(context.Background())
	require.True(t, ok)
	require.Equal(t, 3.0, got)

	v.stat = func(context.Context) (*mem.VirtualMemoryStat, error) { return nil, errors.New("no proc") }
	_, ok = v.Read(context.Background())
	require.False(t, ok)
}

const netDev = `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo:  123456     100    0    0    0     0          0         0   123456     100    0    0    0     0       0          0
 veth0: 9999999      10    0    0    0     0          0         0  9999999      10    0    0    0     0       0          0
  eth0:1048576    2000    0    0    0     0          0         0  1048576    1500    0    0    0     0       0          0
`

func TestParseNetDev(t *testing.T) {
	got, err := ParseNetDev([]byte(netDev), "eth0")
	require.NoError(t, err)
	require.Equal(t, uint64(2097152), got)

	got, err = ParseNetDev([]byte(netDev), "lo")
	require.NoError(t, err)
	require.Equal(t, uint64(246912), got)

	_, err = ParseNetDev([]byte(netDev), "wlan0")
	require.Error(t, err)

	_, err = ParseNetDev([]byte("eth0: 1 2 3\n"), "eth0")
	require.Error(t, err)
}

func TestNetDev_Read(t *testing.T) {
	path := writeFile(t, "dev", netDev)

	got, ok := (&NetDev{Path: path, Interface: "eth0"}).Read(context.Background())
	require.True(t, ok)
	require.Equal(t, uint64(2097152), got)

	_, ok = (&NetDev{Path: path, Interface: "eth1"}).Read(context.Background())
	require.False(t, ok)

	_, ok = (&NetDev{Path: filepath.Join(t.TempDir(), "missing"), Interface: "eth0"}).Read(context.Background())
	require.False(t, ok)
}

func TestHost_Read(t *testing.T) {
	h := NewHost("/data", nil)
	h.cpuPercent = func(context.Context) ([]float64, error) { return []float64{12.5}, nil }
	h.diskUsage = func(_ context.Context, path string) (*disk.UsageStat, error) {
		require.Equal(t, "/data", path)
		return &disk.UsageStat{UsedPercent: 71.25}, nil
	}

	r := h.Read(context.Background())
	require.NotNil(t, r.CPUUtilization)
	require.NotNil(t, r.DiskUsagePercent)
	require.Equal(t, 12.5, *r.CPUUtilization)
	require.Equal(t, 71.25, *r.DiskUsagePercent)

	h.cpuPercent = func(context.Context) ([]float64, error) { return nil, errors.New("boom") }
	r = h.Read(context.Background())
	require.Nil(t, r.CPUUtilization)
	require.NotNil(t, r.DiskUsagePercent, "disk still read when cpu fails")
}

func TestExecRunner(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	r := ExecRunner{Timeout: time.Second}

	out, err := r.Run(context.Background(), "/bin/sh", "-c", "echo hello")
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(out))

	_, err = r.Run(context.Background(), "/bin/sh", "-c", "echo oops >&2; exit 3")
	require.ErrorContains(t, err, "oops")

	_, err = ExecRunner{Timeout: 50 * time.Millisecond}.Run(context.Background(), "/bin/sh", "-c", "sleep 5")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
