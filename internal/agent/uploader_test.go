package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/RoGogDBD/sysmon-uploader/internal/gateway"
	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"github.com/RoGogDBD/sysmon-uploader/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// fakeClock ручные часы: sleep сдвигает время вместо ожидания.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
	// cancelAfter отменяет контекст на указанном по счёту sleep (0 не отменяет).
	cancelAfter int
	cancel      context.CancelFunc
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	if c.cancelAfter > 0 && len(c.sleeps) >= c.cancelAfter {
		c.cancel()
	}
	return ctx.Err()
}

type fakeFloat struct {
	v  float64
	ok bool
}

func (f fakeFloat) Read(context.Context) (float64, bool) { return f.v, f.ok }

type fakeGPU struct{}

func (fakeGPU) Read(context.Context) (sensor.GPUReading, bool) { return sensor.GPUReading{}, false }

type fakeCounter struct {
	vals []uint64
	n    int
}

func (c *fakeCounter) Read(context.Context) (uint64, bool) {
	if c.n >= len(c.vals) {
		return 0, false
	}
	v := c.vals[c.n]
	c.n++
	return v, true
}

// scriptedSubmitter возвращает заранее заданные исходы и копирует принятые батчи.
type scriptedSubmitter struct {
	outcomes []error
	batches  [][]models.Sample
	onSubmit func()
}

var errBackend = errors.New("backend unavailable")

func (s *scriptedSubmitter) SubmitBatch(_ context.Context, token string, samples []models.Sample) error {
	s.batches = append(s.batches, append([]models.Sample(nil), samples...))
	if s.onSubmit != nil {
		s.onSubmit()
	}
	i := len(s.batches) - 1
	if i < len(s.outcomes) {
		return s.outcomes[i]
	}
	return nil
}

func newTestUploader(cfg UploaderConfig, src Sources, sub Submitter, clock *fakeClock) *Uploader {
	u := NewUploader(cfg, src, sub, nil)
	u.now = clock.Now
	u.sleep = clock.Sleep
	return u
}

func TestUploader_FailureBudgetIsCumulative(t *testing.T) {
	clock := &fakeClock{now: t0}
	sub := &scriptedSubmitter{outcomes: []error{errBackend, errBackend, nil, errBackend, errBackend, errBackend, nil}}
	u := newTestUploader(UploaderConfig{Machine: "rig-01", Interval: 5 * time.Second, FailureBudget: 5},
		Sources{CPUTemp: fakeFloat{v: 40, ok: true}}, sub, clock)

	err := u.Run(context.Background())

	require.ErrorIs(t, err, ErrBudgetExhausted)
	require.Equal(t, StateTerminated, u.State())
	require.Len(t, sub.batches, 6, "terminates at the 5th failure, the success does not reset the count")
	require.Equal(t, 5, u.Failures())
	require.Len(t, clock.sleeps, 5, "no sleep after the terminal tick")
}

func TestUploader_TickStates(t *testing.T) {
	clock := &fakeClock{now: t0}
	sub := &scriptedSubmitter{outcomes: []error{errBackend, errBackend, nil, errBackend, errBackend, errBackend}}
	u := newTestUploader(UploaderConfig{Machine: "rig-01", Interval: time.Second, FailureBudget: 5},
		Sources{CPUTemp: fakeFloat{v: 40, ok: true}}, sub, clock)

	wantFailures := []int{1, 2, 2, 3, 4, 5}
	for i, want := range wantFailures {
		_ = u.Tick(context.Background())
		require.Equal(t, want, u.Failures(), "tick %d", i+1)
		require.Equal(t, i == len(wantFailures)-1, u.budget.Exhausted(), "tick %d", i+1)
	}
}

func TestUploader_OperatorStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &fakeClock{now: t0, cancelAfter: 3, cancel: cancel}
	sub := &scriptedSubmitter{}
	u := newTestUploader(UploaderConfig{Machine: "rig-01", Interval: 5 * time.Second, FailureBudget: 5},
		Sources{CPUTemp: fakeFloat{v: 40, ok: true}}, sub, clock)

	err := u.Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StateTerminated, u.State())
	require.Len(t, sub.batches, 3)
	require.Zero(t, u.Failures())
}

func TestUploader_CancelDuringSubmitIsNotAFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &fakeClock{now: t0}
	sub := &scriptedSubmitter{outcomes: []error{context.Canceled}, onSubmit: cancel}
	u := newTestUploader(UploaderConfig{Machine: "rig-01", Interval: time.Second, FailureBudget: 1},
		Sources{CPUTemp: fakeFloat{v: 40, ok: true}}, sub, clock)

	err := u.Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, u.Failures())
}

func TestUploader_Schedules(t *testing.T) {
	tests := []struct {
		name     string
		schedule Schedule
		work     time.Duration
		want     []time.Duration
	}{
		{name: "fixed delay sleeps full interval", schedule: FixedDelay, work: 2 * time.Second,
			want: []time.Duration{5 * time.Second, 5 * time.Second, 5 * time.Second}},
		{name: "fixed rate subtracts work", schedule: FixedRate, work: 2 * time.Second,
			want: []time.Duration{3 * time.Second, 3 * time.Second, 3 * time.Second}},
		{name: "fixed rate overrun does not sleep", schedule: FixedRate, work: 7 * time.Second,
			want: []time.Duration{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			clock := &fakeClock{now: t0, cancelAfter: 3, cancel: cancel}
			sub := &scriptedSubmitter{onSubmit: func() { clock.now = clock.now.Add(tt.work) }}
			u := newTestUploader(UploaderConfig{Machine: "rig-01", Interval: 5 * time.Second, FailureBudget: 5, Schedule: tt.schedule},
				Sources{CPUTemp: fakeFloat{v: 40, ok: true}}, sub, clock)

			require.ErrorIs(t, u.Run(ctx), context.Canceled)
			require.Equal(t, tt.want, clock.sleeps)
		})
	}
}

func TestUploader_RateUsesCounterCaptureInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &fakeClock{now: t0, cancelAfter: 2, cancel: cancel}
	counter := &fakeCounter{vals: []uint64{0, 0, 10 * 1048576}}
	sub := &scriptedSubmitter{}
	u := newTestUploader(UploaderConfig{Machine: "rig-01", Interval: 5 * time.Second, FailureBudget: 5},
		Sources{Counter: counter}, sub, clock)

	require.ErrorIs(t, u.Run(ctx), context.Canceled)
	require.Len(t, sub.batches, 2)

	// первый тик: счётчик снят в тот же момент, что и начальный, интервал 0
	require.Empty(t, sub.batches[0])
	require.Equal(t, []models.Sample{{
		Key: models.NetworkTransmitSpeed, Machine: "rig-01", Value: 2.0, Timestamp: "2024-05-01T10:00:05Z",
	}}, sub.batches[1])
}

func TestUploader_CounterAdvancesOnFailedSubmit(t *testing.T) {
	clock := &fakeClock{now: t0.Add(5 * time.Second)}
	sub := &scriptedSubmitter{outcomes: []error{errBackend, nil}}
	counter := &fakeCounter{vals: []uint64{5 * 1048576, 15 * 1048576}}
	u := newTestUploader(UploaderConfig{Machine: "rig-01", Interval: 5 * time.Second, FailureBudget: 5},
		Sources{Counter: counter}, sub, clock)
	u.counter = CounterState{Bytes: 0, At: t0, Valid: true}

	require.Error(t, u.Tick(context.Background()))
	require.Equal(t, 1, u.Failures())
	clock.now = clock.now.Add(5 * time.Second)
	require.NoError(t, u.Tick(context.Background()))

	require.Len(t, sub.batches, 2)
	require.Equal(t, []models.Sample{{
		Key: models.NetworkTransmitSpeed, Machine: "rig-01", Value: 1.0, Timestamp: "2024-05-01T10:00:05Z",
	}}, sub.batches[0])
	// скорость считается от снятия первого тика (10 МиБ за 5 с), а не от начального (15 МиБ за 10 с)
	require.Equal(t, []models.Sample{{
		Key: models.NetworkTransmitSpeed, Machine: "rig-01", Value: 2.0, Timestamp: "2024-05-01T10:00:10Z",
	}}, sub.batches[1])
}

type runnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func (f runnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

func TestUploader_NonFiniteGPUOutputKeepsBatchSendable(t *testing.T) {
	hits := 0
	var received []models.Sample
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client, err := gateway.New(gateway.Options{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second})
	require.NoError(t, err)

	gpu := &sensor.GPU{Binary: "nvidia-smi", Runner: runnerFunc(func(context.Context, string, ...string) ([]byte, error) {
		return []byte("45, 10, 1000, 5000, 800, 900, nan, 512\n"), nil
	})}
	clock := &fakeClock{now: t0}
	u := newTestUploader(UploaderConfig{Machine: "rig-01", Token: "tok", Interval: time.Second, FailureBudget: 5},
		Sources{CPUTemp: fakeFloat{v: 40, ok: true}, GPU: gpu}, client, clock)

	require.NoError(t, u.Tick(context.Background()))
	require.Zero(t, u.Failures())
	require.Equal(t, 1, hits)
	require.Equal(t, []models.Sample{
		{Key: models.CPUTemperature, Machine: "rig-01", Value: 40.0, Timestamp: "2024-05-01T10:00:00Z"},
	}, received)
}

func TestUploader_MissingSysfsKeepsOtherReaders(t *testing.T) {
	clock := &fakeClock{now: t0}
	sub := &scriptedSubmitter{}
	u := newTestUploader(UploaderConfig{Machine: "rig-01", Interval: time.Second, FailureBudget: 5},
		Sources{
			CPUTemp: &sensor.CPUTemp{Path: filepath.Join(t.TempDir(), "temp1_input")},
			Memory:  fakeFloat{v: 3.5, ok: true},
			GPU:     fakeGPU{},
		}, sub, clock)

	require.NoError(t, u.Tick(context.Background()))
	require.Equal(t, []models.Sample{{
		Key: models.SysMemoryUsage, Machine: "rig-01", Value: 3.5, Timestamp: "2024-05-01T10:00:00Z",
	}}, sub.batches[0])
}

func TestUploader_EndToEnd(t *testing.T) {
	var received []models.Sample
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/data/bulk", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"Data uploaded successfully.","count":2}`))
	}))
	defer srv.Close()

	client, err := gateway.New(gateway.Options{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second})
	require.NoError(t, err)

	clock := &fakeClock{now: t0.Add(time.Second)}
	u := newTestUploader(UploaderConfig{Machine: "rig-01", Token: "tok", Interval: time.Second, FailureBudget: 5},
		Sources{
			CPUTemp: fakeFloat{v: 55.2, ok: true},
			Counter: &fakeCounter{vals: []uint64{2097152}},
		}, client, clock)
	u.counter = CounterState{Bytes: 1048576, At: t0, Valid: true}

	require.NoError(t, u.Tick(context.Background()))
	require.Zero(t, u.Failures())
	require.Equal(t, StateRunning, u.State())
	require.Equal(t, []models.Sample{
		{Key: models.CPUTemperature, Machine: "rig-01", Value: 55.2, Timestamp: "2024-05-01T10:00:01Z"},
		{Key: models.NetworkTransmitSpeed, Machine: "rig-01", Value: 1.0, Timestamp: "2024-05-01T10:00:01Z"},
	}, received)
}

func TestParseSchedule(t *testing.T) {
	s, err := ParseSchedule("rate")
	require.NoError(t, err)
	require.Equal(t, FixedRate, s)

	s, err = ParseSchedule("")
	require.NoError(t, err)
	require.Equal(t, FixedDelay, s)

	_, err = ParseSchedule("cron")
	require.Error(t, err)
}

func TestState_String(t *testing.T) {
	require.Equal(t, "running", StateRunning.String())
	require.Equal(t, "terminated", StateTerminated.String())
}
