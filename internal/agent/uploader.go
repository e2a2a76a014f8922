package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"github.com/RoGogDBD/sysmon-uploader/internal/sensor"
	"github.com/RoGogDBD/sysmon-uploader/pkg/pool"
	"go.uber.org/zap"
)

// ErrBudgetExhausted возвращается Run, когда число неудачных отправок достигло порога.
var ErrBudgetExhausted = errors.New("failure budget exhausted")

// State состояние цикла отправки.
type State int

const (
	StateRunning State = iota
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Schedule политика планирования тиков.
type Schedule int

const (
	// FixedDelay спит полный интервал после работы тика: период равен интервалу плюс время работы.
	FixedDelay Schedule = iota
	// FixedRate планирует n-й тик на start + n*interval.
	FixedRate
)

// ParseSchedule преобразует значение конфигурации ("delay" или "rate").
func ParseSchedule(s string) (Schedule, error) {
	switch s {
	case "", "delay":
		return FixedDelay, nil
	case "rate":
		return FixedRate, nil
	default:
		return FixedDelay, fmt.Errorf("unknown schedule %q", s)
	}
}

// FloatReader читатель одного числового показания.
type FloatReader interface {
	Read(ctx context.Context) (float64, bool)
}

// GPUReader читатель метрик видеокарты.
type GPUReader interface {
	Read(ctx context.Context) (sensor.GPUReading, bool)
}

// HostReader читатель дополнительных метрик хоста.
type HostReader interface {
	Read(ctx context.Context) sensor.HostReading
}

// CounterReader читатель накопительного счётчика байт сетевого интерфейса.
type CounterReader interface {
	Read(ctx context.Context) (uint64, bool)
}

// Sources набор читателей. Поле nil означает, что источник отключён.
type Sources struct {
	CPUTemp FloatReader
	Memory  FloatReader
	GPU     GPUReader
	Host    HostReader
	Counter CounterReader
}

// Submitter отправляет батч на сервер.
type Submitter interface {
	SubmitBatch(ctx context.Context, token string, samples []models.Sample) error
}

// UploaderConfig параметры цикла отправки.
type UploaderConfig struct {
	Machine       string
	Token         string
	Interval      time.Duration
	FailureBudget int
	Schedule      Schedule
}

// Uploader цикл сбора и отправки метрик.
//
// Все поля принадлежат горутине, вызвавшей Run; блокировки не нужны.
type Uploader struct {
	cfg       UploaderConfig
	sources   Sources
	submitter Submitter
	logger    *zap.Logger

	budget  *FailureBudget
	counter CounterState
	state   State
	batches *pool.Pool[*Batch]

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewUploader создаёт цикл отправки.
func NewUploader(cfg UploaderConfig, sources Sources, submitter Submitter, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{
		cfg:       cfg,
		sources:   sources,
		submitter: submitter,
		logger:    logger,
		budget:    NewFailureBudget(cfg.FailureBudget),
		state:     StateRunning,
		batches:   pool.New(NewBatch),
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// State возвращает текущее состояние цикла.
func (u *Uploader) State() State { return u.state }

// Failures возвращает число учтённых неудачных отправок.
func (u *Uploader) Failures() int { return u.budget.Failures() }

// Run снимает начальное показание счётчика и выполняет тики до исчерпания порога
// неудач или отмены ctx.
//
// Возвращает ErrBudgetExhausted или ошибку контекста. Процесс не завершает.
func (u *Uploader) Run(ctx context.Context) error {
	u.prime(ctx)
	u.logger.Info("upload loop started",
		zap.String("machine", u.cfg.Machine),
		zap.Duration("interval", u.cfg.Interval),
		zap.Int("failure_budget", u.budget.Limit()),
	)

	start := u.now()
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return u.stop(err)
		}

		if err := u.Tick(ctx); err != nil && ctx.Err() != nil {
			return u.stop(ctx.Err())
		}

		if u.budget.Exhausted() {
			u.logger.Error("failed to upload metrics too many times, stopping",
				zap.Int("failures", u.budget.Failures()),
			)
			return u.stop(ErrBudgetExhausted)
		}

		if err := u.sleep(ctx, u.nextWait(start, n)); err != nil {
			return u.stop(err)
		}
	}
}

func (u *Uploader) stop(err error) error {
	u.state = StateTerminated
	if errors.Is(err, context.Canceled) {
		u.logger.Info("upload loop stopped")
	}
	return err
}

func (u *Uploader) nextWait(start time.Time, n int) time.Duration {
	if u.cfg.Schedule != FixedRate {
		return u.cfg.Interval
	}
	wait := start.Add(time.Duration(n) * u.cfg.Interval).Sub(u.now())
	if wait < 0 {
		return 0
	}
	return wait
}

func (u *Uploader) prime(ctx context.Context) {
	if u.sources.Counter == nil {
		return
	}
	bytes, ok := u.sources.Counter.Read(ctx)
	u.counter = CounterState{Bytes: bytes, At: u.now(), Valid: ok}
}

// Tick выполняет один цикл: опрос читателей, вычисление скорости, сборку и отправку батча.
//
// Неудачная отправка учитывается в счётчике неудач и возвращается. Если отправка
// прервана отменой ctx, она не считается неудачей.
func (u *Uploader) Tick(ctx context.Context) error {
	ts := models.FormatTimestamp(u.now())

	r := u.read(ctx)

	batch := u.batches.Get()
	defer u.batches.Put(batch)
	batch.Timestamp = ts
	batch.Machine = u.cfg.Machine
	Assemble(batch, r)

	if batch.Len() == 0 {
		u.logger.Warn("no metrics available for this tick", zap.String("timestamp", ts))
	}

	err := u.submitter.SubmitBatch(ctx, u.cfg.Token, batch.Samples)
	if err == nil {
		u.logger.Debug("metrics uploaded", zap.String("timestamp", ts), zap.Int("samples", batch.Len()))
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	failures := u.budget.Fail()
	u.logger.Warn("failed to upload metrics",
		zap.String("timestamp", ts),
		zap.Int("failures", failures),
		zap.Int("failure_budget", u.budget.Limit()),
		zap.Error(err),
	)
	return err
}

func (u *Uploader) read(ctx context.Context) Readings {
	var r Readings
	if u.sources.CPUTemp != nil {
		if v, ok := u.sources.CPUTemp.Read(ctx); ok {
			r.CPUTemp = &v
		}
	}
	if u.sources.Memory != nil {
		if v, ok := u.sources.Memory.Read(ctx); ok {
			r.Memory = &v
		}
	}
	if u.sources.GPU != nil {
		if g, ok := u.sources.GPU.Read(ctx); ok {
			r.GPU = &g
		}
	}
	if u.sources.Host != nil {
		r.Host = u.sources.Host.Read(ctx)
	}
	if u.sources.Counter != nil {
		bytes, ok := u.sources.Counter.Read(ctx)
		if rate, available := u.counter.Advance(bytes, ok, u.now()); available {
			r.NetRate = &rate
		}
	}
	return r
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
