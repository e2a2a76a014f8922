// Команда agent периодически снимает показания датчиков хоста и отправляет их на бэкенд.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoGogDBD/sysmon-uploader/internal/agent"
	"github.com/RoGogDBD/sysmon-uploader/internal/config"
	"github.com/RoGogDBD/sysmon-uploader/internal/gateway"
	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"github.com/RoGogDBD/sysmon-uploader/internal/sensor"
	"github.com/RoGogDBD/sysmon-uploader/internal/version"
	"go.uber.org/zap"
)

// Коды завершения процесса.
const (
	exitOK      = 0
	exitFailure = 1
	exitConfig  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	cfg, err := config.LoadAgentConfig(args)
	if err != nil {
		fmt.Fprintf(stderr, "agent: %v\n", err)
		return exitConfig
	}

	logger, err := config.Initialize(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "agent: %v\n", err)
		return exitConfig
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting agent", version.Fields()...)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return exitConfig
	}
	schedule, err := agent.ParseSchedule(cfg.Schedule)
	if err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return exitConfig
	}

	if cfg.StartDelay > 0 {
		logger.Info("waiting before start", zap.Duration("delay", cfg.StartDelay))
		if err := waitContext(ctx, cfg.StartDelay); err != nil {
			return exitOK
		}
	}

	client, err := gateway.New(gateway.Options{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.RequestTimeout,
		CAFile:  cfg.CAFile,
		Key:     cfg.Key,
		Gzip:    cfg.Gzip,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to create backend client", zap.Error(err))
		return exitConfig
	}

	token, err := client.Login(ctx, models.Credentials{Username: cfg.Username, Password: cfg.Password})
	if err != nil {
		if ctx.Err() != nil {
			return exitOK
		}
		logger.Error("login failed", zap.String("backend", client.BaseURL()), zap.Error(err))
		return exitFailure
	}

	uploader := agent.NewUploader(agent.UploaderConfig{
		Machine:       cfg.DeviceID,
		Token:         token,
		Interval:      cfg.Interval,
		FailureBudget: cfg.FailureBudget,
		Schedule:      schedule,
	}, newSources(cfg, logger), client, logger)

	return exitCode(uploader.Run(ctx))
}

// exitCode отображает причину остановки цикла в код завершения.
func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return exitOK
	default:
		return exitFailure
	}
}

// newSources собирает читатели датчиков по конфигурации.
func newSources(cfg *config.AgentConfig, logger *zap.Logger) agent.Sources {
	runner := sensor.ExecRunner{Timeout: cfg.CommandTimeout}

	src := agent.Sources{
		CPUTemp: &sensor.CPUTemp{Path: cfg.CPUTempPath, Logger: logger},
		GPU:     &sensor.GPU{Runner: runner, Binary: cfg.GPUTool, Logger: logger},
		Counter: &sensor.NetDev{Interface: cfg.Interface, Logger: logger},
	}
	if cfg.MemSource == config.MemSourceGopsutil {
		src.Memory = &sensor.VirtualMemory{Logger: logger}
	} else {
		src.Memory = &sensor.Memory{Runner: runner, Logger: logger}
	}
	if cfg.HostMetrics {
		src.Host = sensor.NewHost("/", logger)
	}
	return src
}

func waitContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
