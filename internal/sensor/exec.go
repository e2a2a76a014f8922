// Package sensor содержит читатели локальных источников метрик: sysfs, procfs,
// внешние утилиты (nvidia-smi, free) и gopsutil.
//
// Каждый читатель возвращает пару (значение, ok). Ошибки не выходят за пределы
// читателя: они логируются на уровне Warn и превращаются в ok == false.
package sensor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Runner запускает внешнюю команду и возвращает её стандартный вывод.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner запускает команды через os/exec, ограничивая каждый запуск Timeout.
type ExecRunner struct {
	Timeout time.Duration
}

// Run выполняет команду. Ненулевой код выхода возвращается как ошибка с текстом stderr.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// дочерние процессы могут удерживать pipe после отмены
	cmd.WaitDelay = time.Second
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", name, ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

func nopIfNil(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
