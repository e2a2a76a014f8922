package sensor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

// Memory читает занятую память из вывода `free -m`.
type Memory struct {
	Runner Runner
	Binary string
	Logger *zap.Logger
}

// Read возвращает занятую память в гигабайтах (мегабайты / 1024).
func (m *Memory) Read(ctx context.Context) (float64, bool) {
	log := nopIfNil(m.Logger)
	bin := m.Binary
	if bin == "" {
		bin = "free"
	}
	out, err := m.Runner.Run(ctx, bin, "-m")
	if err != nil {
		log.Warn("memory usage unavailable", zap.Error(err))
		return 0, false
	}
	usedMB, err := ParseFree(out)
	if err != nil {
		log.Warn("memory information not found", zap.Error(err))
		return 0, false
	}
	return usedMB / 1024, true
}

// ParseFree возвращает колонку used строки "Mem:" из вывода `free -m`.
func ParseFree(out []byte) (float64, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "Mem:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return 0, fmt.Errorf("short Mem line %q", line)
		}
		v, err := parseFinite(fields[2])
		if err != nil {
			return 0, fmt.Errorf("parse used %q: %w", fields[2], err)
		}
		return v, nil
	}
	return 0, fmt.Errorf("no Mem: line in output")
}

// VirtualMemory читает занятую память через gopsutil без запуска внешних утилит.
type VirtualMemory struct {
	Logger *zap.Logger
	// stat подменяется в тестах.
	stat func(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

// Read возвращает занятую память в гигабайтах.
func (v *VirtualMemory) Read(ctx context.Context) (float64, bool) {
	stat := v.stat
	if stat == nil {
		stat = mem.VirtualMemoryWithContext
	}
	vm, err := stat(ctx)
	if err != nil {
		nopIfNil(v.Logger).Warn("memory usage unavailable", zap.String("source", "gopsutil"), zap.Error(err))
		return 0, false
	}
	return float64(vm.Used) / (1024 * 1024 * 1024), true
}
