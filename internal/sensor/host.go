package sensor

import (
	"context"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"
)

// HostReading дополнительные метрики хоста. Отсутствующие значения равны nil.
type HostReading struct {
	CPUUtilization   *float64
	DiskUsagePercent *float64
}

// Host собирает загрузку процессора и заполненность диска через gopsutil.
type Host struct {
	// DiskPath точка монтирования, по умолчанию "/".
	DiskPath string
	Logger   *zap.Logger

	cpuPercent func(ctx context.Context) ([]float64, error)
	diskUsage  func(ctx context.Context, path string) (*disk.UsageStat, error)
}

// NewHost создаёт читатель метрик хоста.
func NewHost(diskPath string, logger *zap.Logger) *Host {
	return &Host{DiskPath: diskPath, Logger: logger}
}

// Read опрашивает оба источника независимо: ошибка одного не мешает другому.
func (h *Host) Read(ctx context.Context) HostReading {
	log := nopIfNil(h.Logger)
	var r HostReading

	cpuPercent := h.cpuPercent
	if cpuPercent == nil {
		cpuPercent = func(ctx context.Context) ([]float64, error) {
			return cpu.PercentWithContext(ctx, 0, false)
		}
	}
	if p, err := cpuPercent(ctx); err != nil {
		log.Warn("cpu utilization unavailable", zap.Error(err))
	} else if len(p) > 0 {
		v := p[0]
		r.CPUUtilization = &v
	}

	diskUsage := h.diskUsage
	if diskUsage == nil {
		diskUsage = disk.UsageWithContext
	}
	path := h.DiskPath
	if path == "" {
		path = "/"
	}
	if u, err := diskUsage(ctx, path); err != nil {
		log.Warn("disk usage unavailable", zap.String("path", path), zap.Error(err))
	} else {
		v := u.UsedPercent
		r.DiskUsagePercent = &v
	}
	return r
}
