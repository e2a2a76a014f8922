package sensor

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// CPUTemp читает температуру процессора из sysfs (миллиградусы Цельсия).
type CPUTemp struct {
	Path   string
	Logger *zap.Logger
}

// Read возвращает температуру в градусах Цельсия.
func (c *CPUTemp) Read(_ context.Context) (float64, bool) {
	v, err := readMilliCelsius(c.Path)
	if err != nil {
		nopIfNil(c.Logger).Warn("cpu temperature unavailable", zap.String("path", c.Path), zap.Error(err))
		return 0, false
	}
	return v, true
}

func readMilliCelsius(path string) (float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read sysfs temp: %w", err)
	}
	s := strings.TrimSpace(string(b))
	raw, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse sysfs temp %q: %w", s, err)
	}
	return float64(raw) / 1000.0, nil
}
