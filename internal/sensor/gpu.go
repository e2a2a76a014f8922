package sensor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// gpuQueryFields поля запроса nvidia-smi в порядке разбора.
const gpuQueryFields = "temperature.gpu,utilization.gpu,clocks.current.sm,clocks.current.memory," +
	"clocks.current.video,clocks.current.graphics,power.draw,memory.used"

const gpuFieldCount = 8

var errNotFinite = errors.New("value is not a finite number")

// GPUReading одно согласованное измерение видеокарты.
type GPUReading struct {
	Temperature   float64
	Utilization   float64
	SMClock       float64
	MemoryClock   float64
	VideoClock    float64
	GraphicsClock float64
	PowerDraw     float64
	MemoryUsed    float64
}

// MaxVideoGraphicClock возвращает наибольшую из частот video и graphics.
func (g GPUReading) MaxVideoGraphicClock() float64 {
	return math.Max(g.VideoClock, g.GraphicsClock)
}

// GPU опрашивает видеокарту через nvidia-smi.
type GPU struct {
	Runner Runner
	Binary string
	Logger *zap.Logger
}

// Read запускает утилиту и разбирает вывод. Измерение атомарно: при любой ошибке
// недоступна вся группа метрик.
func (g *GPU) Read(ctx context.Context) (GPUReading, bool) {
	log := nopIfNil(g.Logger)
	out, err := g.Runner.Run(ctx, g.Binary,
		"--query-gpu="+gpuQueryFields,
		"--format=csv,noheader,nounits",
	)
	if err != nil {
		log.Warn("gpu metrics unavailable", zap.String("tool", g.Binary), zap.Error(err))
		return GPUReading{}, false
	}
	r, err := ParseGPU(out)
	if err != nil {
		log.Warn("unexpected gpu metrics format", zap.String("tool", g.Binary), zap.Error(err))
		return GPUReading{}, false
	}
	return r, true
}

// ParseGPU разбирает первую непустую строку вывода nvidia-smi в формате csv,noheader,nounits.
//
// Требуется не меньше восьми полей; лишние поля игнорируются.
func ParseGPU(out []byte) (GPUReading, error) {
	line := firstNonEmptyLine(out)
	if line == "" {
		return GPUReading{}, fmt.Errorf("empty output")
	}
	parts := strings.Split(line, ",")
	if len(parts) < gpuFieldCount {
		return GPUReading{}, fmt.Errorf("expected %d fields, got %d", gpuFieldCount, len(parts))
	}

	var vals [gpuFieldCount]float64
	for i := range vals {
		s := strings.TrimSpace(parts[i])
		v, err := parseFinite(s)
		if err != nil {
			return GPUReading{}, fmt.Errorf("field %d %q: %w", i, s, err)
		}
		vals[i] = v
	}
	return GPUReading{
		Temperature:   vals[0],
		Utilization:   vals[1],
		SMClock:       vals[2],
		MemoryClock:   vals[3],
		VideoClock:    vals[4],
		GraphicsClock: vals[5],
		PowerDraw:     vals[6],
		MemoryUsed:    vals[7],
	}, nil
}

// parseFinite разбирает число, отвергая NaN и бесконечности: они не сериализуются в JSON.
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}

func firstNonEmptyLine(out []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line
		}
	}
	return ""
}
