package agent

import (
	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"github.com/RoGogDBD/sysmon-uploader/internal/sensor"
)

// Batch метрики одного тика в порядке добавления.
//
// Ключи уникальны: повторный Add с тем же ключом заменяет значение на месте,
// сохраняя позицию первого добавления.
type Batch struct {
	Timestamp string
	Machine   string
	Samples   []models.Sample
	index     map[string]int
}

// NewBatch создаёт пустой батч с запасом ёмкости под полный набор метрик.
func NewBatch() *Batch {
	return &Batch{
		Samples: make([]models.Sample, 0, 16),
		index:   make(map[string]int, 16),
	}
}

// Reset очищает батч, сохраняя выделенную память.
func (b *Batch) Reset() {
	if b == nil {
		return
	}
	b.Timestamp = ""
	b.Machine = ""
	clear(b.Samples)
	b.Samples = b.Samples[:0]
	clear(b.index)
}

// Add добавляет значение метрики key с меткой времени и устройством батча.
func (b *Batch) Add(key string, value any) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	s := models.Sample{Key: key, Machine: b.Machine, Value: value, Timestamp: b.Timestamp}
	if i, ok := b.index[key]; ok {
		b.Samples[i] = s
		return
	}
	b.index[key] = len(b.Samples)
	b.Samples = append(b.Samples, s)
}

// Len возвращает число метрик в батче.
func (b *Batch) Len() int { return len(b.Samples) }

// Readings результаты читателей за один тик. nil означает, что значение недоступно.
type Readings struct {
	CPUTemp *float64
	Memory  *float64
	GPU     *sensor.GPUReading
	Host    sensor.HostReading
	NetRate *float64
}

// Assemble заполняет батч доступными показаниями в порядке опроса читателей:
// температура процессора, память, видеокарта, метрики хоста, сетевая скорость.
// Недоступные показания пропускаются.
func Assemble(b *Batch, r Readings) {
	if r.CPUTemp != nil {
		b.Add(models.CPUTemperature, *r.CPUTemp)
	}
	if r.Memory != nil {
		b.Add(models.SysMemoryUsage, *r.Memory)
	}
	if g := r.GPU; g != nil {
		b.Add(models.GPUTemperature, g.Temperature)
		b.Add(models.GPUUtilization, g.Utilization)
		b.Add(models.SMClock, g.SMClock)
		b.Add(models.MemoryClock, g.MemoryClock)
		b.Add(models.MaxVideoGraphicClock, g.MaxVideoGraphicClock())
		b.Add(models.PowerDraw, g.PowerDraw)
		b.Add(models.GPUMemoryUsage, g.MemoryUsed)
	}
	if r.Host.CPUUtilization != nil {
		b.Add(models.CPUUtilization, *r.Host.CPUUtilization)
	}
	if r.Host.DiskUsagePercent != nil {
		b.Add(models.DiskUsagePercent, *r.Host.DiskUsagePercent)
	}
	if r.NetRate != nil {
		b.Add(models.NetworkTransmitSpeed, *r.NetRate)
	}
}
