package models

import "time"

// TimestampLayout задаёт формат меток времени, принимаемый бэкендом: UTC с точностью до секунды.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Имена метрик, которые агент отправляет на сервер.
const (
	CPUTemperature       = "CPU_Temperature"
	SysMemoryUsage       = "SYS_Memory_Usage"
	GPUTemperature       = "GPU_Temperature"
	GPUUtilization       = "GPU_Utilization"
	SMClock              = "SM_Clock"
	MemoryClock          = "Memory_Clock"
	MaxVideoGraphicClock = "MAX_Video_Graphic_Clock"
	PowerDraw            = "Power_Draw"
	GPUMemoryUsage       = "GPU_Memory_Usage"
	NetworkTransmitSpeed = "Network_Transmit_Speed_MBps"
	CPUUtilization       = "CPU_Utilization"
	DiskUsagePercent     = "Disk_Usage_Percent"
)

// Sample представляет одно значение метрики устройства в момент времени.
//
// Value может быть числом (float64) или строкой: тип определяется ключом на стороне бэкенда.
// Все Sample одного батча разделяют общую метку времени.
type Sample struct {
	Key       string `json:"key"`
	Machine   string `json:"machine"`
	Value     any    `json:"value"`
	Timestamp string `json:"timestamp,omitempty"`
}

// FormatTimestamp форматирует время в UTC по TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp разбирает метку времени. Помимо TimestampLayout принимается RFC3339 с долями секунды.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
