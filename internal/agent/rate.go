package agent

import "time"

const bytesPerMB = 1024 * 1024

// TransmitRate вычисляет скорость в мегабайтах в секунду по двум показаниям
// накопительного счётчика байт: (curr - prev) / (seconds * 1024²).
//
// При seconds <= 0 скорость недоступна. Отрицательный результат (сброс счётчика,
// перезапуск интерфейса) возвращается как есть.
func TransmitRate(prev, curr uint64, seconds float64) (float64, bool) {
	if seconds <= 0 {
		return 0, false
	}
	return (float64(curr) - float64(prev)) / (seconds * bytesPerMB), true
}

// CounterState последнее показание сетевого счётчика и время его снятия.
type CounterState struct {
	Bytes uint64
	At    time.Time
	Valid bool
}

// Advance сохраняет новое показание и возвращает скорость относительно предыдущего.
//
// Скорость доступна, только если и предыдущее, и текущее показания получены.
// Состояние обновляется при любом исходе.
func (s *CounterState) Advance(bytes uint64, ok bool, at time.Time) (float64, bool) {
	var (
		rate      float64
		available bool
	)
	if ok && s.Valid {
		rate, available = TransmitRate(s.Bytes, bytes, at.Sub(s.At).Seconds())
	}
	*s = CounterState{Bytes: bytes, At: at, Valid: ok}
	return rate, available
}
