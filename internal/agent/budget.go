package agent

// DefaultFailureBudget число неудачных отправок, после которого цикл останавливается.
const DefaultFailureBudget = 5

// FailureBudget накопительный счётчик неудачных отправок.
//
// Счётчик только растёт: успешная отправка его не сбрасывает.
type FailureBudget struct {
	limit    int
	failures int
}

// NewFailureBudget создаёт счётчик с порогом limit. Неположительный limit заменяется DefaultFailureBudget.
func NewFailureBudget(limit int) *FailureBudget {
	if limit <= 0 {
		limit = DefaultFailureBudget
	}
	return &FailureBudget{limit: limit}
}

// Fail учитывает неудачу и возвращает текущее число неудач.
func (b *FailureBudget) Fail() int {
	b.failures++
	return b.failures
}

// Failures возвращает число учтённых неудач.
func (b *FailureBudget) Failures() int { return b.failures }

// Limit возвращает порог.
func (b *FailureBudget) Limit() int { return b.limit }

// Exhausted сообщает, достигнут ли порог.
func (b *FailureBudget) Exhausted() bool { return b.failures >= b.limit }
