package risk

import "sync"

// StatusTracker хранит danger-состояние метрик одной модели.
// Инцидент эмитится только при входе метрики в danger, а не пока оно длится.
type StatusTracker struct {
	mu     sync.Mutex
	danger map[string]bool
}

// NewStatusTracker создает новый трекер состояния метрик
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{danger: make(map[string]bool)}
}

// Transition регистрирует новое состояние метрики.
// Возвращает true только при переходе из не-danger в danger.
func (t *StatusTracker) Transition(metric string, inDanger bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	was := t.danger[metric]
	t.danger[metric] = inDanger
	return inDanger && !was
}
