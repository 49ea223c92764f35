package observability

import "sync"

// Metrics provides basic in-memory counters for bot activity.
type Metrics struct {
	mu           sync.Mutex
	updateCount  int64
	commandCount map[string]int64
	errorCount   map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		commandCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordUpdate counts one processed Telegram update.
func (m *Metrics) RecordUpdate() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCount++
}

// RecordCommand increments the counter for a bot command.
func (m *Metrics) RecordCommand(command string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commandCount[command]++
}

// RecordError increments error counters keyed by command and error code.
func (m *Metrics) RecordError(command, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[command+"|"+code]++
}

// Snapshot returns a copy of all counters for the ops endpoint.
func (m *Metrics) Snapshot() map[string]any {
	if m == nil {
		return map[string]any{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	commands := make(map[string]int64, len(m.commandCount))
	for k, v := range m.commandCount {
		commands[k] = v
	}
	errs := make(map[string]int64, len(m.errorCount))
	for k, v := range m.errorCount {
		errs[k] = v
	}
	return map[string]any{
		"updates":  m.updateCount,
		"commands": commands,
		"errors":   errs,
	}
}
