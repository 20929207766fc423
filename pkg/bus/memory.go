package bus

import (
	"maps"
	"sync"
	"sync/atomic"
)

// Memory is an in-process Bus. Post delivers synchronously on the caller's
// goroutine, in no particular order across observers.
type Memory struct {
	mu   sync.RWMutex
	subs map[string]map[uint64]Handler
	seq  atomic.Uint64
}

// NewMemory returns an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{subs: map[string]map[uint64]Handler{}}
}

// Post delivers a copy of info to every observer of name.
func (m *Memory) Post(name string, info UserInfo) error {
	// Snapshot so handlers may Observe, cancel or Post without deadlocking.
	m.mu.RLock()
	handlers := make([]Handler, 0, len(m.subs[name]))
	for _, h := range m.subs[name] {
		handlers = append(handlers, h)
	}
	m.mu.RUnlock()

	for _, h := range handlers {
		h(Message{Name: name, UserInfo: maps.Clone(info)})
	}
	return nil
}

// Observe registers fn for messages posted under name.
func (m *Memory) Observe(name string, fn Handler) (func(), error) {
	id := m.seq.Add(1)

	m.mu.Lock()
	if m.subs[name] == nil {
		m.subs[name] = map[uint64]Handler{}
	}
	m.subs[name][id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs[name], id)
			if len(m.subs[name]) == 0 {
				delete(m.subs, name)
			}
			m.mu.Unlock()
		})
	}, nil
}

// Observers reports how many handlers are registered for name.
func (m *Memory) Observers(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[name])
}
