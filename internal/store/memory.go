package store

import "sync"

// MemorySlot is a concurrency-safe in-memory slot, used in tests and as a
// cache backend for throwaway sessions.
type MemorySlot struct {
	mu   sync.RWMutex
	data []byte
	ok   bool
}

var _ Slot = (*MemorySlot)(nil)

// NewMemorySlot creates an empty in-memory slot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (s *MemorySlot) Write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	s.ok = true
	return nil
}

func (s *MemorySlot) Read() ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ok {
		return nil, false, nil
	}
	return append([]byte(nil), s.data...), true, nil
}
