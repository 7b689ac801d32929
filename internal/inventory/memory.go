package inventory

import (
	"sync"
	"time"
)

// MemoryLedger is a mutex-guarded in-memory counterpart of Store used in
// tests. It enforces the same non-negative invariant as the SQL ledger.
type MemoryLedger struct {
	mu   sync.Mutex
	rows map[Key]*Record
}

// NewMemoryLedger builds an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{rows: map[Key]*Record{}}
}

// Seed sets the quantity for a key, creating the row when absent.
func (m *MemoryLedger) Seed(key Key, name string, qty int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[key] = &Record{Key: key, ProductName: name, Quantity: qty, LastUpdated: time.Now()}
}

// Reserve mirrors Store.Reserve: all-or-nothing per key.
func (m *MemoryLedger) Reserve(key Key, qty int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[key]
	if !ok || rec.Quantity < qty {
		return ErrInsufficient
	}
	rec.Quantity -= qty
	rec.LastUpdated = time.Now()
	return nil
}

// Release returns previously reserved stock, used to undo a partial batch.
func (m *MemoryLedger) Release(key Key, qty int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.rows[key]; ok {
		rec.Quantity += qty
		rec.LastUpdated = time.Now()
	}
}

// Quantity reports the current count, zero for unknown keys.
func (m *MemoryLedger) Quantity(key Key) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.rows[key]; ok {
		return rec.Quantity
	}
	return 0
}
