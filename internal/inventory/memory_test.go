package inventory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func key(n string) Key {
	return Key{StoreID: "s-" + n, ProductID: "p-" + n, CategoryID: "c-" + n}
}

func TestMemoryLedgerReserve(t *testing.T) {
	led := NewMemoryLedger()
	led.Seed(key("a"), "Widget", 5)

	require.NoError(t, led.Reserve(key("a"), 3))
	require.EqualValues(t, 2, led.Quantity(key("a")))

	err := led.Reserve(key("a"), 3)
	require.ErrorIs(t, err, ErrInsufficient)
	require.EqualValues(t, 2, led.Quantity(key("a")), "failed reserve must not change stock")
}

func TestMemoryLedgerReserveUnknownKey(t *testing.T) {
	led := NewMemoryLedger()
	require.ErrorIs(t, led.Reserve(key("missing"), 1), ErrInsufficient)
}

func TestMemoryLedgerRelease(t *testing.T) {
	led := NewMemoryLedger()
	led.Seed(key("a"), "Widget", 1)
	require.NoError(t, led.Reserve(key("a"), 1))
	led.Release(key("a"), 1)
	require.EqualValues(t, 1, led.Quantity(key("a")))
}

func TestMemoryLedgerConcurrentReserve(t *testing.T) {
	led := NewMemoryLedger()
	led.Seed(key("hot"), "Last Unit", 1)

	const workers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if led.Reserve(key("hot"), 1) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, wins, "exactly one reservation may win the last unit")
	require.EqualValues(t, 0, led.Quantity(key("hot")))
}
