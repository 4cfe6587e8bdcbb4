package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// lockTable candados exclusivos por clave con espera acotada.
// Una clave ocupa memoria solo mientras alguien la tiene o la espera.
type lockTable struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int // dueño + esperando
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[string]*lockSlot)}
}

func (t *lockTable) ref(key string) *lockSlot {
	t.mu.Lock()
	defer t.mu.Unlock()
	sl, ok := t.slots[key]
	if !ok {
		sl = &lockSlot{ch: make(chan struct{}, 1)}
		t.slots[key] = sl
	}
	sl.refs++
	return sl
}

func (t *lockTable) unref(key string, sl *lockSlot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sl.refs--
	if sl.refs == 0 {
		delete(t.slots, key)
	}
}

// acquire espera el candado hasta timeout (<= 0: sin límite) o la cancelación de ctx.
func (t *lockTable) acquire(ctx context.Context, key string, timeout time.Duration) error {
	sl := t.ref(key)
	select {
	case sl.ch <- struct{}{}:
		return nil
	default:
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case sl.ch <- struct{}{}:
		return nil
	case <-expired:
		t.unref(key, sl)
		return fmt.Errorf("bloqueo de %s: %w", key, domain.ErrLockTimeout)
	case <-ctx.Done():
		t.unref(key, sl)
		return ctx.Err()
	}
}

// release libera un candado tomado con acquire.
func (t *lockTable) release(key string) {
	t.mu.Lock()
	sl := t.slots[key]
	t.mu.Unlock()
	<-sl.ch
	t.unref(key, sl)
}

// size claves vivas en la tabla.
func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}
