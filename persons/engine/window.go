package engine

import (
	"sync"

	"github.com/AntonStoeckl/synthetic-persons-go/persons"
)

// window keeps the most recent clean records that near-duplicates are drawn from.
// Slots are addressed by index modulo size, so a newer record evicts the one size indexes before it.
type window struct {
	mu    sync.Mutex
	slots []persons.Person
	used  []bool
}

func newWindow(size int) *window {
	return &window{
		slots: make([]persons.Person, size),
		used:  make([]bool, size),
	}
}

func (w *window) Get(index uint64) (persons.Person, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	slot := index % uint64(len(w.slots))
	if !w.used[slot] || w.slots[slot].Index != index {
		return persons.Person{}, false
	}

	return w.slots[slot].Clone(), true
}

func (w *window) Put(p persons.Person) {
	w.mu.Lock()
	defer w.mu.Unlock()

	slot := p.Index % uint64(len(w.slots))
	w.slots[slot] = p
	w.used[slot] = true
}
