package service

import (
	"sync"

	"github.com/google/uuid"
)

// keyedMutex serializes bid acceptance and close transitions per
// listing: concurrent placeBid calls on the same listing are strictly
// ordered, the sweep cannot close a listing while a validated bid is
// still being appended, and bids on different listings proceed in
// parallel.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// lock acquires the mutex for id and returns its unlock func.
func (k *keyedMutex) lock(id uuid.UUID) func() {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
