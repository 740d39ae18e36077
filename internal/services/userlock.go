package services

import "sync"

// userLock serializes award-path mutations per user id so a message award,
// a deletion reversal and a voice sweep for the same member never interleave.
// Locks are never released from the map; the member population is small and
// bounded by the guild size.
type userLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLock() *userLock {
	return &userLock{
		locks: make(map[string]*sync.Mutex),
	}
}

func (l *userLock) Lock(id string) {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()
	m.Lock()
}

func (l *userLock) Unlock(id string) {
	l.mu.Lock()
	m := l.locks[id]
	l.mu.Unlock()
	m.Unlock()
}
