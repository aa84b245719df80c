package analysis

import "sync"

// keyedMutex serialises work per key. Analysis runs for the same
// place must not interleave; runs for different places share nothing
// and proceed concurrently.
//
// Entries are never evicted. The value per place is one mutex, and
// the place count is small and bounded by the venue catalogue.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use, and
// returns the matching unlock function.
func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
