package cache

import "sync"

// keyLocks provides per-fingerprint advisory locks so that two workers
// missing the cache for the same key collapse into a single computation.
// Locks are created on demand and removed once the last holder releases.
type keyLocks struct {
	mu   sync.Mutex
	held map[string]*keyLock
}

type keyLock struct {
	refs int
	mu   sync.Mutex
}

func newKeyLocks() *keyLocks {
	return &keyLocks{held: make(map[string]*keyLock)}
}

// acquire blocks until the lock for key is held and returns its release
// function. The release function must be called exactly once.
func (k *keyLocks) acquire(key string) func() {
	k.mu.Lock()
	l := k.held[key]
	if l == nil {
		l = &keyLock{}
		k.held[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.held, key)
		}
		k.mu.Unlock()
	}
}
