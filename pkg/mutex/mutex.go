package mutex

import (
	"sync"
	"time"
)

// KeyedMutex hands out one mutex per key so that concurrent work on the same
// key (a token mint, a wallet) is serialized while different keys proceed in parallel.
type KeyedMutex struct {
	mutexes    map[string]*mutexEntry
	mapMutex   sync.Mutex
	cleanupTTL time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once
}

type mutexEntry struct {
	mutex      sync.Mutex
	lastAccess time.Time
}

// New creates a KeyedMutex that forgets keys unused for cleanupTTL
func New(cleanupTTL time.Duration) *KeyedMutex {
	km := &KeyedMutex{
		mutexes:    make(map[string]*mutexEntry),
		cleanupTTL: cleanupTTL,
		stopCh:     make(chan struct{}),
	}

	go km.cleanup()

	return km
}

// Lock locks the mutex for key and returns the matching unlock function
func (km *KeyedMutex) Lock(key string) (unlock func()) {
	km.mapMutex.Lock()
	entry, exists := km.mutexes[key]
	if !exists {
		entry = &mutexEntry{}
		km.mutexes[key] = entry
	}
	entry.lastAccess = time.Now()
	km.mapMutex.Unlock()

	entry.mutex.Lock()
	return entry.mutex.Unlock
}

// Size returns the number of keys currently tracked
func (km *KeyedMutex) Size() int {
	km.mapMutex.Lock()
	defer km.mapMutex.Unlock()
	return len(km.mutexes)
}

func (km *KeyedMutex) cleanup() {
	ticker := time.NewTicker(km.cleanupTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			km.removeUnused()
		case <-km.stopCh:
			return
		}
	}
}

// removeUnused drops idle keys whose mutex is not held
func (km *KeyedMutex) removeUnused() {
	km.mapMutex.Lock()
	defer km.mapMutex.Unlock()

	now := time.Now()
	for key, entry := range km.mutexes {
		if now.Sub(entry.lastAccess) > km.cleanupTTL && entry.mutex.TryLock() {
			entry.mutex.Unlock()
			delete(km.mutexes, key)
		}
	}
}

// Stop stops the cleanup goroutine
func (km *KeyedMutex) Stop() {
	km.stopOnce.Do(func() { close(km.stopCh) })
}
