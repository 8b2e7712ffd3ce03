package watchlist

import (
	"context"
	"strconv"
	"sync"
)

// Lock modes selectable through configuration
const (
	LockModeLocal = "local"
	LockModeRedis = "redis"
	LockModeNone  = "none"
)

// Locker serializes mutations of one user's watchlist
type Locker interface {
	// Lock blocks until the key is held or ctx is done
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func userKey(userID int64) string {
	return "watchlist:lock:" + strconv.FormatInt(userID, 10)
}

// LocalLocker is an in-process keyed mutex. Keys are dropped once no caller
// holds or waits on them.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

// NewLocalLocker creates an empty LocalLocker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*keyLock)}
}

// Lock acquires key
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.sem
			l.release(key, kl)
		})
	}, nil
}

func (l *LocalLocker) release(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

// size returns the number of tracked keys
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// NoopLocker performs no locking; concurrent mutations of the same watchlist
// resolve as last writer wins.
type NoopLocker struct{}

// Lock returns immediately
func (NoopLocker) Lock(ctx context.Context, key string) (func(), error) {
	return func() {}, nil
}
