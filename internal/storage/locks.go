package storage

import (
	"sort"
	"sync"
)

// dirLocks serializes file operations per client directory so that
// concurrent create/update/delete requests touching the same normalized
// name cannot interleave.
type dirLocks struct {
	mu    sync.Mutex
	locks map[string]*dirLock
}

type dirLock struct {
	mu   sync.Mutex
	refs int
}

func newDirLocks() *dirLocks {
	return &dirLocks{locks: make(map[string]*dirLock)}
}

// acquire locks the given keys in sorted order and returns a release func.
// Duplicate keys are locked once.
func (d *dirLocks) acquire(keys ...string) func() {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		uniq = append(uniq, k)
	}
	sort.Strings(uniq)

	held := make([]*dirLock, 0, len(uniq))
	for _, k := range uniq {
		d.mu.Lock()
		l, ok := d.locks[k]
		if !ok {
			l = &dirLock{}
			d.locks[k] = l
		}
		l.refs++
		d.mu.Unlock()

		l.mu.Lock()
		held = append(held, l)
	}

	keysCopy := uniq
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
		}
		d.mu.Lock()
		for _, k := range keysCopy {
			if l, ok := d.locks[k]; ok {
				l.refs--
				if l.refs == 0 {
					delete(d.locks, k)
				}
			}
		}
		d.mu.Unlock()
	}
}
