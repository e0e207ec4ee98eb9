package ledger

import (
	"sort"
	"sync"
)

type refMutex struct {
	mu   sync.Mutex
	refs int
}

// accountLocks hands out one mutex per account; idle entries are dropped
type accountLocks struct {
	mu    sync.Mutex
	locks map[int64]*refMutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[int64]*refMutex)}
}

// lock acquires the given accounts in ascending id order and returns the release func
func (l *accountLocks) lock(ids ...int64) func() {
	ids = dedupeSorted(ids)

	held := make([]*refMutex, 0, len(ids))
	for _, id := range ids {
		l.mu.Lock()
		m, ok := l.locks[id]
		if !ok {
			m = &refMutex{}
			l.locks[id] = m
		}
		m.refs++
		l.mu.Unlock()

		m.mu.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()

			l.mu.Lock()
			held[i].refs--
			if held[i].refs == 0 {
				delete(l.locks, ids[i])
			}
			l.mu.Unlock()
		}
	}
}

func dedupeSorted(ids []int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i, id := range out {
		if i == 0 || id != out[n-1] {
			out[n] = id
			n++
		}
	}
	return out[:n]
}
