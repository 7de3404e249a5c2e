package credibility

import "sync"

// childLocks - по мьютексу на ребёнка. Записи удаляются, когда мьютекс никому не нужен.
type childLocks struct {
	mu    sync.Mutex
	locks map[int64]*childLock
}

type childLock struct {
	mu   sync.Mutex
	refs int
}

func newChildLocks() *childLocks {
	return &childLocks{locks: make(map[int64]*childLock)}
}

// Lock захватывает мьютекс ребёнка и возвращает функцию освобождения.
func (l *childLocks) Lock(childID int64) func() {
	l.mu.Lock()
	cl, ok := l.locks[childID]
	if !ok {
		cl = &childLock{}
		l.locks[childID] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.mu.Lock()
	return func() {
		cl.mu.Unlock()

		l.mu.Lock()
		cl.refs--
		if cl.refs == 0 {
			delete(l.locks, childID)
		}
		l.mu.Unlock()
	}
}

// size - число живых записей (для тестов).
func (l *childLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
