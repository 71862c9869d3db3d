package live

import "sync"

// rootLocks serializes refreshes per project root inside one process.
type rootLocks struct {
	mu   sync.Mutex
	held map[string]*rootLock
}

type rootLock struct {
	sync.Mutex
	refs int
}

func newRootLocks() *rootLocks {
	return &rootLocks{held: map[string]*rootLock{}}
}

// lock acquires the locks of the roots, which must be sorted and distinct,
// and returns the function releasing them.
func (l *rootLocks) lock(roots []string) func() {
	acquired := make([]*rootLock, 0, len(roots))
	for _, root := range roots {
		l.mu.Lock()
		rl, ok := l.held[root]
		if !ok {
			rl = &rootLock{}
			l.held[root] = rl
		}
		rl.refs++
		l.mu.Unlock()

		rl.Lock()
		acquired = append(acquired, rl)
	}

	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
			l.mu.Lock()
			acquired[i].refs--
			if acquired[i].refs == 0 {
				delete(l.held, roots[i])
			}
			l.mu.Unlock()
		}
	}
}
