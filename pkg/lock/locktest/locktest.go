// Package locktest provides an in-process lock.Locker for tests.
package locktest

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/leatherworks-erp/pkg/lock"
)

// Local hands out named locks within one process. The ttl is ignored; a lock
// is held until released.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func New() *Local {
	return &Local{held: map[string]struct{}{}}
}

func (l *Local) Acquire(ctx context.Context, name string, _ time.Duration) (lock.Releaser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[name]; busy {
		return nil, lock.ErrNotObtained
	}
	l.held[name] = struct{}{}
	return release{owner: l, name: name}, nil
}

// Held reports whether name is currently locked.
func (l *Local) Held(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[name]
	return ok
}

type release struct {
	owner *Local
	name  string
}

func (r release) Release(context.Context) error {
	r.owner.mu.Lock()
	delete(r.owner.held, r.name)
	r.owner.mu.Unlock()
	return nil
}
