package registers

import (
	"context"
)

// BusLock serializes sessions on a shared bus. Unlike sync.Mutex, waiting
// for the lock can be abandoned through the context.
type BusLock struct {
	sem chan struct{}
}

func NewBusLock() *BusLock {
	return &BusLock{sem: make(chan struct{}, 1)}
}

// Lock blocks until the bus is free or ctx is done. A done ctx never takes
// the lock, even a free one.
func (l *BusLock) Lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *BusLock) Unlock() {
	select {
	case <-l.sem:
	default:
		panic("registers: unlock of unlocked bus")
	}
}
