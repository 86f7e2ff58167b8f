package gpu

import "sync"

// Lifetime counts the live children of a device. Children acquire a
// reference when created and release it when destroyed; the device may only
// close once the count is back to zero.
type Lifetime struct {
	mu       sync.Mutex
	children int
	closed   bool
}

// Acquire registers a new child.
func (l *Lifetime) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrDeviceDestroyed
	}
	l.children++
	return nil
}

// Release drops a child reference taken by Acquire.
func (l *Lifetime) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.children == 0 {
		panic("gpu: lifetime released more often than acquired")
	}
	l.children--
}

// Live returns the number of children not yet destroyed.
func (l *Lifetime) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.children
}

// Closed reports whether Close succeeded.
func (l *Lifetime) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Close marks the owner as destroyed. It fails while children are alive.
func (l *Lifetime) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrDeviceDestroyed
	}
	if l.children > 0 {
		return ErrDeviceInUse
	}
	l.closed = true
	return nil
}
