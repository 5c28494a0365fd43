package service

import "sync"

// InvoiceLocker hands out one mutex per invoice ID. Entries are reference
// counted and dropped once no goroutine holds or waits on them.
type InvoiceLocker struct {
	mu    sync.Mutex
	locks map[uint64]*invoiceLock
}

type invoiceLock struct {
	mu   sync.Mutex
	refs int
}

func NewInvoiceLocker() *InvoiceLocker {
	return &InvoiceLocker{locks: make(map[uint64]*invoiceLock)}
}

// Lock blocks until the invoice is free and returns the matching unlock func
func (l *InvoiceLocker) Lock(id uint64) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &invoiceLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// Len returns the number of invoices currently locked or waited on
func (l *InvoiceLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
