package service

import (
	"sync/atomic"
	"testing"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
)

func TestInvoiceLockerSerializesSameID(t *testing.T) {
	locker := NewInvoiceLocker()

	var inside, maxInside atomic.Int32
	var wg conc.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Go(func() {
			unlock := locker.Lock(7)
			defer unlock()

			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			inside.Add(-1)
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
	assert.Equal(t, 0, locker.Len())
}

func TestInvoiceLockerIndependentIDs(t *testing.T) {
	locker := NewInvoiceLocker()

	unlockA := locker.Lock(1)
	// a different invoice must not block
	unlockB := locker.Lock(2)
	assert.Equal(t, 2, locker.Len())

	unlockB()
	unlockA()
	assert.Equal(t, 0, locker.Len())
}
