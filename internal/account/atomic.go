package account

import "sync/atomic"

// atomicInt64 is a thin wrapper so Core's counters read as plain fields
// while staying safe for the FetchX request handlers, which run on the
// same goroutine as every mutator but are exercised directly in tests.
type atomicInt64 struct {
	v int64
}

func (a *atomicInt64) Load() int64 { return atomic.LoadInt64(&a.v) }

func (a *atomicInt64) Store(val int64) { atomic.StoreInt64(&a.v, val) }

// Inc increments and returns the new value.
func (a *atomicInt64) Inc() int64 { return atomic.AddInt64(&a.v, 1) }
