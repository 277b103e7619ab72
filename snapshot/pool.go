// SPDX-License-Identifier: Unlicense OR MIT

package snapshot

import (
	"sync/atomic"

	"textbuf.dev/gapbuffer"
)

// Range and CharSource are aliased from gapbuffer so callers of this
// package rarely need to import it directly alongside snapshot.
type (
	Range      = gapbuffer.Range
	CharSource = gapbuffer.CharSource
)

// Buffer is the narrow surface Storage needs from whatever sequence
// implementation backs a version record: a *gapbuffer.Buffer or a
// *replay.ReplayingGapBuffer both qualify directly. It is an alias,
// not a redeclaration, of gapbuffer.Sequence so that
// *replay.ReplayingGapBuffer's SyncTo(gapbuffer.Sequence) method also
// satisfies the optional syncer check in forkInto. *marks.Buffer takes
// a sourceMark on Replace and so is composed ad hoc by callers that
// need mark-aware editing rather than driven through this alias.
type Buffer = gapbuffer.Sequence

// Factory allocates a fresh, empty Buffer. Storage is constructed with
// one so the pool abstraction never needs to know the concrete buffer
// type it is managing.
type Factory func() Buffer

// Pool is the spec.md §4.6 pool abstraction: a source of Buffers
// reused across version-record lifecycles. Implementations must never
// hand the same instance to two concurrent Get callers.
type Pool interface {
	// Get returns a Buffer, either a recycled one or a freshly
	// allocated one via factory.
	Get(factory Factory) Buffer
	// Put returns b to the pool for possible reuse. b must not be
	// touched by the caller afterward.
	Put(b Buffer)
}

// UnpooledPool is the "unpooled" variant: every Get allocates, every
// Put drops its argument for the garbage collector.
type UnpooledPool struct{}

func (UnpooledPool) Get(factory Factory) Buffer { return factory() }
func (UnpooledPool) Put(Buffer)                 {}

// SingleSlotPool is the "single-slot" variant: one cached instance,
// taken by the first Get and replaced by the next Put. Thread-safety
// comes from atomic.Pointer's compare-and-swap, so concurrent Get
// callers race to null out the slot and exactly one of them wins the
// cached instance; everyone else falls back to factory().
type SingleSlotPool struct {
	slot atomic.Pointer[Buffer]
}

func (p *SingleSlotPool) Get(factory Factory) Buffer {
	for {
		cached := p.slot.Load()
		if cached == nil {
			return factory()
		}
		if p.slot.CompareAndSwap(cached, nil) {
			return *cached
		}
		// Another Get's CAS or a Put's Store changed the slot; retry.
	}
}

func (p *SingleSlotPool) Put(b Buffer) {
	p.slot.Store(&b)
}
