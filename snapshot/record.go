// SPDX-License-Identifier: Unlicense OR MIT

package snapshot

import "textbuf.dev/gapbuffer"

// Record is one element of the version-record chain a Storage owns,
// per spec.md §3/§4.4: a possibly-lazy buffer, a "has private copy"
// flag, and a link to its predecessor.
type Record struct {
	storage     *Storage
	predecessor *Record
	buf         Buffer
	privateCopy bool
}

// Predecessor returns r's predecessor in the chain, or nil if r is the
// chain's root. Exposed so an ambient Service can walk the chain it
// navigates via Storage.FirstStateRecord/PrependStateRecord.
func (r *Record) Predecessor() *Record { return r.predecessor }

// HasPrivateCopy reports whether r already owns a buffer suitable for
// in-place mutation.
func (r *Record) HasPrivateCopy() bool { return r.privateCopy }

// readable returns r's buffer for reading, lazily forking one from
// the predecessor chain if r has never been touched. Per spec.md
// §4.4, a lazily-allocated read buffer is itself marked privateCopy —
// it is a fresh, independent copy, not an alias of the predecessor's
// live buffer (aliasing before first write is only for the writable
// path's reuse check, never observable from outside).
func (r *Record) readable() (Buffer, error) {
	if r.buf != nil {
		return r.buf, nil
	}
	buf := r.storage.pool.Get(r.storage.factory)
	if r.predecessor != nil {
		predBuf, err := r.predecessor.readable()
		if err != nil {
			return nil, err
		}
		if err := forkInto(buf, predBuf); err != nil {
			r.storage.pool.Put(buf)
			return nil, err
		}
	}
	r.buf = buf
	r.privateCopy = true
	return r.buf, nil
}

// writable returns r's buffer suitable for in-place mutation: reuses
// it if r already has a private copy, else forks one fresh via the
// pool — from the buffer r adopted in Assign if it holds one, otherwise
// from the predecessor. This is the strict copy-on-write promotion
// spec.md §4.4 describes.
func (r *Record) writable() (Buffer, error) {
	if r.privateCopy && r.buf != nil {
		return r.buf, nil
	}
	buf := r.storage.pool.Get(r.storage.factory)
	src := r.buf
	if src == nil && r.predecessor != nil {
		predBuf, err := r.predecessor.readable()
		if err != nil {
			r.storage.pool.Put(buf)
			return nil, err
		}
		src = predBuf
	}
	if src != nil {
		if err := forkInto(buf, src); err != nil {
			r.storage.pool.Put(buf)
			return nil, err
		}
	}
	r.buf = buf
	r.privateCopy = true
	return r.buf, nil
}

// Assign is the commit/apply primitive from spec.md §4.4: r releases
// its own buffer back to the pool, adopts other's buffer by
// reference, and clears privateCopy so a future write forks again.
func (r *Record) Assign(other *Record) {
	if r.buf != nil && r.buf != other.buf {
		r.storage.pool.Put(r.buf)
	}
	r.buf = other.buf
	r.privateCopy = false
}

// Finalize releases r's buffer back to the pool. The ambient service
// calls this once a record is no longer reachable from any chain or
// snapshot context (discard, or recycling after commit).
func (r *Record) Finalize() {
	if r.buf == nil {
		return
	}
	r.storage.pool.Put(r.buf)
	r.buf = nil
	r.privateCopy = false
}

// forkInto initializes dst with src's content, preferring a targeted
// replay sync when dst supports it (the replay package's
// ReplayingGapBuffer) and falling back to a full-range copy otherwise
// (the plain gapbuffer path), per spec.md §4.4's "via full copy
// — plain snapshot-aware variant — or via sync(+replay) — replaying
// variant".
func forkInto(dst, src Buffer) error {
	if syncer, ok := dst.(interface{ SyncTo(Buffer) error }); ok {
		return syncer.SyncTo(src)
	}
	return dst.Replace(gapbuffer.Unspecified, src.Source(), gapbuffer.Range{Start: 0, End: src.Length()})
}
