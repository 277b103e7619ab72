// SPDX-License-Identifier: Unlicense OR MIT

package mvcc

import "textbuf.dev/snapshot"

// Context is a snapshot context: a read-only or mutable view over a
// Storage's record chain, in the sense of spec.md §5's "current
// logical snapshot context". Nested contexts see their parent's
// current view plus their own pending edits; sibling contexts never
// observe each other's pending edits (spec.md §8's "Snapshot
// scenarios").
type Context struct {
	service *Service
	storage *snapshot.Storage
	parent  *Context
	mutable bool

	record         *snapshot.Record // this context's own pending record; nil until its first write
	baseGeneration uint64           // cs.generation as observed at Begin, used for top-level conflict detection
	closed         bool
}

// Begin opens a new context against storage. A nil parent makes this a
// top-level context forked from the chain's committed head; otherwise
// it is nested inside parent.
func (s *Service) Begin(storage *snapshot.Storage, parent *Context, mutable bool) *Context {
	cs := s.chainFor(storage)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return &Context{
		service:        s,
		storage:        storage,
		parent:         parent,
		mutable:        mutable,
		baseGeneration: cs.generation,
	}
}

// currentRecordLocked returns the record ctx currently reads from: its
// own pending record if it has one, else its parent's (recursively),
// else the chain's committed head. cs.mu must already be held.
func (ctx *Context) currentRecordLocked(cs *chainState) *snapshot.Record {
	if ctx.record != nil {
		return ctx.record
	}
	if ctx.parent != nil {
		return ctx.parent.currentRecordLocked(cs)
	}
	return cs.head
}

// parentRecordLocked is the fork predecessor for ctx's own record: the
// view one level up from ctx itself. cs.mu must already be held.
func (ctx *Context) parentRecordLocked(cs *chainState) *snapshot.Record {
	if ctx.parent != nil {
		return ctx.parent.currentRecordLocked(cs)
	}
	return cs.head
}

// commitTargetLocked returns the record ctx's Apply commits into:
// ctx.parent's own record, materializing it (forked from the
// grandparent's view) if ctx.parent has never written. Only valid when
// ctx.parent != nil. cs.mu must already be held.
func (ctx *Context) commitTargetLocked(cs *chainState) *snapshot.Record {
	parent := ctx.parent
	if parent.record == nil {
		parent.record = ctx.storage.PrependStateRecord(parent.parentRecordLocked(cs))
	}
	return parent.record
}

// enter installs ctx as the chain's active context for the duration of
// fn, so that Storage method calls made within fn resolve their record
// via ctx (see Service.ResolveReadable/ResolveWritable). Must not be
// called while cs.mu is held.
func (ctx *Context) enter(fn func() error) error {
	cs := ctx.service.chainFor(ctx.storage)
	cs.mu.Lock()
	previous := cs.active
	cs.active = ctx
	cs.mu.Unlock()
	defer func() {
		cs.mu.Lock()
		cs.active = previous
		cs.mu.Unlock()
	}()
	return fn()
}

// Length, Get, GetChars, String, and Replace run the underlying
// Storage's corresponding method with ctx installed as the active
// context, so reads and writes resolve against ctx's view of the
// chain.

func (ctx *Context) Length() (n int, err error) {
	err = ctx.enter(func() error {
		n, err = ctx.storage.Length()
		return err
	})
	return n, err
}

func (ctx *Context) Get(i int) (r rune, err error) {
	err = ctx.enter(func() error {
		r, err = ctx.storage.Get(i)
		return err
	})
	return r, err
}

func (ctx *Context) GetChars(srcBegin, srcEnd int, dest []rune, destBegin int) error {
	return ctx.enter(func() error {
		return ctx.storage.GetChars(srcBegin, srcEnd, dest, destBegin)
	})
}

func (ctx *Context) String() (s string) {
	_ = ctx.enter(func() error {
		s = ctx.storage.String()
		return nil
	})
	return s
}

func (ctx *Context) Replace(r snapshot.Range, source snapshot.CharSource, replacementRange snapshot.Range) error {
	return ctx.enter(func() error {
		return ctx.storage.Replace(r, source, replacementRange)
	})
}

// Apply commits ctx's pending edits, if any, into its parent — or into
// the chain's committed head if ctx is top-level. A top-level Apply
// whose head has been committed into by someone else since ctx was
// opened is retried, bounded and backed off, before surfacing
// ErrConflict: this reference implementation does not re-derive ctx's
// edits against the new head (that would need an operation log this
// package doesn't keep), so a genuine conflict is never resolved
// automatically, only bounded-retried. Nested Apply calls are not
// subject to conflict detection: this package serializes all access to
// one chain through a single active-context pointer, so concurrent
// sibling nested contexts committing into the same parent are out of
// scope for this reference implementation.
func (ctx *Context) Apply() error {
	if ctx.closed {
		return ErrClosed
	}
	if !ctx.mutable {
		return ErrReadOnly
	}
	ctx.closed = true
	if ctx.record == nil {
		return nil
	}

	cs := ctx.service.chainFor(ctx.storage)

	if ctx.parent == nil {
		err := ctx.service.retry(func() error {
			cs.mu.Lock()
			defer cs.mu.Unlock()
			if cs.generation != ctx.baseGeneration {
				return ErrConflict
			}
			cs.head.Assign(ctx.record)
			cs.generation++
			return nil
		})
		ctx.logApply(err)
		return err
	}

	cs.mu.Lock()
	target := ctx.commitTargetLocked(cs)
	target.Assign(ctx.record)
	cs.mu.Unlock()
	ctx.logApply(nil)
	return nil
}

func (ctx *Context) logApply(err error) {
	if ctx.service.logger == nil {
		return
	}
	if err != nil {
		ctx.service.logger.Warnw("mvcc: apply failed", "error", err)
	} else {
		ctx.service.logger.Debugw("mvcc: apply committed")
	}
}

// Discard releases ctx's pending record, if any, without committing
// it. Safe to call on a context that never wrote anything, and a
// no-op if ctx was already applied or discarded.
func (ctx *Context) Discard() {
	if ctx.closed {
		return
	}
	ctx.closed = true
	if ctx.record != nil {
		ctx.record.Finalize()
	}
}
