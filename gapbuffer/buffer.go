// SPDX-License-Identifier: Unlicense OR MIT

// Package gapbuffer implements the gap-buffer engine at the core of
// textbuf.dev: a flat array of runes with a movable, unused "gap" that
// sits at the last edit site, giving localized edits O(1) amortized
// cost and random edits O(n).
package gapbuffer

import (
	"go.uber.org/zap"

	"textbuf.dev/internal/pagesize"
)

// DefaultMinimumGapLength is used when no MinimumGapLength option is
// given to New.
const DefaultMinimumGapLength = 8

// Buffer is the gap-buffer engine described in spec.md §4.2. It has no
// notion of marks; Registry (package marks) augments a Buffer with
// one.
type Buffer struct {
	data     []rune
	gapStart int
	gapEnd   int

	minimumGapLength int
	maxCapacity      int
	logger           *zap.SugaredLogger
}

// Option configures a Buffer at construction time.
type Option func(*Buffer)

// WithMinimumGapLength overrides DefaultMinimumGapLength.
func WithMinimumGapLength(n int) Option {
	return func(b *Buffer) { b.minimumGapLength = n }
}

// WithLogger attaches a logger for growth and error-path events. A nil
// logger (the default) disables logging entirely.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(b *Buffer) { b.logger = l }
}

// WithInitialCapacity pre-sizes the backing array to n runes of empty
// gap, avoiding the first few grow() calls a buffer built up from
// nothing would otherwise pay for a caller that knows its expected
// size up front (package config exposes this as InitialCapacity).
func WithInitialCapacity(n int) Option {
	return func(b *Buffer) {
		if n <= 0 {
			return
		}
		b.data = make([]rune, n)
		b.gapEnd = n
	}
}

// WithMaxCapacity caps the backing array at n runes: a grow that would
// need to exceed this ceiling fails with AllocationFailure instead of
// allocating. n <= 0 (the default) leaves growth unbounded.
func WithMaxCapacity(n int) Option {
	return func(b *Buffer) { b.maxCapacity = n }
}

// New returns an empty Buffer.
func New(opts ...Option) *Buffer {
	b := &Buffer{minimumGapLength: DefaultMinimumGapLength}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewFromString returns a Buffer initialized to contain s.
func NewFromString(s string, opts ...Option) *Buffer {
	b := New(opts...)
	runes := []rune(s)
	if len(runes) == 0 {
		return b
	}
	if err := b.Replace(Zero, StringSource(s), Range{0, len(runes)}); err != nil {
		panic(err)
	}
	return b
}

// Length returns the number of characters currently held.
func (b *Buffer) Length() int {
	return len(b.data) - b.gapLen()
}

func (b *Buffer) gapLen() int {
	return b.gapEnd - b.gapStart
}

// physical translates a logical index into an index into b.data.
func (b *Buffer) physical(i int) int {
	if i < b.gapStart {
		return i
	}
	return i + b.gapLen()
}

// Get returns the character at logical index i.
func (b *Buffer) Get(i int) (rune, error) {
	if i < 0 || i >= b.Length() {
		return 0, newError(InvalidRange, "Get", "index out of bounds")
	}
	return b.data[b.physical(i)], nil
}

// GetChars copies [srcBegin, srcEnd) into dest starting at destBegin,
// straddling the gap if necessary (spec.md §4.2).
func (b *Buffer) GetChars(srcBegin, srcEnd int, dest []rune, destBegin int) error {
	r, err := resolveRange(Range{srcBegin, srcEnd}, b.Length(), "GetChars")
	if err != nil {
		return err
	}
	n := r.Len()
	if destBegin < 0 || destBegin+n > len(dest) {
		return newError(InvalidDestination, "GetChars", "destination offset/size incompatible with requested length")
	}
	switch {
	case r.End <= b.gapStart:
		// Entirely before the gap.
		copy(dest[destBegin:destBegin+n], b.data[r.Start:r.End])
	case r.Start >= b.gapStart:
		// Entirely after the gap.
		off := b.gapLen()
		copy(dest[destBegin:destBegin+n], b.data[r.Start+off:r.End+off])
	default:
		// Straddles the gap: two copies.
		head := b.gapStart - r.Start
		copy(dest[destBegin:destBegin+head], b.data[r.Start:b.gapStart])
		copy(dest[destBegin+head:destBegin+n], b.data[b.gapEnd:b.gapEnd+(n-head)])
	}
	return nil
}

// String renders the buffer's contents.
func (b *Buffer) String() string {
	n := b.Length()
	out := make([]rune, n)
	_ = b.GetChars(0, n, out, 0)
	return string(out)
}

// Replace is the core edit: it deletes [range.Start, range.End) and
// inserts replacementRange.Len() characters read from source, per
// spec.md §4.2.
func (b *Buffer) Replace(r Range, source CharSource, replacementRange Range) error {
	length := b.Length()
	resolved, err := resolveRange(r, length, "Replace")
	if err != nil {
		return err
	}
	if replacementRange.Start < 0 || replacementRange.End < replacementRange.Start || replacementRange.End > source.Len() {
		return newError(InvalidRange, "Replace", "replacement subrange out of bounds")
	}

	start, end := resolved.Start, resolved.End
	delLen := end - start
	insLen := replacementRange.Len()
	if delLen == 0 && insLen == 0 {
		return nil
	}

	if err := b.makeRoom(start, end, delLen, insLen); err != nil {
		return err
	}

	// b.gapStart == start now; write the replacement directly into the
	// gap and advance its start past what was written.
	if insLen > 0 {
		source.CopyInto(replacementRange, b.data, b.gapStart)
		b.gapStart += insLen
	}
	return nil
}

// makeRoom ensures the gap is positioned at start with the deletion
// [start,end) absorbed into it, growing the backing array first if
// the post-delete gap would be smaller than minimumGapLength.
//
// Whichever side the gap starts on, the final boundaries are always
// gapStart = start and gapEnd = oldGapEnd + (end - oldGapStart); only
// the data movement needed to get there differs, exactly as spec.md
// §4.2 describes (slide right, slide left, or no slide when the gap
// already lies inside the edit range).
func (b *Buffer) makeRoom(start, end, delLen, insLen int) error {
	newGap := b.gapLen() + delLen - insLen
	if newGap < b.minimumGapLength {
		return b.grow(start, end, delLen, insLen)
	}
	oldGapStart, oldGapEnd := b.gapStart, b.gapEnd
	switch {
	case oldGapStart < start:
		n := start - oldGapStart
		copy(b.data[oldGapStart:oldGapStart+n], b.data[oldGapEnd:oldGapEnd+n])
	case oldGapStart > end:
		n := oldGapStart - end
		copy(b.data[oldGapEnd-n:oldGapEnd], b.data[end:oldGapStart])
	}
	b.gapStart = start
	b.gapEnd = oldGapEnd + (end - oldGapStart)
	return nil
}

// grow allocates a new, larger backing array, placing the retained
// prefix and suffix around a fresh gap sized for the edit plus at
// least twice minimumGapLength of headroom, per spec.md §4.2's growth policy.
func (b *Buffer) grow(start, end, delLen, insLen int) error {
	length := b.Length()
	want := length - delLen + insLen + b.minimumGapLength*2
	newCap := len(b.data) * 2
	if newCap < want {
		newCap = want
	}
	newCap = pagesize.Round(newCap)

	if b.maxCapacity > 0 && newCap > b.maxCapacity {
		if want > b.maxCapacity {
			if b.logger != nil {
				b.logger.Warnw("gapbuffer: allocation over max capacity", "want", want, "maxCapacity", b.maxCapacity)
			}
			return newError(AllocationFailure, "Replace", "growth would exceed configured max capacity")
		}
		newCap = b.maxCapacity
	}

	newData := make([]rune, newCap)
	if err := b.GetChars(0, start, newData, 0); err != nil {
		panic(err) // start <= length always holds here
	}
	tailLen := length - end
	newGapEnd := newCap - tailLen
	if tailLen > 0 {
		_ = b.GetChars(end, length, newData, newGapEnd)
	}
	if b.logger != nil {
		b.logger.Debugw("gapbuffer: grew backing array", "oldCap", len(b.data), "newCap", newCap)
	}
	b.data = newData
	b.gapStart = start
	b.gapEnd = newGapEnd
	return nil
}
