// SPDX-License-Identifier: Unlicense OR MIT

package gapbuffer

// CharSource is the sole bridge between a caller-supplied sequence and
// the engine: given a subrange of some source value, it writes exactly
// subrange.Len() cells into dest starting at destBegin. Implementations
// never need to know each other's concrete representation — the
// engine only ever holds a CharSource.
type CharSource interface {
	// CopyInto writes src[subrange.Start:subrange.End] into
	// dest[destBegin:destBegin+subrange.Len()].
	CopyInto(subrange Range, dest []rune, destBegin int)
	// Len returns the number of characters available from this
	// source, used to validate a requested subrange.
	Len() int
}

// RuneSource is a CharSource over a single character; it is only
// valid for the subrange [0,1).
type RuneSource rune

func (r RuneSource) Len() int { return 1 }

func (r RuneSource) CopyInto(subrange Range, dest []rune, destBegin int) {
	if subrange.Start == 0 && subrange.End == 1 {
		dest[destBegin] = rune(r)
	}
}

// SliceSource is a CharSource backed by an owned []rune, copied
// directly.
type SliceSource []rune

func (s SliceSource) Len() int { return len(s) }

func (s SliceSource) CopyInto(subrange Range, dest []rune, destBegin int) {
	copy(dest[destBegin:destBegin+subrange.Len()], s[subrange.Start:subrange.End])
}

// StringSource is a convenience CharSource backed by a string.
type StringSource string

func (s StringSource) Len() int { return len([]rune(s)) }

func (s StringSource) CopyInto(subrange Range, dest []rune, destBegin int) {
	runes := []rune(s)
	copy(dest[destBegin:destBegin+subrange.Len()], runes[subrange.Start:subrange.End])
}

// bufferSource lets a *Buffer act as a CharSource over its own
// content, implemented via GetChars (spec.md §4.1).
type bufferSource struct {
	buf *Buffer
}

func (b bufferSource) Len() int { return b.buf.Length() }

func (b bufferSource) CopyInto(subrange Range, dest []rune, destBegin int) {
	_ = b.buf.GetChars(subrange.Start, subrange.End, dest, destBegin)
}

// AsCharSource exposes buf's content as a CharSource, e.g. to copy a
// range of one buffer into another via Replace.
func AsCharSource(buf *Buffer) CharSource {
	return bufferSource{buf: buf}
}

// Source exposes b's own content as a CharSource. It is the method
// form of AsCharSource, used by packages (snapshot, replay) that only
// hold b behind a narrower interface.
func (b *Buffer) Source() CharSource {
	return AsCharSource(b)
}
