// SPDX-License-Identifier: Unlicense OR MIT

package marks

import (
	"textbuf.dev/gapbuffer"
)

// Buffer augments a *gapbuffer.Buffer with a mark Registry, the
// pairing spec.md §4.3 describes as an "add-on" to the plain engine:
// the embedded Buffer alone takes no source-mark at all, and this
// type is where sourceMark-relative coordinates and mark maintenance
// on every edit actually live.
type Buffer struct {
	*gapbuffer.Buffer
	registry *Registry
}

// New returns an empty, markable Buffer.
func New(opts ...gapbuffer.Option) *Buffer {
	return &Buffer{Buffer: gapbuffer.New(opts...), registry: NewRegistry()}
}

// NewFromString returns a markable Buffer initialized to s.
func NewFromString(s string, opts ...gapbuffer.Option) *Buffer {
	return &Buffer{Buffer: gapbuffer.NewFromString(s, opts...), registry: NewRegistry()}
}

// NewWithRegistryOptions is New, plus RegistryOptions forwarded to the
// underlying Registry (e.g. WithLargeCountThreshold) — split from New
// rather than folded into one combined option type so gapbuffer.Option
// and RegistryOption stay independent of each other.
func NewWithRegistryOptions(gbOpts []gapbuffer.Option, regOpts []RegistryOption) *Buffer {
	return &Buffer{Buffer: gapbuffer.New(gbOpts...), registry: NewRegistry(regOpts...)}
}

// resolve turns a possibly-unspecified, possibly sourceMark-relative
// range into absolute buffer coordinates, per spec.md §4.3's
// "Coordinate resolution" rule.
func (b *Buffer) resolve(r gapbuffer.Range, sourceMark Mark) (gapbuffer.Range, error) {
	if sourceMark == nil {
		if r.IsUnspecified() {
			return gapbuffer.Range{Start: 0, End: b.Length()}, nil
		}
		return r, nil
	}
	src, err := b.registry.RangeFor(sourceMark)
	if err != nil {
		return gapbuffer.Range{}, err
	}
	if r.IsUnspecified() {
		return src, nil
	}
	return gapbuffer.Range{Start: src.Start + r.Start, End: src.Start + r.End}, nil
}

// MarkRange binds newMark to rng (resolved against sourceMark if
// given, else treated as absolute). It fails with DuplicateMark if
// newMark is already registered.
func (b *Buffer) MarkRange(rng gapbuffer.Range, newMark Mark, sourceMark Mark) error {
	abs, err := b.resolve(rng, sourceMark)
	if err != nil {
		return err
	}
	return b.registry.MarkRange(abs, newMark)
}

// Unmark removes mark's entry; silent if mark is unknown.
func (b *Buffer) Unmark(mark Mark) {
	b.registry.Unmark(mark)
}

// GetRangeForMark returns mark's range, translated relative to
// sourceMark (subtracting sourceMark's start) if given.
func (b *Buffer) GetRangeForMark(mark Mark, sourceMark Mark) (gapbuffer.Range, error) {
	abs, err := b.registry.RangeFor(mark)
	if err != nil {
		return gapbuffer.Range{}, err
	}
	if sourceMark == nil {
		return abs, nil
	}
	src, err := b.registry.RangeFor(sourceMark)
	if err != nil {
		return gapbuffer.Range{}, err
	}
	return gapbuffer.Range{Start: abs.Start - src.Start, End: abs.End - src.Start}, nil
}

// GetMarksIntersecting enumerates marks whose absolute range
// intersects rng (resolved against sourceMark if given), invoking
// predicate(mark, absoluteRange) for each candidate and collecting its
// non-nil results, in enumeration order.
func (b *Buffer) GetMarksIntersecting(rng gapbuffer.Range, sourceMark Mark, predicate func(mark Mark, absolute gapbuffer.Range) any) ([]any, error) {
	abs, err := b.resolve(rng, sourceMark)
	if err != nil {
		return nil, err
	}
	return b.registry.Intersecting(abs, predicate), nil
}

// Replace resolves r against sourceMark (as every other mark-aware op
// here does via resolve), then performs the embedded Buffer's edit at
// the resolved absolute coordinates and applies spec.md §4.3's
// update-on-edit rules to every live mark.
func (b *Buffer) Replace(r gapbuffer.Range, source gapbuffer.CharSource, replacementRange gapbuffer.Range, sourceMark Mark) error {
	resolved, err := b.resolve(r, sourceMark)
	if err != nil {
		return err
	}
	if resolved.Start < 0 || resolved.End < resolved.Start || resolved.End > b.Length() {
		return &gapbuffer.Error{Kind: gapbuffer.InvalidRange, Op: "Replace", Msg: "range out of bounds"}
	}
	insLen := replacementRange.Len()
	if err := b.Buffer.Replace(resolved, source, replacementRange); err != nil {
		return err
	}
	b.registry.Update(resolved.Start, resolved.End, insLen)
	return nil
}
