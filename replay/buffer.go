// SPDX-License-Identifier: Unlicense OR MIT

// Package replay implements the replaying-diff buffer of spec.md
// §4.5: a gap buffer that tracks a single compacted diff window of
// edits since the last sync, so a copy-on-write fork can replay that
// small window into the fresh buffer instead of copying the whole
// content.
package replay

import "textbuf.dev/gapbuffer"

var _ gapbuffer.Sequence = (*ReplayingGapBuffer)(nil)

// window is the spec.md §3 "Diff window": sourceRange/resultRange
// summarize every edit applied since the last sync, provided valid is
// still true. sourceRange.IsUnspecified() means "no edits recorded
// yet" (the state right after construction or after a sync).
type window struct {
	sourceRange gapbuffer.Range
	resultRange gapbuffer.Range
	valid       bool
}

func freshWindow() window {
	return window{sourceRange: gapbuffer.Unspecified, valid: true}
}

// ReplayingGapBuffer wraps a *gapbuffer.Buffer and maintains a window
// alongside it.
type ReplayingGapBuffer struct {
	*gapbuffer.Buffer
	window window
	// forkedFrom records which Sequence b's content was last
	// synced from, the "sibling record that owns the source buffer"
	// spec.md §3 describes. It is what lets a later SyncTo the other
	// direction recognize the relationship and replay instead of copy.
	forkedFrom *ReplayingGapBuffer
}

// New returns an empty ReplayingGapBuffer.
func New(opts ...gapbuffer.Option) *ReplayingGapBuffer {
	return &ReplayingGapBuffer{Buffer: gapbuffer.New(opts...), window: freshWindow()}
}

// NewFromString returns a ReplayingGapBuffer initialized to s.
func NewFromString(s string, opts ...gapbuffer.Option) *ReplayingGapBuffer {
	return &ReplayingGapBuffer{Buffer: gapbuffer.NewFromString(s, opts...), window: freshWindow()}
}

// Valid reports whether b's diff window still accurately summarizes
// every edit since the last sync.
func (b *ReplayingGapBuffer) Valid() bool { return b.window.valid }

// Window returns b's current (sourceRange, resultRange), and whether
// any edit has been recorded since the last sync. It is exposed for
// tests and for a caller that wants to inspect replay eligibility
// without performing a sync.
func (b *ReplayingGapBuffer) Window() (sourceRange, resultRange gapbuffer.Range, hasWindow bool) {
	return b.window.sourceRange, b.window.resultRange, !b.window.sourceRange.IsUnspecified()
}

// Replace performs the embedded Buffer's edit, then folds it into the
// diff window per spec.md §4.5's edit-tracking rules.
func (b *ReplayingGapBuffer) Replace(r gapbuffer.Range, source gapbuffer.CharSource, replacementRange gapbuffer.Range) error {
	resolved, err := b.resolveEditRange(r)
	if err != nil {
		return err
	}
	insLen := replacementRange.Len()
	if err := b.Buffer.Replace(r, source, replacementRange); err != nil {
		return err
	}
	b.trackEdit(resolved.Start, resolved.End, insLen)
	return nil
}

// resolveEditRange mirrors the embedded Buffer's own Unspecified
// handling so edit tracking sees the same (start, end) the buffer
// itself resolved to.
func (b *ReplayingGapBuffer) resolveEditRange(r gapbuffer.Range) (gapbuffer.Range, error) {
	if r.IsUnspecified() {
		return gapbuffer.Range{Start: 0, End: b.Length()}, nil
	}
	if r.Start < 0 || r.End < r.Start || r.End > b.Length() {
		return gapbuffer.Range{}, &gapbuffer.Error{Kind: gapbuffer.InvalidRange, Op: "Replace", Msg: "range out of bounds"}
	}
	return r, nil
}

// trackEdit implements spec.md §4.5's edit-tracking rules for a
// replace that deleted [s, e) and inserted insLen characters at s.
func (b *ReplayingGapBuffer) trackEdit(s, e, insLen int) {
	w := &b.window
	if !w.valid {
		return
	}
	if w.sourceRange.IsUnspecified() {
		w.sourceRange = gapbuffer.Range{Start: s, End: e}
		w.resultRange = gapbuffer.Range{Start: s, End: s + insLen}
		return
	}
	switch {
	case s == w.resultRange.End:
		// Strict append adjacent to the running window: extend it.
		newSourceEnd := e - w.resultRange.Len() + w.sourceRange.Len()
		newResultEnd := s + insLen
		w.sourceRange.End = newSourceEnd
		w.resultRange.End = newResultEnd
	case e == w.resultRange.Start:
		// Strict prepend: extend the window backward.
		delLen := e - s
		w.sourceRange.Start = s
		w.resultRange.Start = s
		w.resultRange.End += insLen - delLen
	default:
		// Gap or overlap with the current window: abandon it until the
		// next sync.
		w.valid = false
	}
}

// SyncTo replaces b's contents with source's. When source's own diff
// window is valid and non-empty and source was itself last synced
// from b (the sibling-fork relationship spec.md §4.5 describes),
// SyncTo replays just that window instead of copying source's entire
// content. Either way, b's window is reset to "no edits yet, valid"
// afterward.
func (b *ReplayingGapBuffer) SyncTo(source gapbuffer.Sequence) error {
	replaying, ok := source.(*ReplayingGapBuffer)
	if ok && replaying.forkedFrom == b && replaying.window.valid {
		if srcRange, resultRange, hasWindow := replaying.Window(); hasWindow {
			if err := b.Buffer.Replace(srcRange, source.Source(), resultRange); err != nil {
				return err
			}
			b.window = freshWindow()
			b.forkedFrom = replaying
			return nil
		}
	}

	length := source.Length()
	if err := b.Buffer.Replace(gapbuffer.Unspecified, source.Source(), gapbuffer.Range{Start: 0, End: length}); err != nil {
		return err
	}
	b.window = freshWindow()
	if ok {
		b.forkedFrom = replaying
	} else {
		b.forkedFrom = nil
	}
	return nil
}
