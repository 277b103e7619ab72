// SPDX-License-Identifier: Unlicense OR MIT

package gapbuffer

// Sequence is the narrow capability a *Buffer exposes that higher
// layers (snapshot, replay) build on: everything needed to read,
// mutate, and copy from a buffer without knowing whether it is a
// plain *Buffer or the replaying-diff variant. The marks-aware wrapper
// (package marks) takes an extra sourceMark on Replace and so does not
// satisfy it.
type Sequence interface {
	Length() int
	String() string
	Get(i int) (rune, error)
	GetChars(srcBegin, srcEnd int, dest []rune, destBegin int) error
	Replace(r Range, source CharSource, replacementRange Range) error
	// Source exposes this value's own content as a CharSource, e.g. to
	// copy it wholesale into a fresh buffer during a fork.
	Source() CharSource
}

var _ Sequence = (*Buffer)(nil)
