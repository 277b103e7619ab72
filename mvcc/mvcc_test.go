// SPDX-License-Identifier: Unlicense OR MIT

package mvcc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textbuf.dev/gapbuffer"
	"textbuf.dev/snapshot"
)

func newGapFactory() snapshot.Factory {
	return func() snapshot.Buffer { return gapbuffer.New() }
}

func mustReplace(t *testing.T, replacer interface {
	Replace(r gapbuffer.Range, source gapbuffer.CharSource, replacementRange gapbuffer.Range) error
}, r gapbuffer.Range, s string) {
	t.Helper()
	runes := []rune(s)
	require.NoError(t, replacer.Replace(r, gapbuffer.StringSource(s), gapbuffer.Range{Start: 0, End: len(runes)}))
}

func TestTopLevelApplyCommitsToChainHead(t *testing.T) {
	svc := New()
	storage := snapshot.NewStorage(newGapFactory(), &snapshot.SingleSlotPool{}, svc)

	ctx := svc.Begin(storage, nil, true)
	mustReplace(t, ctx, gapbuffer.Zero, "hello")
	require.NoError(t, ctx.Apply())

	length, err := storage.Length()
	require.NoError(t, err)
	assert.Equal(t, 5, length)
	assert.Equal(t, "Storage(\"hello\")", storage.String())
}

func TestTopLevelDiscardLeavesHeadUntouched(t *testing.T) {
	svc := New()
	storage := snapshot.NewStorage(newGapFactory(), &snapshot.SingleSlotPool{}, svc)

	seed := svc.Begin(storage, nil, true)
	mustReplace(t, seed, gapbuffer.Zero, "foobar")
	require.NoError(t, seed.Apply())

	ctx := svc.Begin(storage, nil, true)
	mustReplace(t, ctx, gapbuffer.Range{Start: 1, End: 5}, "baz")
	length, err := ctx.Length()
	require.NoError(t, err)
	assert.Equal(t, 5, length)

	ctx.Discard()

	length, err = storage.Length()
	require.NoError(t, err)
	assert.Equal(t, 6, length)
}

func TestNestedContextSeesParentPendingEdits(t *testing.T) {
	svc := New()
	storage := snapshot.NewStorage(newGapFactory(), &snapshot.SingleSlotPool{}, svc)

	parent := svc.Begin(storage, nil, true)
	mustReplace(t, parent, gapbuffer.Zero, "parent")

	child := svc.Begin(storage, parent, false)
	assert.Equal(t, "Storage(\"parent\")", child.String())
	length, err := child.Length()
	require.NoError(t, err)
	assert.Equal(t, len("parent"), length)
}

func TestSiblingContextsDoNotObserveEachOther(t *testing.T) {
	svc := New()
	storage := snapshot.NewStorage(newGapFactory(), &snapshot.SingleSlotPool{}, svc)

	seed := svc.Begin(storage, nil, true)
	mustReplace(t, seed, gapbuffer.Zero, "base")
	require.NoError(t, seed.Apply())

	a := svc.Begin(storage, nil, true)
	mustReplace(t, a, gapbuffer.Range{Start: 0, End: 0}, "A-")

	b := svc.Begin(storage, nil, false)
	length, err := b.Length()
	require.NoError(t, err)
	assert.Equal(t, len("base"), length, "sibling must not see a's uncommitted edit")

	require.NoError(t, a.Apply())

	length, err = storage.Length()
	require.NoError(t, err)
	assert.Equal(t, len("A-base"), length)
}

func TestNestedApplyPropagatesOnlyToParentNotHead(t *testing.T) {
	svc := New()
	storage := snapshot.NewStorage(newGapFactory(), &snapshot.SingleSlotPool{}, svc)

	seed := svc.Begin(storage, nil, true)
	mustReplace(t, seed, gapbuffer.Zero, "root")
	require.NoError(t, seed.Apply())

	parent := svc.Begin(storage, nil, true)
	child := svc.Begin(storage, parent, true)
	mustReplace(t, child, gapbuffer.Range{Start: 0, End: 0}, "child-")
	require.NoError(t, child.Apply())

	length, err := storage.Length()
	require.NoError(t, err)
	assert.Equal(t, len("root"), length, "head must be untouched until parent itself applies")

	length, err = parent.Length()
	require.NoError(t, err)
	assert.Equal(t, len("child-root"), length)

	require.NoError(t, parent.Apply())
	length, err = storage.Length()
	require.NoError(t, err)
	assert.Equal(t, len("child-root"), length)
}

func TestApplyOnReadOnlyContextFails(t *testing.T) {
	svc := New()
	storage := snapshot.NewStorage(newGapFactory(), &snapshot.SingleSlotPool{}, svc)
	ctx := svc.Begin(storage, nil, false)
	assert.ErrorIs(t, ctx.Apply(), ErrReadOnly)
}

func TestApplyTwiceFails(t *testing.T) {
	svc := New()
	storage := snapshot.NewStorage(newGapFactory(), &snapshot.SingleSlotPool{}, svc)
	ctx := svc.Begin(storage, nil, true)
	mustReplace(t, ctx, gapbuffer.Zero, "x")
	require.NoError(t, ctx.Apply())
	assert.ErrorIs(t, ctx.Apply(), ErrClosed)
}

func TestConcurrentTopLevelCommitConflictSurfacesAfterRetries(t *testing.T) {
	svc := New(WithMaxRetries(2))
	storage := snapshot.NewStorage(newGapFactory(), &snapshot.SingleSlotPool{}, svc)

	a := svc.Begin(storage, nil, true)
	mustReplace(t, a, gapbuffer.Zero, "a-wins")

	b := svc.Begin(storage, nil, true)
	mustReplace(t, b, gapbuffer.Zero, "b-loses")

	require.NoError(t, a.Apply())
	assert.ErrorIs(t, b.Apply(), ErrConflict)

	length, err := storage.Length()
	require.NoError(t, err)
	assert.Equal(t, len("a-wins"), length)
}
