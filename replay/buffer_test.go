// SPDX-License-Identifier: Unlicense OR MIT

package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textbuf.dev/gapbuffer"
)

func mustReplace(t *testing.T, b *ReplayingGapBuffer, r gapbuffer.Range, s string) {
	t.Helper()
	require.NoError(t, b.Replace(r, gapbuffer.StringSource(s), gapbuffer.Range{Start: 0, End: len([]rune(s))}))
}

func TestNoWindowUntilFirstEdit(t *testing.T) {
	b := NewFromString("hello")
	_, _, hasWindow := b.Window()
	assert.False(t, hasWindow)
}

func TestFirstEditOpensWindow(t *testing.T) {
	b := NewFromString("hello world")
	mustReplace(t, b, gapbuffer.Range{Start: 0, End: 5}, "goodbye")

	src, res, hasWindow := b.Window()
	assert.True(t, hasWindow)
	assert.True(t, b.Valid())
	assert.Equal(t, gapbuffer.Range{Start: 0, End: 5}, src)
	assert.Equal(t, gapbuffer.Range{Start: 0, End: 7}, res)
}

func TestAdjacentAppendExtendsWindow(t *testing.T) {
	b := NewFromString("abcdefghij")
	mustReplace(t, b, gapbuffer.Range{Start: 2, End: 4}, "XY") // window: src(2,4) res(2,4)
	mustReplace(t, b, gapbuffer.Range{Start: 4, End: 6}, "Z")  // appended right at res.End

	src, res, hasWindow := b.Window()
	assert.True(t, hasWindow)
	assert.True(t, b.Valid())
	// source grew by the second edit's net effect on the original text
	assert.Equal(t, gapbuffer.Range{Start: 2, End: 6}, src)
	assert.Equal(t, gapbuffer.Range{Start: 2, End: 5}, res)
}

func TestAdjacentPrependExtendsWindowBackward(t *testing.T) {
	b := NewFromString("abcdefghij")
	mustReplace(t, b, gapbuffer.Range{Start: 5, End: 7}, "XY") // window: src(5,7) res(5,7)
	mustReplace(t, b, gapbuffer.Range{Start: 3, End: 5}, "Z")  // ends exactly at res.Start

	src, res, hasWindow := b.Window()
	assert.True(t, hasWindow)
	assert.True(t, b.Valid())
	assert.Equal(t, gapbuffer.Range{Start: 3, End: 7}, src)
	assert.Equal(t, gapbuffer.Range{Start: 3, End: 6}, res)
}

func TestNonAdjacentEditInvalidatesWindow(t *testing.T) {
	b := NewFromString("abcdefghij")
	mustReplace(t, b, gapbuffer.Range{Start: 2, End: 4}, "XY")
	assert.True(t, b.Valid())

	mustReplace(t, b, gapbuffer.Range{Start: 8, End: 9}, "Z") // far away: gap
	assert.False(t, b.Valid())

	// A further edit while invalid just applies, no window bookkeeping.
	mustReplace(t, b, gapbuffer.Range{Start: 0, End: 1}, "Q")
	assert.False(t, b.Valid())
}

func TestSyncToFullCopyWhenNoSiblingRelationship(t *testing.T) {
	parent := NewFromString("hello world")
	child := New()
	require.NoError(t, child.SyncTo(parent))
	assert.Equal(t, parent.String(), child.String())
	_, _, hasWindow := child.Window()
	assert.False(t, hasWindow)
}

// TestSyncToReplaysSiblingWindow exercises the ping-pong fork pattern:
// child forks from parent (full copy, recording the fork lineage),
// child is edited, then parent is synced back from child — this
// should replay child's diff window instead of copying its whole
// content, and reproduce child's exact content in parent.
func TestSyncToReplaysSiblingWindow(t *testing.T) {
	parent := NewFromString("the quick brown fox")
	child := New()
	require.NoError(t, child.SyncTo(parent)) // full copy; child.forkedFrom = parent

	mustReplace(t, child, gapbuffer.Range{Start: 4, End: 9}, "slow")
	assert.Equal(t, "the slow brown fox", child.String())
	assert.True(t, child.Valid())

	require.NoError(t, parent.SyncTo(child)) // child.forkedFrom == parent: replay path
	assert.Equal(t, "the slow brown fox", parent.String())
}

func TestInvariant6ReplayMatchesFullCopy(t *testing.T) {
	base := "0123456789"
	parentReplay := NewFromString(base)
	childReplay := New()
	require.NoError(t, childReplay.SyncTo(parentReplay))
	mustReplace(t, childReplay, gapbuffer.Range{Start: 3, End: 6}, "xyz!")

	// Reference: a from-scratch buffer fed the same source content and
	// edit, i.e. a full copy followed by the identical edit.
	reference := NewFromString(base)
	mustReplace(t, reference, gapbuffer.Range{Start: 3, End: 6}, "xyz!")

	assert.Equal(t, reference.String(), childReplay.String())

	// parentReplay is childReplay's fork source, so this sync replays
	// childReplay's window instead of copying its whole content.
	require.NoError(t, parentReplay.SyncTo(childReplay))
	assert.Equal(t, reference.String(), parentReplay.String())
}
