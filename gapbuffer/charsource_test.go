// SPDX-License-Identifier: Unlicense OR MIT

package gapbuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferAsCharSource(t *testing.T) {
	src := NewFromString("hello world")
	dst := New()
	require.NoError(t, dst.Replace(Zero, AsCharSource(src), Range{6, 11}))
	assert.Equal(t, "world", dst.String())
}

func TestRuneSource(t *testing.T) {
	b := New()
	require.NoError(t, b.Replace(Zero, RuneSource('x'), Range{0, 1}))
	assert.Equal(t, "x", b.String())
}
