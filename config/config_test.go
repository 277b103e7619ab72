// SPDX-License-Identifier: Unlicense OR MIT

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textbuf.dev/gapbuffer"
	"textbuf.dev/snapshot"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	assert.EqualValues(t, gapbuffer.DefaultMinimumGapLength, cfg.MinimumGap)
	assert.Equal(t, PoolSingleSlot, cfg.Pool)
	assert.Equal(t, "", cfg.Level)
}

func TestLoadOverridesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "textbuf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("minimum_gap: 16\npool: unpooled\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.EqualValues(t, 16, cfg.MinimumGap)
	assert.Equal(t, PoolUnpooled, cfg.Pool)
	// Untouched fields keep their defaults.
	assert.Equal(t, "", cfg.Level)
}

func TestLoadParsesMaxCapacity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "textbuf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_capacity: 1024\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.EqualValues(t, 1024, cfg.MaxCapacity)

	opts, err := cfg.GapbufferOptions()
	require.NoError(t, err)
	buf := gapbuffer.New(opts...)
	assert.ErrorIs(t, buf.Replace(gapbuffer.Zero, gapbuffer.StringSource(string(make([]rune, 2000))), gapbuffer.Range{Start: 0, End: 2000}), gapbuffer.ErrAllocationFailure)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuildPoolVariants(t *testing.T) {
	cfg := Default()
	cfg.Pool = PoolUnpooled
	pool, err := cfg.BuildPool()
	require.NoError(t, err)
	assert.IsType(t, snapshot.UnpooledPool{}, pool)

	cfg.Pool = PoolSingleSlot
	pool, err = cfg.BuildPool()
	require.NoError(t, err)
	assert.IsType(t, &snapshot.SingleSlotPool{}, pool)

	cfg.Pool = "bogus"
	_, err = cfg.BuildPool()
	assert.Error(t, err)
}

func TestNewMarksBufferAppliesGapbufferOptions(t *testing.T) {
	cfg := Default()
	cfg.InitialCapacity = 64
	cfg.MinimumGap = 4
	buf, err := cfg.NewMarksBuffer()
	require.NoError(t, err)
	assert.Equal(t, 0, buf.Length())
}

func TestLoggerDisabledByDefault(t *testing.T) {
	cfg := Default()
	logger, err := cfg.Logger()
	require.NoError(t, err)
	assert.Nil(t, logger)
}

func TestLoggerBuildsFromLevel(t *testing.T) {
	cfg := Default()
	cfg.Level = "debug"
	logger, err := cfg.Logger()
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestLoggerRejectsInvalidLevel(t *testing.T) {
	cfg := Default()
	cfg.Level = "not-a-level"
	_, err := cfg.Logger()
	assert.Error(t, err)
}
