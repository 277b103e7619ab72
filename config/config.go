// SPDX-License-Identifier: Unlicense OR MIT

// Package config is the ambient YAML configuration surface an
// application embedding textbuf.dev loads and passes down into
// gapbuffer/snapshot options — the core library itself never reads
// files, environment variables, or a CLI (spec.md §6's "No CLI, no
// environment variables").
package config

import (
	"fmt"
	"os"

	"github.com/c2h5oh/datasize"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"textbuf.dev/gapbuffer"
	"textbuf.dev/marks"
	"textbuf.dev/snapshot"
)

// PoolVariant selects the snapshot.Pool implementation BuildPool wires up.
type PoolVariant string

const (
	PoolUnpooled   PoolVariant = "unpooled"
	PoolSingleSlot PoolVariant = "single-slot"
)

// Config is the top-level configuration structure. Human-sized fields
// use datasize.ByteSize so a YAML document can write "64KiB" instead
// of a raw rune count.
type Config struct {
	// InitialCapacity pre-sizes a fresh buffer's backing array.
	InitialCapacity datasize.ByteSize `yaml:"initial_capacity"`
	// MinimumGap overrides gapbuffer.DefaultMinimumGapLength.
	MinimumGap datasize.ByteSize `yaml:"minimum_gap"`
	// MarkIndexThreshold overrides the mark-count point at which
	// marks.Registry switches from its association-map scan to the
	// llrb-backed ordered index.
	MarkIndexThreshold int `yaml:"mark_index_threshold"`
	// MaxCapacity caps a buffer's backing array; 0 leaves growth
	// unbounded. Exceeding it surfaces gapbuffer.ErrAllocationFailure
	// instead of allocating.
	MaxCapacity datasize.ByteSize `yaml:"max_capacity"`
	// Pool selects the snapshot pool variant.
	Pool PoolVariant `yaml:"pool"`
	// Level is a zap level name ("debug", "info", "warn", "error");
	// empty disables logging.
	Level string `yaml:"log_level"`
}

// Default returns spec.md's defaults: an 8-rune minimum gap, no
// preallocation, the association-map mark threshold marks.Registry
// itself ships with, and the single-slot pool.
func Default() *Config {
	return &Config{
		InitialCapacity:    0,
		MinimumGap:         datasize.ByteSize(gapbuffer.DefaultMinimumGapLength),
		MarkIndexThreshold: 0, // 0 means "use marks.DefaultLargeCountThreshold"
		MaxCapacity:        0, // 0 means unbounded
		Pool:               PoolSingleSlot,
		Level:              "",
	}
}

// Load reads a YAML document at path over Default(), the same
// read-then-unmarshal-over-defaults shape spec.md's ambient stack
// expects from an embedding application.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Logger builds a *zap.SugaredLogger from c.Level, or nil if Level is
// empty (logging disabled entirely, matching gapbuffer/snapshot's own
// "nil logger disables logging" convention).
func (c *Config) Logger() (*zap.SugaredLogger, error) {
	if c.Level == "" {
		return nil, nil
	}
	var level zap.AtomicLevel
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, fmt.Errorf("config: invalid log_level %q: %w", c.Level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("config: build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// GapbufferOptions translates c into gapbuffer.Options for New/
// NewFromString.
func (c *Config) GapbufferOptions() ([]gapbuffer.Option, error) {
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}
	opts := []gapbuffer.Option{gapbuffer.WithMinimumGapLength(int(c.MinimumGap))}
	if c.InitialCapacity > 0 {
		opts = append(opts, gapbuffer.WithInitialCapacity(int(c.InitialCapacity)))
	}
	if c.MaxCapacity > 0 {
		opts = append(opts, gapbuffer.WithMaxCapacity(int(c.MaxCapacity)))
	}
	if logger != nil {
		opts = append(opts, gapbuffer.WithLogger(logger))
	}
	return opts, nil
}

// RegistryOptions translates c into marks.RegistryOptions.
func (c *Config) RegistryOptions() []marks.RegistryOption {
	if c.MarkIndexThreshold <= 0 {
		return nil
	}
	return []marks.RegistryOption{marks.WithLargeCountThreshold(c.MarkIndexThreshold)}
}

// NewMarksBuffer builds an empty *marks.Buffer configured per c.
func (c *Config) NewMarksBuffer() (*marks.Buffer, error) {
	gbOpts, err := c.GapbufferOptions()
	if err != nil {
		return nil, err
	}
	return marks.NewWithRegistryOptions(gbOpts, c.RegistryOptions()), nil
}

// BuildPool builds the snapshot.Pool c selects.
func (c *Config) BuildPool() (snapshot.Pool, error) {
	switch c.Pool {
	case PoolUnpooled:
		return snapshot.UnpooledPool{}, nil
	case PoolSingleSlot, "":
		return &snapshot.SingleSlotPool{}, nil
	default:
		return nil, fmt.Errorf("config: unknown pool variant %q", c.Pool)
	}
}
