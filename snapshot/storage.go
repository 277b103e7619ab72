// SPDX-License-Identifier: Unlicense OR MIT

// Package snapshot implements the snapshot-aware storage of spec.md
// §4.4: a chain of version records wrapping a gap buffer (or a
// replaying-diff buffer), integrated with an ambient MVCC service
// whose contract is summarized in spec.md §5 and implemented
// concretely by package mvcc.
package snapshot

import "go.uber.org/zap"

// Service is the ambient snapshot system spec.md §5 depends on but
// does not implement: a transactional-context manager that resolves,
// for a given Storage, which Record the current logical context
// should read from or write to. Any MVCC transaction manager
// satisfying this contract may be plugged in; package mvcc provides a
// minimal reference implementation.
type Service interface {
	// ResolveReadable returns the record appropriate for the current
	// snapshot context's reads against s.
	ResolveReadable(s *Storage) (*Record, error)
	// ResolveWritable returns a record, private to the current
	// snapshot context, suitable for in-place mutation. It performs
	// the copy-on-write fork described in spec.md §4.4 if needed.
	ResolveWritable(s *Storage) (*Record, error)
}

// Storage is the TextStorage-shaped facade of spec.md §6, built on top
// of a version-record chain instead of a single buffer.
type Storage struct {
	factory Factory
	pool    Pool
	service Service
	logger  *zap.SugaredLogger
}

// Option configures a Storage at construction time.
type Option func(*Storage)

// WithLogger attaches a logger that records each Replace at Debug level.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Storage) { s.logger = l }
}

// NewStorage returns a Storage backed by factory (minted for every
// fresh buffer the pool can't reuse), pool, and the ambient service
// that resolves readable/writable records for it.
func NewStorage(factory Factory, pool Pool, service Service, opts ...Option) *Storage {
	s := &Storage{factory: factory, pool: pool, service: service}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FirstStateRecord returns a fresh root Record for this storage's
// chain — part of the narrow interface spec.md §5 says the core
// exposes for the ambient service to call.
func (s *Storage) FirstStateRecord() *Record {
	return &Record{storage: s}
}

// PrependStateRecord returns a fresh Record chained behind
// predecessor — the other half of that interface, used by the ambient
// service when a new snapshot context is opened against an existing
// chain.
func (s *Storage) PrependStateRecord(predecessor *Record) *Record {
	return &Record{storage: s, predecessor: predecessor}
}

func (s *Storage) Length() (int, error) {
	rec, err := s.service.ResolveReadable(s)
	if err != nil {
		return 0, err
	}
	buf, err := rec.readable()
	if err != nil {
		return 0, err
	}
	return buf.Length(), nil
}

func (s *Storage) Get(i int) (rune, error) {
	rec, err := s.service.ResolveReadable(s)
	if err != nil {
		return 0, err
	}
	buf, err := rec.readable()
	if err != nil {
		return 0, err
	}
	return buf.Get(i)
}

func (s *Storage) GetChars(srcBegin, srcEnd int, dest []rune, destBegin int) error {
	rec, err := s.service.ResolveReadable(s)
	if err != nil {
		return err
	}
	buf, err := rec.readable()
	if err != nil {
		return err
	}
	return buf.GetChars(srcBegin, srcEnd, dest, destBegin)
}

// String renders the current readable record's content as
// `Storage("<contents>")`, per spec.md §6.
func (s *Storage) String() string {
	rec, err := s.service.ResolveReadable(s)
	if err != nil {
		return "Storage(<unresolved>)"
	}
	buf, err := rec.readable()
	if err != nil {
		return "Storage(<unresolved>)"
	}
	return "Storage(\"" + buf.String() + "\")"
}

func (s *Storage) Replace(r Range, source CharSource, replacementRange Range) error {
	rec, err := s.service.ResolveWritable(s)
	if err != nil {
		return err
	}
	buf, err := rec.writable()
	if err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Debugw("snapshot: replace", "start", r.Start, "end", r.End)
	}
	return buf.Replace(r, source, replacementRange)
}
