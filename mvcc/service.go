// SPDX-License-Identifier: Unlicense OR MIT

// Package mvcc is a minimal, self-contained reference implementation
// of the ambient snapshot contract spec.md §5 describes but leaves
// external ("any equivalent MVCC transaction manager satisfies the
// contract"). Design Notes §9 invites exactly this: "a minimal
// re-implementation fits in ~300 lines and is standard MVCC." It lets
// snapshot.Storage be exercised end-to-end without an embedding
// application's own transaction manager.
package mvcc

import (
	"context"
	"errors"
	"sync"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"textbuf.dev/snapshot"
)

// ErrConflict is returned by Context.Apply when the parent this
// context forked from has since been committed into by someone else,
// and the bounded retry budget was spent without the commit target
// settling back to the generation this context expected.
var ErrConflict = errors.New("mvcc: commit conflict: parent moved since this context was opened")

// ErrClosed is returned by Apply on a context already applied or
// discarded.
var ErrClosed = errors.New("mvcc: context already applied or discarded")

// ErrReadOnly is returned by Apply on a context opened read-only.
var ErrReadOnly = errors.New("mvcc: context is read-only")

type chainState struct {
	mu         sync.Mutex
	head       *snapshot.Record
	generation uint64
	// active is the Context currently making a call through its
	// storage, for the duration of that call. This is how Service
	// resolves which record an ambient Storage.Length/Get/Replace call
	// should use without those methods taking a context parameter
	// themselves (spec.md §6's operation table has none) — consistent
	// with spec.md §5's "single-threaded per logical snapshot context"
	// scheduling model: only one call is ever in flight against a
	// given chain at a time.
	active *Context
}

// Service implements snapshot.Service. One Service can drive any
// number of independent snapshot.Storage instances; each gets its own
// chainState and record chain.
type Service struct {
	mu         sync.Mutex
	chains     map[*snapshot.Storage]*chainState
	logger     *zap.SugaredLogger
	maxRetries uint
}

// Option configures a Service at construction time.
type Option func(*Service)

// WithLogger attaches a logger for commit/conflict events.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMaxRetries overrides the default bounded retry count (3) a
// conflicting Apply is attempted before surfacing ErrConflict.
func WithMaxRetries(n uint) Option {
	return func(s *Service) { s.maxRetries = n }
}

// New returns a Service with no storages registered yet.
func New(opts ...Option) *Service {
	s := &Service{chains: make(map[*snapshot.Storage]*chainState), maxRetries: 3}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) chainFor(storage *snapshot.Storage) *chainState {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.chains[storage]
	if !ok {
		cs = &chainState{head: storage.FirstStateRecord()}
		s.chains[storage] = cs
	}
	return cs
}

// ResolveReadable implements snapshot.Service.
func (s *Service) ResolveReadable(storage *snapshot.Storage) (*snapshot.Record, error) {
	cs := s.chainFor(storage)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.active != nil {
		return cs.active.currentRecordLocked(cs), nil
	}
	return cs.head, nil
}

// ResolveWritable implements snapshot.Service.
func (s *Service) ResolveWritable(storage *snapshot.Storage) (*snapshot.Record, error) {
	cs := s.chainFor(storage)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.active == nil {
		// Outside any snapshot: writes promote-or-create a top-level
		// private record in place, per spec.md §4.4's "Concurrent
		// visibility".
		return cs.head, nil
	}
	ctx := cs.active
	if !ctx.mutable {
		return nil, ErrReadOnly
	}
	if ctx.record == nil {
		ctx.record = storage.PrependStateRecord(ctx.parentRecordLocked(cs))
	}
	return ctx.record, nil
}

// retry runs op with a bounded exponential backoff, treating
// ErrConflict as the only retryable failure. It is the home for the
// "may reject or retry" language of spec.md §5.
func (s *Service) retry(op func() error) error {
	_, err := backoff.Retry(context.Background(), func() (struct{}, error) {
		if err := op(); err != nil {
			if errors.Is(err, ErrConflict) {
				return struct{}{}, err
			}
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(s.maxRetries))
	return err
}
