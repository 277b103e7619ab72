// SPDX-License-Identifier: Unlicense OR MIT

// Package marks implements the mark registry described in spec.md §4.3:
// a side-table binding opaque caller-supplied identities to live ranges
// that are kept up to date as the owning buffer is edited.
package marks

import (
	"github.com/biogo/store/llrb"
	"golang.org/x/exp/slices"

	"textbuf.dev/gapbuffer"
)

// Mark is an opaque identity token. Equality is Go's built-in ==, so
// callers that want true handle/identity semantics (the recommendation
// in spec.md §9) should use a pointer or other reference type, not a
// value type whose contents the registry might coincidentally compare
// equal for two logically distinct marks.
type Mark = any

// DefaultLargeCountThreshold is the entry count above which Registry
// builds an ordered index alongside the association map, trading a
// rebuild cost for a sorted early-exit scan in Intersecting, unless
// overridden with WithLargeCountThreshold (config.MarkIndexThreshold
// wires this for an embedding application).
const DefaultLargeCountThreshold = 32

type markEntry struct {
	mark Mark
	rng  gapbuffer.Range
	seq  uint64
}

// orderedKey is the llrb.Comparable wrapping a markEntry for the
// ordered index, sorted by (Start, seq) the way grailbio-bio's
// bampair.ShardInfo sorts by (refID, start).
type orderedKey struct {
	start int
	seq   uint64
	e     *markEntry
}

func (k orderedKey) Compare(c llrb.Comparable) int {
	o := c.(orderedKey)
	if diff := k.start - o.start; diff != 0 {
		return diff
	}
	if k.seq < o.seq {
		return -1
	}
	if k.seq > o.seq {
		return 1
	}
	return 0
}

// Registry holds the live mark set for one buffer. The zero value is
// not usable; construct with NewRegistry.
type Registry struct {
	byMark  map[Mark]*markEntry
	nextSeq uint64

	index      llrb.Tree
	indexBuilt bool

	largeCountThreshold int
}

// RegistryOption configures a Registry at construction time.
type RegistryOption func(*Registry)

// WithLargeCountThreshold overrides DefaultLargeCountThreshold.
func WithLargeCountThreshold(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.largeCountThreshold = n
		}
	}
}

// NewRegistry returns an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{byMark: make(map[Mark]*markEntry), largeCountThreshold: DefaultLargeCountThreshold}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Len reports the number of live marks.
func (r *Registry) Len() int {
	return len(r.byMark)
}

// MarkRange binds newMark to rng, which callers have already resolved
// to absolute buffer coordinates. It fails with DuplicateMark if
// newMark is already registered.
func (r *Registry) MarkRange(rng gapbuffer.Range, newMark Mark) error {
	if _, exists := r.byMark[newMark]; exists {
		return &gapbuffer.Error{Kind: gapbuffer.DuplicateMark, Op: "MarkRange", Msg: "mark already registered"}
	}
	e := &markEntry{mark: newMark, rng: rng, seq: r.nextSeq}
	r.nextSeq++
	r.byMark[newMark] = e
	r.invalidateIndex()
	return nil
}

// Unmark removes mark's entry. It is silent (no error) if mark was
// never registered or already removed, per spec.md §4.3.
func (r *Registry) Unmark(mark Mark) {
	if _, exists := r.byMark[mark]; !exists {
		return
	}
	delete(r.byMark, mark)
	r.invalidateIndex()
}

// RangeFor returns mark's current absolute range.
func (r *Registry) RangeFor(mark Mark) (gapbuffer.Range, error) {
	e, exists := r.byMark[mark]
	if !exists {
		return gapbuffer.Range{}, &gapbuffer.Error{Kind: gapbuffer.UnknownMark, Op: "RangeFor", Msg: "mark not registered"}
	}
	return e.rng, nil
}

// Intersecting enumerates every mark whose absolute range has
// non-empty intersection with query (per gapbuffer.Intersects'
// asymmetric empty-query-as-point rule), invoking fn(mark, absolute
// range) for each. Per spec.md §4.3, fn's non-nil results are
// collected in enumeration order — fn is a filter-map, not a
// predicate, so the result list need not be marks at all.
func (r *Registry) Intersecting(query gapbuffer.Range, fn func(mark Mark, rng gapbuffer.Range) any) []any {
	var out []any
	collect := func(e *markEntry) {
		if gapbuffer.Intersects(query, e.rng) {
			if v := fn(e.mark, e.rng); v != nil {
				out = append(out, v)
			}
		}
	}

	if len(r.byMark) <= r.largeCountThreshold {
		// Association-list path: a plain scan, order made deterministic
		// by insertion sequence for test and caller friendliness even
		// though spec.md §4.3 leaves enumeration order unobserved.
		entries := make([]*markEntry, 0, len(r.byMark))
		for _, e := range r.byMark {
			entries = append(entries, e)
		}
		slices.SortFunc(entries, func(a, b *markEntry) int {
			if a.seq < b.seq {
				return -1
			}
			if a.seq > b.seq {
				return 1
			}
			return 0
		})
		for _, e := range entries {
			collect(e)
		}
		return out
	}

	// Ordered-index path: entries are visited sorted by Start, so once
	// an entry's Start passes the query's End (for a non-empty query) no
	// later entry — all with Start no smaller — can intersect, and the
	// scan can stop early.
	r.rebuildIndexIfNeeded()
	r.index.Do(func(c llrb.Comparable) bool {
		e := c.(orderedKey).e
		if !query.Empty() && e.rng.Start >= query.End {
			return true
		}
		collect(e)
		return false
	})
	return out
}

func (r *Registry) invalidateIndex() {
	r.indexBuilt = false
}

func (r *Registry) rebuildIndexIfNeeded() {
	if r.indexBuilt {
		return
	}
	r.index = llrb.Tree{}
	for _, e := range r.byMark {
		r.index.Insert(orderedKey{start: e.rng.Start, seq: e.seq, e: e})
	}
	r.indexBuilt = true
}

// Update applies the spec.md §4.3 update-on-edit rules to every live
// mark for a replace of [s,e) with k freshly inserted characters.
func (r *Registry) Update(s, e, k int) {
	if len(r.byMark) == 0 {
		return
	}
	shift := k - (e - s)
	for _, entry := range r.byMark {
		entry.rng = updateOne(entry.rng, s, e, k, shift)
	}
	r.invalidateIndex()
}

// updateOne implements the six disjoint cases of spec.md §4.3 for a
// single mark (ms, me) against an edit deleting [s, e) and inserting k
// characters at s. The order mirrors spec.md §4.3's own case list; each
// condition is evaluated only after the earlier ones have failed, and
// together they cover every (ms <= me, s <= e) configuration.
func updateOne(m gapbuffer.Range, s, e, k, shift int) gapbuffer.Range {
	ms, me := m.Start, m.End
	switch {
	case me <= s:
		// Entirely before the edit (and the sticky-outside case of a
		// point mark sitting exactly at an insertion point): unchanged.
		return m
	case ms >= e:
		// Entirely after the edit: shift both endpoints.
		return gapbuffer.Range{Start: ms + shift, End: me + shift}
	case s <= ms && me <= e:
		// Strictly inside the deleted range: collapse, absorbing up to
		// k characters of the insertion rather than auto-unmarking.
		absorbed := k
		if span := me - ms; span < absorbed {
			absorbed = span
		}
		return gapbuffer.Range{Start: s, End: s + absorbed}
	case ms < s && s < me && me <= e:
		// Overlaps the edit's start only: the tail is cut away and the
		// insertion does not grow the mark back.
		return gapbuffer.Range{Start: ms, End: s}
	case s <= ms && ms < e && e < me:
		// Overlaps the edit's end only: the head is cut away, the
		// insertion lands before the surviving suffix.
		return gapbuffer.Range{Start: s + k, End: me + shift}
	default:
		// Contains the edit entirely: the mark grows or shrinks with it.
		return gapbuffer.Range{Start: ms, End: me + shift}
	}
}
