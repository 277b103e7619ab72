// SPDX-License-Identifier: Unlicense OR MIT

package gapbuffer

// Range is an inclusive-start, exclusive-end index pair. Start == End
// denotes an empty range, i.e. an insertion point.
type Range struct {
	Start, End int
}

// Unspecified is the sentinel meaning "default to the full current
// content" when passed as a query or edit range.
var Unspecified = Range{Start: -1, End: -1}

// Zero is the empty range at the origin.
var Zero = Range{Start: 0, End: 0}

// IsUnspecified reports whether r is the Unspecified sentinel.
func (r Range) IsUnspecified() bool {
	return r == Unspecified
}

// Empty reports whether r spans no characters.
func (r Range) Empty() bool {
	return r.Start == r.End
}

// Len returns the number of characters spanned by r.
func (r Range) Len() int {
	return r.End - r.Start
}

// resolveRange returns r with Unspecified replaced by [0, length), and
// validates the result against length. Any other range must satisfy
// 0 <= Start <= End <= length.
func resolveRange(r Range, length int, op string) (Range, *Error) {
	if r.IsUnspecified() {
		return Range{0, length}, nil
	}
	if r.Start < 0 || r.End < r.Start || r.End > length {
		return Range{}, newError(InvalidRange, op, "range out of bounds")
	}
	return r, nil
}

// Intersects reports whether query and mark overlap, per the
// definition in spec.md §4.3: for a non-empty query, [a,b) and [c,d)
// intersect iff a < d && c < b; an empty query range is treated as a
// point that matches any mark range containing it, i.e.
// mark.Start <= point <= mark.End. This is intentionally asymmetric in
// query vs. mark — only the query side gets point semantics when
// empty.
func Intersects(query, mark Range) bool {
	if query.Empty() {
		point := query.Start
		return mark.Start <= point && point <= mark.End
	}
	return query.Start < mark.End && mark.Start < query.End
}
