package result

import "fmt"

// Orientation names the FetchScroll directions spec.md §4.9 lists.
type Orientation int

const (
	Next Orientation = iota
	Prior
	First
	Last
	Absolute
	Relative
	Bookmark
)

// Scroll moves the current-row cursor according to orient/offset and
// returns the new raw row index, or -1/RawLen() as the sentinel one-past
// positions spec.md §4.9 requires ("movement past either end stops at a
// sentinel one-past position so that the next Prior/Next returns a valid
// row").
func (r *Result) Scroll(orient Orientation, offset int64) (int, error) {
	if r.Kind == ForwardOnly && orient != Next {
		return 0, fmt.Errorf("result: forward-only cursor does not support orientation %d", orient)
	}

	n := r.RawLen()

	switch orient {
	case Next:
		r.pos = clamp(r.pos+1, -1, n)
	case Prior:
		r.pos = clamp(r.pos-1, -1, n)
	case First:
		r.pos = 0
	case Last:
		r.pos = n - 1
	case Absolute:
		r.pos = clamp(int(offset), -1, n)
	case Relative:
		r.pos = clamp(r.pos+int(offset), -1, n)
	case Bookmark:
		r.pos = clamp(int(offset), -1, n)
	default:
		return 0, fmt.Errorf("result: unknown orientation %d", orient)
	}

	for r.pos >= 0 && r.pos < n && r.deleted.contains(r.pos) {
		if orient == Prior {
			r.pos--
			continue
		}
		r.pos++
	}

	return r.pos, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FetchBlock materializes up to rowsetSize rows starting at the current
// position, advancing it, and returns a per-row status array per
// spec.md §4.9's block fetch rule.
func (r *Result) FetchBlock(rowsetSize int) ([][][]byte, []RowStatus, error) {
	if rowsetSize <= 0 {
		return nil, nil, fmt.Errorf("result: rowsetSize must be positive")
	}

	var rows [][][]byte
	var statuses []RowStatus

	for i := 0; i < rowsetSize; i++ {
		if r.pos < 0 {
			r.pos = 0
		}
		if r.pos >= r.RawLen() {
			statuses = append(statuses, RowNoRow)
			rows = append(rows, nil)
			continue
		}
		if r.deleted.contains(r.pos) {
			statuses = append(statuses, RowDeleted)
			rows = append(rows, nil)
			r.pos++
			continue
		}
		row, err := r.Row(r.pos)
		if err != nil {
			statuses = append(statuses, RowError)
			rows = append(rows, nil)
			r.pos++
			continue
		}
		rows = append(rows, row)
		statuses = append(statuses, RowSuccess)
		r.pos++
	}

	return rows, statuses, nil
}
