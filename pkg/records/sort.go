package records

import "sort"

// Approved returns only the approved records. Every consumer surface applies
// this before showing anything, even when the records came from a source that
// already filtered on approval, so a stale or hand-edited store can never
// leak an unapproved record.
func Approved(recs []Record) []Record {
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		if r.Approved {
			out = append(out, r)
		}
	}
	return out
}

// SortByAnchorDesc orders records by anchor date descending, dateless records
// last. Ties keep input order (stable sort); there is no secondary key for
// identical dates.
func SortByAnchorDesc(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i].AnchorDate(), recs[j].AnchorDate()
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}
