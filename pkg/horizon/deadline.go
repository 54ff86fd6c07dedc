package horizon

import (
	"time"

	"github.com/stadtimpuls/kompass/pkg/records"
)

// Tier is a funding program's application urgency, used for visual encoding.
type Tier string

const (
	TierOngoing Tier = "ONGOING"
	TierUrgent  Tier = "URGENT"
	TierNormal  Tier = "NORMAL"
	TierFar     Tier = "FAR"
	TierNone    Tier = "NONE"
)

// Classify maps a record's deadline metadata to an urgency tier. The distance
// is a calendar-month difference that ignores the day of month: a deadline on
// the 1st of the month three months out is as urgent as one on the 31st.
func Classify(r *records.Record, now time.Time) Tier {
	if r.IsOngoing() {
		return TierOngoing
	}
	if r.Deadline == nil || r.DeadlineType == records.DeadlineClosed {
		return TierNone
	}

	d := *r.Deadline
	monthsUntil := (d.Year()-now.Year())*12 + int(d.Month()) - int(now.Month())

	switch {
	case monthsUntil <= 3:
		return TierUrgent
	case monthsUntil <= 10:
		return TierNormal
	default:
		return TierFar
	}
}
