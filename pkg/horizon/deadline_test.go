package horizon

import (
	"testing"
	"time"

	"github.com/stadtimpuls/kompass/pkg/records"
)

func funding(deadline *time.Time, dt records.DeadlineType) *records.Record {
	return &records.Record{Kind: records.KindFunding, Deadline: deadline, DeadlineType: dt}
}

func TestClassify(t *testing.T) {
	now := day(2026, time.January, 15)
	far := day(2027, time.June, 1)

	cases := []struct {
		name string
		rec  *records.Record
		want Tier
	}{
		{"ongoing", funding(nil, records.DeadlineOngoing), TierOngoing},
		{"annual with far deadline", funding(&far, records.DeadlineAnnual), TierOngoing},
		{"no deadline", funding(nil, records.DeadlineOneTime), TierNone},
		{"closed", funding(&far, records.DeadlineClosed), TierNone},
	}
	for _, c := range cases {
		if got := Classify(c.rec, now); got != c.want {
			t.Errorf("%s: got %s, want %s", c.name, got, c.want)
		}
	}
}

func TestClassifyMonthBoundaries(t *testing.T) {
	now := day(2026, time.January, 15)

	cases := []struct {
		deadline time.Time
		want     Tier
	}{
		// The month difference ignores the day: April 30 is still 3 months out.
		{day(2026, time.April, 30), TierUrgent},
		{day(2026, time.May, 1), TierNormal},
		{day(2026, time.November, 30), TierNormal}, // exactly 10 months
		{day(2026, time.December, 1), TierFar},
		{day(2026, time.January, 2), TierUrgent}, // already passed counts as urgent
	}
	for _, c := range cases {
		d := c.deadline
		if got := Classify(funding(&d, records.DeadlineOneTime), now); got != c.want {
			t.Errorf("deadline %s: got %s, want %s", d.Format("2006-01-02"), got, c.want)
		}
	}
}
