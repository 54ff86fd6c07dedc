package filter

import (
	"testing"
	"time"

	"github.com/stadtimpuls/kompass/pkg/horizon"
	"github.com/stadtimpuls/kompass/pkg/records"
)

// now is a Wednesday.
var now = time.Date(2026, time.January, 7, 10, 30, 0, 0, time.Local)

func day(offset int) *time.Time {
	d := time.Date(2026, time.January, 7, 0, 0, 0, 0, time.Local).AddDate(0, 0, offset)
	return &d
}

func event(date *time.Time, tags ...string) *records.Record {
	return &records.Record{
		Kind:      records.KindEvent,
		ID:        "e1",
		Title:     "Repair Café",
		StartDate: date,
		Tags:      tags,
		Approved:  true,
		SearchText: records.SearchText("Repair Café",
			"<p>Offene Werkstatt für <b>alle</b></p>"),
	}
}

func program(deadline *time.Time, dt records.DeadlineType) *records.Record {
	return &records.Record{
		Kind:         records.KindFunding,
		ID:           "f1",
		Title:        "Mikroförderung",
		Deadline:     deadline,
		DeadlineType: dt,
		Approved:     true,
	}
}

func amt(v float64) *float64 { return &v }

func TestTagANDMatch(t *testing.T) {
	rec := event(day(1), "A", "B", "C")

	if !TagsMatch(rec, []string{"A", "B"}) {
		t.Error("selection {A,B} must match record tags {A,B,C}")
	}
	if TagsMatch(rec, []string{"A", "D"}) {
		t.Error("selection {A,D} must not match record tags {A,B,C}")
	}
	if !TagsMatch(rec, nil) {
		t.Error("empty selection must match unconditionally")
	}
	if !TagsMatch(rec, []string{"a", "b"}) {
		t.Error("tag matching must be case-insensitive")
	}
	if TagsMatch(event(day(1)), []string{"A"}) {
		t.Error("record without tags must fail any non-empty selection")
	}
}

func TestTagMatchSpansTagGroups(t *testing.T) {
	rec := event(day(1), "KI")
	rec.TagGroups = map[string][]string{"targetGroup": {"Vereine"}}

	if !Matches(rec, Criteria{Tags: []string{"vereine"}}, now) {
		t.Error("tags inside tag groups must count for the AND-match")
	}
}

func TestNonPastCheck(t *testing.T) {
	if Matches(event(day(-1)), Criteria{}, now) {
		t.Error("yesterday's event must be excluded by default")
	}
	if !Matches(event(day(0)), Criteria{}, now) {
		t.Error("today's event must pass")
	}

	past := day(-30)
	if Matches(program(past, records.DeadlineOneTime), Criteria{}, now) {
		t.Error("funding with expired one-time deadline must be excluded")
	}
	if !Matches(program(past, records.DeadlineOngoing), Criteria{}, now) {
		t.Error("ongoing funding never expires via its deadline")
	}
}

func TestUnparsableDateStaysVisible(t *testing.T) {
	rec := event(nil)
	rec.DateRaw = "am nächsten Dienstag"
	rec.DateParseFailed = true

	if !Matches(rec, Criteria{}, now) {
		t.Error("record with unparsable date must pass the default filter")
	}
	if !Matches(rec, Criteria{Horizon: horizon.ThisWeek}, now) {
		t.Error("record with unparsable date must pass a concrete horizon")
	}
}

func TestHorizonOngoingSentinel(t *testing.T) {
	ongoing := program(day(3), records.DeadlineOngoing)
	oneTime := program(day(3), records.DeadlineOneTime)

	if !Matches(ongoing, Criteria{Horizon: horizon.Ongoing}, now) {
		t.Error("ongoing program must match the ongoing horizon")
	}
	if Matches(oneTime, Criteria{Horizon: horizon.Ongoing}, now) {
		t.Error("one-time program must not match the ongoing horizon")
	}
	// Ongoing records have no fixed interval: concrete horizons exclude them
	// even when a deadline value is present.
	if Matches(ongoing, Criteria{Horizon: horizon.ThisWeek}, now) {
		t.Error("ongoing program must not match a concrete horizon")
	}
	if !Matches(oneTime, Criteria{Horizon: horizon.ThisWeek}, now) {
		t.Error("one-time program inside the window must match")
	}
}

func TestHorizonInterval(t *testing.T) {
	if Matches(event(day(10)), Criteria{Horizon: horizon.ThisWeek}, now) {
		t.Error("event after this week must not match thisWeek")
	}
	if !Matches(event(day(4)), Criteria{Horizon: horizon.ThisWeek}, now) {
		t.Error("Sunday event must match thisWeek from a Wednesday anchor")
	}
	if !Matches(event(day(10)), Criteria{Horizon: horizon.All}, now) {
		t.Error("all horizon must not constrain")
	}
}

func TestAmountBands(t *testing.T) {
	cases := []struct {
		min, max *float64
		band     AmountBand
		want     bool
	}{
		// midpoint exactly 10000 is medium, not small
		{amt(10000), amt(10000), BandMedium, true},
		{amt(10000), amt(10000), BandSmall, false},
		{amt(9999), amt(9999), BandSmall, true},
		// midpoint exactly 50000 is still medium
		{amt(50000), amt(50000), BandMedium, true},
		{amt(50000), amt(50000), BandLarge, false},
		// midpoint exactly 100000 is large, not xlarge
		{amt(100000), amt(100000), BandLarge, true},
		{amt(100000), amt(100000), BandXLarge, false},
		{amt(100001), amt(100001), BandXLarge, true},
		// only max: midpoint is half of it
		{nil, amt(30000), BandMedium, true},
		// only min: midpoint is min itself
		{amt(60000), nil, BandLarge, true},
		// no amounts at all: never excluded
		{nil, nil, BandSmall, true},
		{nil, nil, BandXLarge, true},
	}

	for i, c := range cases {
		rec := program(day(30), records.DeadlineOneTime)
		rec.AmountMin, rec.AmountMax = c.min, c.max
		got := Matches(rec, Criteria{Amount: c.band}, now)
		if got != c.want {
			t.Errorf("case %d (band %s): got %v, want %v", i, c.band, got, c.want)
		}
	}
}

func TestSingleValueFields(t *testing.T) {
	rec := program(day(30), records.DeadlineOneTime)
	rec.Region = "Sachsen"
	rec.FundingType = "Zuschuss"
	rec.ProviderType = "Stiftung"
	rec.Source = "foerderdatenbank.de"

	if !Matches(rec, Criteria{Region: "Sachsen", FundingType: "Zuschuss"}, now) {
		t.Error("matching single-value fields must pass")
	}
	if Matches(rec, Criteria{Region: "Bayern"}, now) {
		t.Error("mismatching region must exclude")
	}
	if Matches(rec, Criteria{Source: "example.org"}, now) {
		t.Error("mismatching source must exclude")
	}
}

func TestProviderContainment(t *testing.T) {
	rec := program(day(30), records.DeadlineOneTime)
	rec.TagGroups = map[string][]string{"provider": {"Aktion Mensch"}}

	if !Matches(rec, Criteria{Provider: "aktion mensch"}, now) {
		t.Error("provider group containing the filter must pass")
	}
	if Matches(rec, Criteria{Provider: "DSEE"}, now) {
		t.Error("provider group without the filter must exclude")
	}

	noGroup := program(day(30), records.DeadlineOneTime)
	if Matches(noGroup, Criteria{Provider: "DSEE"}, now) {
		t.Error("missing provider group must exclude when the filter is set")
	}
}

func TestFreeTextSearch(t *testing.T) {
	rec := event(day(1))

	if !Matches(rec, Criteria{Search: "repair"}, now) {
		t.Error("case-insensitive title substring must match")
	}
	if !Matches(rec, Criteria{Search: "werkstatt"}, now) {
		t.Error("description substring must match")
	}
	if Matches(rec, Criteria{Search: "<b>"}, now) {
		t.Error("markup must not be searchable")
	}
	if Matches(rec, Criteria{Search: "stammtisch"}, now) {
		t.Error("absent term must exclude")
	}
}

func TestMatchesIsIdempotent(t *testing.T) {
	rec := event(day(2), "A", "B")
	c := Criteria{Tags: []string{"a"}, Horizon: horizon.ThisWeek, Search: "repair"}

	first := Matches(rec, c, now)
	second := Matches(rec, c, now)
	if first != second {
		t.Fatalf("identical inputs gave different results: %v then %v", first, second)
	}
	if len(rec.Tags) != 2 || len(c.Tags) != 1 {
		t.Error("evaluation must not mutate record or criteria")
	}
}

func TestApplyPreservesOrder(t *testing.T) {
	recs := []records.Record{*event(day(1), "A"), *event(day(2), "B"), *event(day(3), "A")}
	got := Apply(recs, Criteria{Tags: []string{"A"}}, now)
	if len(got) != 2 || !got[0].StartDate.Before(*got[1].StartDate) {
		t.Fatalf("expected the two A-tagged records in input order, got %d", len(got))
	}
}

func TestReset(t *testing.T) {
	c := Criteria{Tags: []string{"A"}, Region: "Sachsen", Horizon: horizon.ThisWeek}
	c.Reset()
	if c.Tags != nil || c.Region != "" || c.Horizon != "" {
		t.Error("reset must restore all-empty defaults")
	}
}

func TestParseAmountBand(t *testing.T) {
	if _, ok := ParseAmountBand("medium"); !ok {
		t.Error("medium must parse")
	}
	if _, ok := ParseAmountBand("huge"); ok {
		t.Error("huge must not parse")
	}
	if band, ok := ParseAmountBand(""); !ok || band != BandAny {
		t.Error("empty band means no constraint")
	}
}
