// Package filter evaluates user-selected criteria against records. All
// functions are pure: same record and criteria always give the same answer,
// and nothing is mutated.
package filter

import (
	"strings"
	"time"

	"github.com/stadtimpuls/kompass/internal/utils"
	"github.com/stadtimpuls/kompass/pkg/horizon"
	"github.com/stadtimpuls/kompass/pkg/records"
)

// AmountBand buckets funding amounts by the midpoint of their min/max range.
type AmountBand string

const (
	BandAny    AmountBand = ""
	BandSmall  AmountBand = "small"  // midpoint < 10k
	BandMedium AmountBand = "medium" // 10k <= midpoint <= 50k
	BandLarge  AmountBand = "large"  // 50k < midpoint <= 100k
	BandXLarge AmountBand = "xlarge" // midpoint > 100k
)

// ParseAmountBand validates a raw band string. The empty string is the valid
// "no constraint" band.
func ParseAmountBand(s string) (AmountBand, bool) {
	switch AmountBand(s) {
	case BandAny, BandSmall, BandMedium, BandLarge, BandXLarge:
		return AmountBand(s), true
	}
	return BandAny, false
}

// Criteria is the active filter state. Every zero-valued field means
// "unconstrained"; the zero Criteria matches all non-past records.
type Criteria struct {
	Tags         []string
	Region       string
	FundingType  string
	ProviderType string
	Provider     string
	Source       string
	Horizon      horizon.Token
	Amount       AmountBand
	Search       string
}

// Reset restores all-empty defaults.
func (c *Criteria) Reset() {
	*c = Criteria{}
}

// Matches evaluates the full short-circuiting AND of all checks.
func Matches(r *records.Record, c Criteria, now time.Time) bool {
	return MatchesExceptTags(r, c, now) && TagsMatch(r, c.Tags)
}

// MatchesExceptTags evaluates every check except the tag AND-match. The facet
// calculator uses this to build its candidate set: facets must reflect the
// horizon/field-filtered records, not the tag-narrowed ones, or selecting a
// tag would collapse the counts of everything it co-occurs with.
func MatchesExceptTags(r *records.Record, c Criteria, now time.Time) bool {
	if isPast(r, now) {
		return false
	}

	if c.Region != "" && r.Region != c.Region {
		return false
	}
	if c.FundingType != "" && r.FundingType != c.FundingType {
		return false
	}
	if c.ProviderType != "" && r.ProviderType != c.ProviderType {
		return false
	}
	if c.Source != "" && r.Source != c.Source {
		return false
	}

	if c.Provider != "" {
		providers, ok := r.TagGroups["provider"]
		if !ok || !utils.ContainsFold(providers, c.Provider) {
			return false
		}
	}

	if !amountMatches(r, c.Amount) {
		return false
	}

	if !horizonMatches(r, c.Horizon, now) {
		return false
	}

	if c.Search != "" && !strings.Contains(r.SearchText, strings.ToLower(c.Search)) {
		return false
	}

	return true
}

// TagsMatch requires every selected tag to be present (case-insensitively) in
// the record's flattened tag set. An empty selection always passes; a record
// without tags fails any non-empty selection.
func TagsMatch(r *records.Record, selected []string) bool {
	for _, tag := range selected {
		if !r.HasTag(tag) {
			return false
		}
	}
	return true
}

// isPast excludes records whose day has already gone by. Ongoing and annual
// funding programs never expire this way, and records whose date failed to
// parse stay visible.
func isPast(r *records.Record, now time.Time) bool {
	if r.Kind == records.KindFunding && r.IsOngoing() {
		return false
	}
	anchor := r.AnchorDate()
	if anchor == nil {
		return false
	}
	return horizon.Midnight(*anchor).Before(horizon.Midnight(now))
}

func horizonMatches(r *records.Record, tok horizon.Token, now time.Time) bool {
	if tok == "" || tok == horizon.All {
		return true
	}
	w := horizon.Resolve(tok, now)
	if w.Unbounded {
		return true
	}
	if w.Ongoing {
		return r.IsOngoing()
	}
	// Concrete interval: ongoing/annual records have no fixed date to compare
	// and are excluded here; they only ever match the ongoing horizon.
	if r.IsOngoing() {
		return false
	}
	anchor := r.AnchorDate()
	if anchor == nil {
		// An unparsable upstream date must not hide the record.
		return r.DateParseFailed
	}
	return w.Contains(*anchor)
}

// amountMatches applies the amount-band check. Records without any numeric
// amount are treated as unknown and included permissively.
func amountMatches(r *records.Record, band AmountBand) bool {
	if band == BandAny {
		return true
	}
	mid, ok := amountMidpoint(r)
	if !ok {
		return true
	}
	switch band {
	case BandSmall:
		return mid < 10000
	case BandMedium:
		return mid >= 10000 && mid <= 50000
	case BandLarge:
		return mid > 50000 && mid <= 100000
	case BandXLarge:
		return mid > 100000
	}
	return true
}

func amountMidpoint(r *records.Record) (float64, bool) {
	switch {
	case r.AmountMax != nil:
		min := 0.0
		if r.AmountMin != nil {
			min = *r.AmountMin
		}
		return (min + *r.AmountMax) / 2, true
	case r.AmountMin != nil:
		return *r.AmountMin, true
	default:
		return 0, false
	}
}

// Apply filters and returns the records matching c, preserving input order.
func Apply(recs []records.Record, c Criteria, now time.Time) []records.Record {
	out := make([]records.Record, 0, len(recs))
	for i := range recs {
		if Matches(&recs[i], c, now) {
			out = append(out, recs[i])
		}
	}
	return out
}
