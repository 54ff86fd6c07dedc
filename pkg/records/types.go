package records

import (
	"strings"
	"time"
)

// Kind distinguishes the two parallel record collections.
type Kind string

const (
	KindEvent   Kind = "event"
	KindFunding Kind = "funding"
)

// DeadlineType classifies how a funding program's application window behaves.
type DeadlineType string

const (
	DeadlineOneTime DeadlineType = "one-time"
	DeadlineOngoing DeadlineType = "ongoing"
	DeadlineAnnual  DeadlineType = "annual"
	DeadlineClosed  DeadlineType = "closed"
	DeadlineUnknown DeadlineType = ""
)

// Record is the common shape shared by events and funding programs.
// Optional fields are pointers; a nil date with DateParseFailed set means the
// upstream value existed but could not be parsed (the record must still be
// shown, see FromJSON).
type Record struct {
	Kind        Kind      `json:"kind"`
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url,omitempty"`

	// SearchText is the lowercased, HTML-stripped title+description used for
	// free-text matching.
	SearchText string `json:"-"`

	StartDate       *time.Time   `json:"start_date,omitempty"`
	Deadline        *time.Time   `json:"application_deadline,omitempty"`
	DeadlineType    DeadlineType `json:"deadline_type,omitempty"`
	DateRaw         string       `json:"date_raw,omitempty"`
	DateParseFailed bool         `json:"-"`

	Tags      []string            `json:"tags,omitempty"`
	TagGroups map[string][]string `json:"tag_groups,omitempty"`

	Region       string `json:"region,omitempty"`
	FundingType  string `json:"funding_type,omitempty"`
	ProviderType string `json:"provider_type,omitempty"`
	Source       string `json:"source,omitempty"`

	AmountMin  *float64 `json:"amount_min,omitempty"`
	AmountMax  *float64 `json:"amount_max,omitempty"`
	AmountText string   `json:"amount_text,omitempty"`

	Approved bool `json:"approved"`
}

// AnchorDate is the record's temporal anchor: start date for events, the
// application deadline for funding programs. Nil when absent or unparsable.
func (r *Record) AnchorDate() *time.Time {
	if r.Kind == KindEvent {
		return r.StartDate
	}
	return r.Deadline
}

// IsOngoing reports whether the record has no fixed date window to compare
// against (rolling or yearly application deadlines).
func (r *Record) IsOngoing() bool {
	return r.DeadlineType == DeadlineOngoing || r.DeadlineType == DeadlineAnnual
}

// FlatTags returns the union of Tags and all TagGroups values, deduplicated
// case-insensitively. Original casing of the first occurrence is kept.
func (r *Record) FlatTags() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(tag string) {
		key := strings.ToLower(strings.TrimSpace(tag))
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(tag))
	}
	for _, t := range r.Tags {
		add(t)
	}
	for _, group := range r.TagGroups {
		for _, t := range group {
			add(t)
		}
	}
	return out
}

// HasTag checks tag membership case-insensitively over the flattened tag set.
func (r *Record) HasTag(tag string) bool {
	want := strings.ToLower(strings.TrimSpace(tag))
	for _, t := range r.Tags {
		if strings.ToLower(strings.TrimSpace(t)) == want {
			return true
		}
	}
	for _, group := range r.TagGroups {
		for _, t := range group {
			if strings.ToLower(strings.TrimSpace(t)) == want {
				return true
			}
		}
	}
	return false
}

// deadlineTypeMap is the source of truth for deadline type normalization.
// It groups raw upstream values (the CMS stores the German vocabulary) under
// a canonical type.
var deadlineTypeMap = map[DeadlineType][]string{
	DeadlineOneTime: {"one-time", "onetime", "once", "einmalig"},
	DeadlineOngoing: {"ongoing", "rolling", "laufend"},
	DeadlineAnnual:  {"annual", "yearly", "jährlich", "jaehrlich"},
	DeadlineClosed:  {"closed", "geschlossen"},
}

// deadlineLookup is a reverse map generated from deadlineTypeMap.
var deadlineLookup map[string]DeadlineType

func init() {
	deadlineLookup = make(map[string]DeadlineType)
	for canonical, raws := range deadlineTypeMap {
		for _, raw := range raws {
			deadlineLookup[raw] = canonical
		}
	}
}

// NormalizeDeadlineType maps a raw upstream deadline type to its canonical
// form. Unknown values normalize to DeadlineUnknown.
func NormalizeDeadlineType(raw string) DeadlineType {
	if t, ok := deadlineLookup[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t
	}
	return DeadlineUnknown
}

// SuperCategories are the top-level grouping tags driven by a dedicated
// filter control. They are excluded from per-group facet lists to avoid
// showing the same control twice.
var SuperCategories = []string{
	"Engagement",
	"Bildung",
	"Digitales",
	"Umwelt & Klima",
	"Kultur",
	"Soziales",
}

var superCategorySet map[string]bool

func init() {
	superCategorySet = make(map[string]bool, len(SuperCategories))
	for _, s := range SuperCategories {
		superCategorySet[strings.ToLower(s)] = true
	}
}

// IsSuperCategory reports whether tag belongs to the top-level category set.
func IsSuperCategory(tag string) bool {
	return superCategorySet[strings.ToLower(strings.TrimSpace(tag))]
}
