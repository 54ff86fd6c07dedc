// Package facets derives tag-frequency summaries that drive the filter
// controls. Facets are computed from the candidate set that passed every
// filter check except the tag AND-match, so already-selected tags keep their
// co-occurring neighbours visible.
package facets

import (
	"sort"
	"strings"

	"github.com/stadtimpuls/kompass/pkg/records"
)

// TopLimit caps the ungrouped top-tag list.
const TopLimit = 15

// TagCount is one facet entry.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Facets holds the derived, read-only tag summaries for one candidate set.
type Facets struct {
	// Groups maps each tag group to its facet list, sorted ascending by label.
	Groups map[string][]TagCount `json:"groups"`
	// Top is the ungrouped list sorted by frequency, truncated to TopLimit.
	Top []TagCount `json:"top"`
	// Super lists the top-level category tags, tracked separately from the
	// per-group lists because they back a dedicated filter control.
	Super []TagCount `json:"super"`
	// Candidates is the size of the input set the cutoff was derived from.
	Candidates int `json:"candidates"`
	// Cutoff is the minimum occurrence count applied to Groups and Top.
	Cutoff int `json:"cutoff"`
}

// MinCount is the adaptive minimum-frequency cutoff: large candidate sets
// suppress rare tags harder so the controls stay readable, small sets show
// everything.
func MinCount(n int) int {
	switch {
	case n >= 100:
		return 5
	case n >= 50:
		return 3
	case n >= 20:
		return 2
	default:
		return 1
	}
}

// Compute counts tag occurrences over the candidate set. Tags are counted at
// most once per record (per group for the grouped lists, per record for the
// flat ones), case-insensitively, keeping the first-seen label.
func Compute(candidates []records.Record) Facets {
	f := Facets{
		Groups:     make(map[string][]TagCount),
		Candidates: len(candidates),
		Cutoff:     MinCount(len(candidates)),
	}

	groupCounts := make(map[string]map[string]int)
	labels := make(map[string]string)
	topCounts := make(map[string]int)
	superCounts := make(map[string]int)

	remember := func(tag string) string {
		key := strings.ToLower(strings.TrimSpace(tag))
		if _, ok := labels[key]; !ok {
			labels[key] = strings.TrimSpace(tag)
		}
		return key
	}

	for i := range candidates {
		r := &candidates[i]

		for group, tags := range r.TagGroups {
			seen := make(map[string]bool)
			for _, tag := range tags {
				key := remember(tag)
				if key == "" || seen[key] {
					continue
				}
				seen[key] = true
				if records.IsSuperCategory(tag) {
					continue
				}
				if groupCounts[group] == nil {
					groupCounts[group] = make(map[string]int)
				}
				groupCounts[group][key]++
			}
		}

		// FlatTags dedupes across Tags and all groups, so each record
		// contributes at most one count per tag here.
		for _, tag := range r.FlatTags() {
			key := remember(tag)
			if records.IsSuperCategory(tag) {
				superCounts[key]++
				continue
			}
			topCounts[key]++
		}
	}

	for group, counts := range groupCounts {
		var list []TagCount
		for key, count := range counts {
			if count < f.Cutoff {
				continue
			}
			list = append(list, TagCount{Tag: labels[key], Count: count})
		}
		if len(list) == 0 {
			continue
		}
		sort.Slice(list, func(i, j int) bool {
			return strings.ToLower(list[i].Tag) < strings.ToLower(list[j].Tag)
		})
		f.Groups[group] = list
	}

	for key, count := range topCounts {
		if count < f.Cutoff {
			continue
		}
		f.Top = append(f.Top, TagCount{Tag: labels[key], Count: count})
	}
	sort.Slice(f.Top, func(i, j int) bool {
		if f.Top[i].Count != f.Top[j].Count {
			return f.Top[i].Count > f.Top[j].Count
		}
		return strings.ToLower(f.Top[i].Tag) < strings.ToLower(f.Top[j].Tag)
	})
	if len(f.Top) > TopLimit {
		f.Top = f.Top[:TopLimit]
	}

	// The super-category set is small and backs its own control, so it is
	// reported in full, without the adaptive cutoff.
	for key, count := range superCounts {
		f.Super = append(f.Super, TagCount{Tag: labels[key], Count: count})
	}
	sort.Slice(f.Super, func(i, j int) bool {
		if f.Super[i].Count != f.Super[j].Count {
			return f.Super[i].Count > f.Super[j].Count
		}
		return strings.ToLower(f.Super[i].Tag) < strings.ToLower(f.Super[j].Tag)
	})

	return f
}
