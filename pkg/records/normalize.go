package records

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
	"github.com/weppos/publicsuffix-go/publicsuffix"

	"github.com/stadtimpuls/kompass/internal/utils"
)

// dateLayouts are tried in order when parsing upstream date strings.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// FromJSON normalizes one raw CMS item into the canonical Record shape.
// Normalization is deliberately permissive: malformed optional fields are
// logged and left empty so that data-quality defects upstream never hide a
// record from consumers. Only a missing id makes an item unusable.
func FromJSON(kind Kind, item gjson.Result) (Record, bool) {
	id := item.Get("id").String()
	if id == "" {
		utils.Log.Warn("Skipping record without id")
		return Record{}, false
	}

	r := Record{
		Kind:        kind,
		ID:          id,
		Title:       item.Get("title").String(),
		Description: item.Get("description").String(),
		URL:         item.Get("url").String(),
		Approved:    item.Get("approved").Bool(),
	}
	r.SearchText = SearchText(r.Title, r.Description)

	switch kind {
	case KindEvent:
		raw := item.Get("start_date").String()
		if raw == "" {
			raw = item.Get("date").String()
		}
		r.DateRaw = raw
		r.StartDate = parseDate(id, raw, &r.DateParseFailed)
	case KindFunding:
		raw := item.Get("application_deadline").String()
		r.DateRaw = raw
		r.Deadline = parseDate(id, raw, &r.DateParseFailed)
		r.DeadlineType = NormalizeDeadlineType(item.Get("deadline_type").String())
	}

	r.Tags = stringList(item.Get("tags"))
	r.TagGroups = tagGroups(id, item.Get("tag_groups"))

	r.Region = item.Get("region").String()
	r.FundingType = item.Get("funding_type").String()
	r.ProviderType = item.Get("funding_provider_type").String()
	if r.ProviderType == "" {
		r.ProviderType = item.Get("provider_type").String()
	}
	r.Source = item.Get("source").String()
	if r.Source == "" && r.URL != "" {
		if domain, ok := SourceDomain(r.URL); ok {
			r.Source = domain
		}
	}

	if v := item.Get("funding_amount_min"); v.Exists() && v.Type == gjson.Number {
		f := v.Float()
		r.AmountMin = &f
	}
	if v := item.Get("funding_amount_max"); v.Exists() && v.Type == gjson.Number {
		f := v.Float()
		r.AmountMax = &f
	}
	r.AmountText = item.Get("funding_amount_text").String()

	return r, true
}

func parseDate(id, raw string, failed *bool) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return &t
		}
	}
	utils.Log.Warnf("Record %s: unparsable date %q, keeping record visible", id, raw)
	*failed = true
	return nil
}

// stringList reads a JSON value that should be an array of strings but may
// arrive double-serialized as a string.
func stringList(v gjson.Result) []string {
	if v.Type == gjson.String {
		v = gjson.Parse(v.String())
	}
	if !v.IsArray() {
		return nil
	}
	var out []string
	v.ForEach(func(_, item gjson.Result) bool {
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
		return true
	})
	return out
}

// tagGroups reads the tag_groups payload, which is sometimes a pre-parsed
// object and sometimes a JSON string, into one canonical map shape. Anything
// else is logged and dropped; the record itself stays usable.
func tagGroups(id string, v gjson.Result) map[string][]string {
	if !v.Exists() {
		return nil
	}
	if v.Type == gjson.String {
		v = gjson.Parse(v.String())
	}
	if !v.IsObject() {
		utils.Log.Warnf("Record %s: tag_groups is not an object, ignoring", id)
		return nil
	}
	groups := make(map[string][]string)
	v.ForEach(func(key, val gjson.Result) bool {
		if tags := stringList(val); len(tags) > 0 {
			groups[key.String()] = tags
		}
		return true
	})
	if len(groups) == 0 {
		return nil
	}
	return groups
}

// SearchText builds the lowercased, HTML-stripped haystack used for
// free-text matching against a record.
func SearchText(title, description string) string {
	return strings.ToLower(strings.TrimSpace(title + " " + StripHTML(description)))
}

// StripHTML extracts the visible text of an HTML fragment. On parse failure
// the raw input is returned unchanged.
func StripHTML(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return fragment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// SourceDomain derives a record's source identifier from its origin URL.
// e.g. "https://www.foerderdatenbank.de/some/path" -> "foerderdatenbank.de"
func SourceDomain(rawURL string) (string, bool) {
	host := rawURL
	if !strings.Contains(rawURL, "://") && strings.Contains(rawURL, ".") {
		rawURL = "http://" + rawURL
	}
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Hostname()
	} else {
		host = strings.Split(host, "/")[0]
		host = strings.Split(host, ":")[0]
		if !strings.Contains(host, ".") {
			return "", false
		}
	}
	domain, err := publicsuffix.Domain(host)
	if err != nil {
		return "", false
	}
	return domain, true
}
