package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/stadtimpuls/kompass/pkg/engine"
	"github.com/stadtimpuls/kompass/pkg/facets"
	"github.com/stadtimpuls/kompass/pkg/filter"
	"github.com/stadtimpuls/kompass/pkg/horizon"
	"github.com/stadtimpuls/kompass/pkg/records"
)

// QueryResponse is the JSON shape of a filtered collection query.
type QueryResponse struct {
	Records []records.Record `json:"records"`
	Facets  facets.Facets    `json:"facets"`
	Total   int              `json:"total"`
	Status  engine.Status    `json:"status"`
	Err     string           `json:"error,omitempty"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.handleQuery(w, r, s.Events)
}

func (s *Server) handleFunding(w http.ResponseWriter, r *http.Request) {
	s.handleQuery(w, r, s.Funding)
}

// handleQuery evaluates per-request criteria against the engine's store
// without touching the engine's own filter state: the pure filter and facet
// functions run over a snapshot of the records.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request, eng *engine.Engine) {
	c, err := criteriaFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap := eng.Snapshot()
	resp := QueryResponse{Status: snap.Status, Err: snap.Err, Total: snap.Total}

	if snap.Status == engine.StatusErrored {
		resp.Records = []records.Record{}
		resp.Facets = facets.Compute(nil)
		writeJSON(w, resp)
		return
	}

	now := time.Now()
	all := records.Approved(eng.Records())

	withoutTags := c
	withoutTags.Tags = nil
	candidates := filter.Apply(all, withoutTags, now)
	matched := filter.Apply(candidates, c, now)
	records.SortByAnchorDesc(matched)

	resp.Records = matched
	resp.Facets = facets.Compute(candidates)
	writeJSON(w, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	type collectionStatus struct {
		Status engine.Status `json:"status"`
		Err    string        `json:"error,omitempty"`
		Total  int           `json:"total"`
	}
	ev, fu := s.Events.Snapshot(), s.Funding.Snapshot()
	writeJSON(w, map[string]collectionStatus{
		"events":  {Status: ev.Status, Err: ev.Err, Total: ev.Total},
		"funding": {Status: fu.Status, Err: fu.Err, Total: fu.Total},
	})
}

func criteriaFromQuery(q url.Values) (filter.Criteria, error) {
	c := filter.Criteria{
		Tags:         q["tag"],
		Region:       q.Get("region"),
		FundingType:  q.Get("funding_type"),
		ProviderType: q.Get("provider_type"),
		Provider:     q.Get("provider"),
		Source:       q.Get("source"),
		Search:       q.Get("search"),
	}

	if raw := q.Get("horizon"); raw != "" {
		tok, ok := horizon.ParseToken(raw)
		if !ok {
			return c, &badParamError{"horizon", raw}
		}
		c.Horizon = tok
	}
	if raw := q.Get("amount"); raw != "" {
		band, ok := filter.ParseAmountBand(raw)
		if !ok {
			return c, &badParamError{"amount", raw}
		}
		c.Amount = band
	}
	return c, nil
}

type badParamError struct {
	param, value string
}

func (e *badParamError) Error() string {
	return "invalid " + e.param + " value: " + e.value
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
