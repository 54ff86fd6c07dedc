// Package engine wires the record store, the active filter criteria and the
// derived view together. Every state mutation synchronously recomputes the
// view and notifies subscribers before returning, so consumers never observe
// a store and a view that disagree. The only asynchronous path is Refresh;
// stale fetches are discarded by issuance order.
package engine

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stadtimpuls/kompass/pkg/facets"
	"github.com/stadtimpuls/kompass/pkg/filter"
	"github.com/stadtimpuls/kompass/pkg/horizon"
	"github.com/stadtimpuls/kompass/pkg/records"
)

// Status is the store's load lifecycle.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusErrored Status = "errored"
)

// FetchFunc loads the full record collection from upstream.
type FetchFunc func(ctx context.Context) ([]records.Record, error)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Config holds everything an Engine needs for a single collection.
type Config struct {
	Fetch      FetchFunc
	Collection string
	Log        Logger           // optional; nil = no logging
	Now        func() time.Time // optional; defaults to time.Now, injectable for tests
}

// View is the derived, read-only output consumers render from. Records is
// the filtered set sorted by anchor date descending; Facets is computed from
// the candidate set before tag narrowing.
type View struct {
	Status   Status
	Err      string
	Records  []records.Record
	Facets   facets.Facets
	Criteria filter.Criteria
	Total    int // unfiltered store size
}

// Engine is an explicit, constructible context object: multiple independent
// instances coexist without shared globals.
type Engine struct {
	mu       sync.Mutex
	cfg      Config
	status   Status
	errMsg   string
	all      []records.Record
	criteria filter.Criteria
	view     View

	// gen orders refreshes by issuance; a completion whose generation is no
	// longer current is dropped so an older response cannot overwrite newer
	// data (last-write-wins).
	gen uint64

	subs    map[int]func(View)
	nextSub int
}

func New(cfg Config) *Engine {
	if cfg.Log == nil {
		cfg.Log = nopLogger{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	e := &Engine{
		cfg:    cfg,
		status: StatusIdle,
		subs:   make(map[int]func(View)),
	}
	e.mu.Lock()
	e.recomputeLocked()
	e.mu.Unlock()
	return e
}

// Refresh issues an asynchronous fetch of the full collection. A Refresh
// issued while another is in flight supersedes it: whichever completion
// belongs to the latest issuance wins, regardless of completion order.
func (e *Engine) Refresh(ctx context.Context) {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.status = StatusLoading
	e.recomputeLocked()
	view := e.view
	e.mu.Unlock()
	e.notify(view)

	go func() {
		recs, err := e.cfg.Fetch(ctx)
		e.complete(gen, recs, err)
	}()
}

func (e *Engine) complete(gen uint64, recs []records.Record, err error) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		e.cfg.Log.Debugf("%s: discarding superseded fetch result", e.cfg.Collection)
		return
	}
	if err != nil {
		e.status = StatusErrored
		e.errMsg = err.Error()
		e.all = nil
		e.cfg.Log.Errorf("%s: fetch failed: %v", e.cfg.Collection, err)
	} else {
		e.status = StatusLoaded
		e.errMsg = ""
		e.all = recs
		e.cfg.Log.Infof("%s: loaded %d records", e.cfg.Collection, len(recs))
	}
	e.recomputeLocked()
	view := e.view
	e.mu.Unlock()
	e.notify(view)
}

// SetRecords seeds the store synchronously, e.g. from a cached snapshot.
// Any in-flight refresh is superseded.
func (e *Engine) SetRecords(recs []records.Record) {
	e.mu.Lock()
	e.gen++
	e.status = StatusLoaded
	e.errMsg = ""
	e.all = recs
	e.recomputeLocked()
	view := e.view
	e.mu.Unlock()
	e.notify(view)
}

// Subscribe registers an observer called synchronously after every state
// change. The returned function unsubscribes.
func (e *Engine) Subscribe(fn func(View)) func() {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// Snapshot returns the current derived view.
func (e *Engine) Snapshot() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// Records returns the full unfiltered store.
func (e *Engine) Records() []records.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.all
}

// Criteria returns a copy of the active filter state.
func (e *Engine) Criteria() filter.Criteria {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyCriteria(e.criteria)
}

// copyCriteria deep-copies the tag slice so holders of the copy never alias
// the engine's mutable state.
func copyCriteria(c filter.Criteria) filter.Criteria {
	c.Tags = append([]string(nil), c.Tags...)
	return c
}

// AddTag adds a tag to the selection; duplicates (case-insensitive) are
// ignored.
func (e *Engine) AddTag(tag string) {
	e.update(func(c *filter.Criteria) {
		for _, t := range c.Tags {
			if equalFold(t, tag) {
				return
			}
		}
		c.Tags = append(c.Tags, tag)
	})
}

func (e *Engine) RemoveTag(tag string) {
	e.update(func(c *filter.Criteria) {
		// Compact into a fresh slice: the old backing array is aliased by
		// previously published views and must stay untouched.
		var kept []string
		for _, t := range c.Tags {
			if !equalFold(t, tag) {
				kept = append(kept, t)
			}
		}
		c.Tags = kept
	})
}

func (e *Engine) SetRegion(v string)       { e.update(func(c *filter.Criteria) { c.Region = v }) }
func (e *Engine) SetFundingType(v string)  { e.update(func(c *filter.Criteria) { c.FundingType = v }) }
func (e *Engine) SetProviderType(v string) { e.update(func(c *filter.Criteria) { c.ProviderType = v }) }
func (e *Engine) SetProvider(v string)     { e.update(func(c *filter.Criteria) { c.Provider = v }) }
func (e *Engine) SetSource(v string)       { e.update(func(c *filter.Criteria) { c.Source = v }) }

func (e *Engine) SetHorizon(tok horizon.Token) {
	e.update(func(c *filter.Criteria) { c.Horizon = tok })
}

func (e *Engine) SetAmountBand(band filter.AmountBand) {
	e.update(func(c *filter.Criteria) { c.Amount = band })
}

func (e *Engine) SetSearch(text string) {
	e.update(func(c *filter.Criteria) { c.Search = text })
}

// ResetFilters restores the all-empty default criteria.
func (e *Engine) ResetFilters() {
	e.update(func(c *filter.Criteria) { c.Reset() })
}

func (e *Engine) update(mutate func(*filter.Criteria)) {
	e.mu.Lock()
	mutate(&e.criteria)
	e.recomputeLocked()
	view := e.view
	e.mu.Unlock()
	e.notify(view)
}

// recomputeLocked rebuilds the derived view from the store and the criteria.
// Caller holds e.mu.
func (e *Engine) recomputeLocked() {
	now := e.cfg.Now()

	if e.status == StatusErrored {
		e.view = View{
			Status:   e.status,
			Err:      e.errMsg,
			Records:  []records.Record{},
			Facets:   facets.Compute(nil),
			Criteria: copyCriteria(e.criteria),
		}
		return
	}

	// Candidates pass every check except the tag AND-match; facets come from
	// this wider set so selected tags do not collapse their own counts.
	candidates := make([]records.Record, 0, len(e.all))
	matched := make([]records.Record, 0, len(e.all))
	for i := range e.all {
		r := &e.all[i]
		if !r.Approved {
			continue
		}
		if !filter.MatchesExceptTags(r, e.criteria, now) {
			continue
		}
		candidates = append(candidates, *r)
		if filter.TagsMatch(r, e.criteria.Tags) {
			matched = append(matched, *r)
		}
	}

	records.SortByAnchorDesc(matched)

	e.view = View{
		Status:   e.status,
		Err:      e.errMsg,
		Records:  matched,
		Facets:   facets.Compute(candidates),
		Criteria: copyCriteria(e.criteria),
		Total:    len(e.all),
	}
}

func (e *Engine) notify(view View) {
	e.mu.Lock()
	ids := make([]int, 0, len(e.subs))
	for id := range e.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(View), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, e.subs[id])
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(view)
	}
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
