// Package directus talks to the remote Directus record store. The read side
// fetches the entire approved record set in one request (the only server-side
// predicate is the visibility equality); all further filtering happens in the
// client. The write side supports partial field updates by id, used by the
// moderation tooling.
package directus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/stadtimpuls/kompass/internal/utils"
	"github.com/stadtimpuls/kompass/pkg/records"
)

const (
	CollectionEvents  = "events"
	CollectionFunding = "foerdermittel"
)

// approvedFilter is the single server-side predicate: only approved records
// are ever delivered to non-moderator consumers.
const approvedFilter = `{"approved":{"_eq":true}}`

// CollectionFor maps a record kind to its Directus collection name.
func CollectionFor(kind records.Kind) string {
	if kind == records.KindFunding {
		return CollectionFunding
	}
	return CollectionEvents
}

type Client struct {
	BaseURL string
	Token   string

	http *retryablehttp.Client
}

func New(baseURL, token string) *Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.Logger = nil
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Token:   token,
		http:    c,
	}
}

// FetchApproved bulk-fetches the full approved set of one collection,
// unpaginated, and normalizes every item into the canonical record shape.
func (c *Client) FetchApproved(ctx context.Context, kind records.Kind) ([]records.Record, error) {
	collection := CollectionFor(kind)
	endpoint := fmt.Sprintf("%s/items/%s?filter=%s&limit=-1",
		c.BaseURL, collection, url.QueryEscape(approvedFilter))

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", collection, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", collection, err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", collection, resp.StatusCode)
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return nil, fmt.Errorf("fetching %s: malformed response, data is not an array", collection)
	}

	var out []records.Record
	data.ForEach(func(_, item gjson.Result) bool {
		if rec, ok := records.FromJSON(kind, item); ok {
			out = append(out, rec)
		}
		return true
	})

	utils.Log.Debugf("Fetched %d %s records", len(out), collection)
	return out, nil
}

// UpdateItem applies a partial field update to one record.
func (c *Client) UpdateItem(ctx context.Context, kind records.Kind, id string, fields map[string]interface{}) error {
	collection := CollectionFor(kind)
	payload, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/items/%s/%s", c.BaseURL, collection, url.PathEscape(id))
	req, err := retryablehttp.NewRequestWithContext(ctx, "PATCH", endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != 200 && resp.StatusCode != 204 {
		return fmt.Errorf("updating %s/%s: unexpected status %d", collection, id, resp.StatusCode)
	}
	return nil
}

func (c *Client) setHeaders(req *retryablehttp.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	req.Header.Set("Accept", "application/json")
}
