// Package stackexchange fetches recent questions from the StackExchange API
// and normalizes them into the pipeline's flat record form.
package stackexchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/soflow/soflow"
)

// DefaultBaseURL is the questions endpoint of the StackExchange API.
const DefaultBaseURL = "https://api.stackexchange.com/2.3"

// Client fetches questions. The zero value is not usable; get one from
// NewClient.
type Client struct {
	BaseURL string
	Site    string

	http *retryablehttp.Client
}

// NewClient returns a Client for stackoverflow.com with retrying transport.
func NewClient() *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil
	return &Client{
		BaseURL: DefaultBaseURL,
		Site:    "stackoverflow",
		http:    rc,
	}
}

// FetchQuestions returns up to pageSize of the newest questions tagged tag,
// as raw API items. Items are normalized separately so a single bad item can
// be dead-lettered without dropping the batch.
func (c *Client) FetchQuestions(ctx context.Context, tag string, pageSize int) ([]map[string]interface{}, error) {
	params := url.Values{}
	params.Set("order", "desc")
	params.Set("sort", "creation")
	params.Set("site", c.Site)
	params.Set("pagesize", fmt.Sprintf("%d", pageSize))
	params.Set("tagged", tag)

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", c.BaseURL+"/questions?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building questions request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching questions")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.Errorf("questions request failed, code %d: %s", resp.StatusCode, body)
	}

	var page struct {
		Items []map[string]interface{} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, errors.Wrap(err, "decoding questions response")
	}
	return page.Items, nil
}

// Normalize converts one raw API item into the canonical record form.
// Required fields must be present; counters default to zero,
// last_activity_date defaults to creation_date, and owner subfields are
// flattened. Absent nullable fields stay absent.
func Normalize(item map[string]interface{}) (soflow.Record, error) {
	rec := soflow.Record{}

	id, ok := soflow.AsInt64(item["question_id"])
	if !ok {
		return nil, errors.New("item has no numeric question_id")
	}
	rec["question_id"] = id

	title, ok := item["title"].(string)
	if !ok {
		return nil, errors.New("item has no title")
	}
	rec["title"] = title

	link, ok := item["link"].(string)
	if !ok {
		return nil, errors.New("item has no link")
	}
	rec["link"] = link

	created, ok := soflow.AsInt64(item["creation_date"])
	if !ok {
		return nil, errors.New("item has no numeric creation_date")
	}
	rec["creation_date"] = created
	rec["last_activity_date"] = intOr(item, "last_activity_date", created)

	answered, ok := item["is_answered"].(bool)
	if !ok {
		return nil, errors.New("item has no boolean is_answered")
	}
	rec["is_answered"] = answered

	rec["score"] = intOr(item, "score", 0)
	rec["answer_count"] = intOr(item, "answer_count", 0)
	rec["view_count"] = intOr(item, "view_count", 0)

	if v, ok := item["content_license"].(string); ok {
		rec["content_license"] = v
	}
	if v, ok := soflow.AsInt64(item["closed_date"]); ok {
		rec["closed_date"] = v
	}
	if v, ok := item["closed_reason"].(string); ok {
		rec["closed_reason"] = v
	}
	if owner, ok := item["owner"].(map[string]interface{}); ok {
		if v, ok := soflow.AsInt64(owner["user_id"]); ok {
			rec["owner_user_id"] = v
		}
		if v, ok := owner["display_name"].(string); ok {
			rec["owner_display_name"] = v
		}
	}
	return rec, nil
}

func intOr(item map[string]interface{}, field string, fallback int64) int64 {
	if v, ok := soflow.AsInt64(item[field]); ok {
		return v
	}
	return fallback
}
