// Package jira implements the tracker collaborator interfaces against a
// Jira-style REST API: per-item changelog fetches, board item listing, and
// board column/state resolution. All tracker payloads are normalized into
// canonical tracker types here; nothing upstream leaks past this boundary.
package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/flowmetrics/pkg/domain/tracker"
	"golang.org/x/oauth2"
)

// jiraTimeLayout is the timestamp format Jira emits in changelogs.
const jiraTimeLayout = "2006-01-02T15:04:05.000-0700"

const pageSize = 100

// Config carries the connection settings for one Jira site. Either
// Email+APIToken (basic auth) or BearerToken (OAuth2) must be set.
type Config struct {
	BaseURL     string
	Email       string
	APIToken    string
	BearerToken string
}

type Client struct {
	baseURL    string
	email      string
	apiToken   string
	httpClient *http.Client
}

// NewClient validates the configuration and builds a client. With a bearer
// token configured, requests go through an oauth2 transport; otherwise basic
// auth headers are set per request.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("jira configuration missing base URL")
	}
	if cfg.BearerToken == "" && (cfg.Email == "" || cfg.APIToken == "") {
		return nil, fmt.Errorf("jira configuration missing credentials (email+api_token or bearer_token required)")
	}

	baseURL := cfg.BaseURL
	if !strings.HasPrefix(baseURL, "http") {
		baseURL = "https://" + baseURL
	}

	httpClient := http.DefaultClient
	if cfg.BearerToken != "" {
		source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.BearerToken})
		httpClient = oauth2.NewClient(context.Background(), source)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		email:      cfg.Email,
		apiToken:   cfg.APIToken,
		httpClient: httpClient,
	}, nil
}

// SetHTTPClient overrides the underlying HTTP client. Used by tests.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) request(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	if c.email != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(c.email + ":" + c.apiToken))
		req.Header.Set("Authorization", "Basic "+auth)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("jira api error (%d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// statusField tolerates the two shapes Jira uses for status-like values: a
// plain string, or an object carrying id and name. It normalizes both into
// id/label.
type statusField struct {
	ID    string
	Label string
}

func (f *statusField) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		f.ID = plain
		f.Label = plain
		return nil
	}

	var obj struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("unsupported status field shape: %s", string(data))
	}
	f.ID = obj.ID
	f.Label = obj.Name
	return nil
}

type changelogEntry struct {
	Created string `json:"created"`
	Items   []struct {
		Field      string `json:"field"`
		From       string `json:"from"`
		FromString string `json:"fromString"`
		To         string `json:"to"`
		ToString   string `json:"toString"`
	} `json:"items"`
}

// FetchEventHistory returns an item's raw change events, unsorted, exactly as
// the tracker reports them. Changelog pages are walked until exhausted.
func (c *Client) FetchEventHistory(ctx context.Context, itemKey string) ([]tracker.ChangeEvent, error) {
	var events []tracker.ChangeEvent
	startAt := 0

	for {
		path := fmt.Sprintf("rest/api/2/issue/%s/changelog?startAt=%d&maxResults=%d", itemKey, startAt, pageSize)
		data, err := c.request(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch changelog for %s: %w", itemKey, err)
		}

		var page struct {
			StartAt    int              `json:"startAt"`
			MaxResults int              `json:"maxResults"`
			Total      int              `json:"total"`
			Values     []changelogEntry `json:"values"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("failed to decode changelog for %s: %w", itemKey, err)
		}

		for _, entry := range page.Values {
			occurredAt, err := parseJiraTime(entry.Created)
			if err != nil {
				return nil, fmt.Errorf("bad changelog timestamp for %s: %w", itemKey, err)
			}
			for _, item := range entry.Items {
				events = append(events, tracker.ChangeEvent{
					OccurredAt: occurredAt,
					Field:      normalizeField(item.Field),
					FromValue:  item.From,
					ToValue:    item.To,
					FromLabel:  item.FromString,
					ToLabel:    item.ToString,
				})
			}
		}

		startAt += len(page.Values)
		if startAt >= page.Total || len(page.Values) == 0 {
			return events, nil
		}
	}
}

// normalizeField maps the tracker's field names onto canonical ones.
func normalizeField(field string) string {
	if strings.EqualFold(field, "status") {
		return tracker.FieldStatus
	}
	return field
}

// ListItems pages through a board's issues, normalizing each into the
// engine's item shape.
func (c *Client) ListItems(ctx context.Context, boardID string) ([]tracker.Item, error) {
	var items []tracker.Item
	startAt := 0

	for {
		path := fmt.Sprintf("rest/agile/1.0/board/%s/issue?fields=status,created&startAt=%d&maxResults=%d", boardID, startAt, pageSize)
		data, err := c.request(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list items for board %s: %w", boardID, err)
		}

		var page struct {
			Total  int `json:"total"`
			Issues []struct {
				Key    string `json:"key"`
				Fields struct {
					Created string      `json:"created"`
					Status  statusField `json:"status"`
				} `json:"fields"`
			} `json:"issues"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("failed to decode board items: %w", err)
		}

		for _, issue := range page.Issues {
			createdAt, err := parseJiraTime(issue.Fields.Created)
			if err != nil {
				return nil, fmt.Errorf("bad creation timestamp for %s: %w", issue.Key, err)
			}
			items = append(items, tracker.Item{
				Key:       issue.Key,
				CreatedAt: createdAt,
				CurrentState: tracker.State{
					ID:    issue.Fields.Status.ID,
					Label: issue.Fields.Status.Label,
				},
			})
		}

		startAt += len(page.Issues)
		if startAt >= page.Total || len(page.Issues) == 0 {
			return items, nil
		}
	}
}

// ResolveTrackedStates combines the board's column configuration with the
// site's status catalog: every column-mapped status is tracked, statuses in
// the in-progress category form the entry set, and statuses in the done
// category form the done set.
func (c *Client) ResolveTrackedStates(ctx context.Context, boardID string) (tracker.StateSets, error) {
	catalog, err := c.fetchStatusCatalog(ctx)
	if err != nil {
		return tracker.StateSets{}, err
	}

	path := fmt.Sprintf("rest/agile/1.0/board/%s/configuration", boardID)
	data, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return tracker.StateSets{}, fmt.Errorf("failed to fetch board configuration: %w", err)
	}

	var cfg struct {
		ColumnConfig struct {
			Columns []struct {
				Name     string `json:"name"`
				Statuses []struct {
					ID string `json:"id"`
				} `json:"statuses"`
			} `json:"columns"`
		} `json:"columnConfig"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return tracker.StateSets{}, fmt.Errorf("failed to decode board configuration: %w", err)
	}

	sets := tracker.StateSets{
		Entry:      tracker.NewStateSet(),
		Done:       tracker.NewStateSet(),
		Tracked:    tracker.NewStateSet(),
		Labels:     make(map[string]string),
		Categories: make(map[string]tracker.StateCategory),
	}

	for _, column := range cfg.ColumnConfig.Columns {
		for _, status := range column.Statuses {
			sets.Tracked[status.ID] = struct{}{}
			state, ok := catalog[status.ID]
			if !ok {
				sets.Labels[status.ID] = column.Name
				sets.Categories[status.ID] = tracker.CategoryUnknown
				continue
			}
			sets.Labels[status.ID] = state.Label
			sets.Categories[status.ID] = state.Category
			switch state.Category {
			case tracker.CategoryInProgress:
				sets.Entry[status.ID] = struct{}{}
			case tracker.CategoryDone:
				sets.Done[status.ID] = struct{}{}
			}
		}
	}

	return sets, nil
}

// fetchStatusCatalog loads the site-wide status list with categories.
func (c *Client) fetchStatusCatalog(ctx context.Context) (map[string]tracker.State, error) {
	data, err := c.request(ctx, http.MethodGet, "rest/api/2/status", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch status catalog: %w", err)
	}

	var statuses []struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		StatusCategory struct {
			Key string `json:"key"`
		} `json:"statusCategory"`
	}
	if err := json.Unmarshal(data, &statuses); err != nil {
		return nil, fmt.Errorf("failed to decode status catalog: %w", err)
	}

	catalog := make(map[string]tracker.State, len(statuses))
	for _, s := range statuses {
		catalog[s.ID] = tracker.State{
			ID:       s.ID,
			Label:    s.Name,
			Category: mapCategory(s.StatusCategory.Key),
		}
	}
	return catalog, nil
}

// mapCategory translates Jira's status category keys into canonical ones.
func mapCategory(key string) tracker.StateCategory {
	switch key {
	case "new":
		return tracker.CategoryNew
	case "indeterminate":
		return tracker.CategoryInProgress
	case "done":
		return tracker.CategoryDone
	default:
		return tracker.CategoryUnknown
	}
}

func parseJiraTime(value string) (time.Time, error) {
	if t, err := time.Parse(jiraTimeLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
