package jira

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/felixgeelhaar/flowmetrics/pkg/domain/tracker"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:  "jira.test",
		Email:    "test@example.com",
		APIToken: "token",
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	client.SetHTTPClient(&http.Client{Transport: rt})
	return client
}

func TestNewClient_MissingConfig(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for missing base URL")
	}
	if _, err := NewClient(Config{BaseURL: "jira.test"}); err == nil {
		t.Fatal("expected error for missing credentials")
	}
}

func TestNewClient_HTTPSPrefix(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "example.atlassian.net", Email: "e", APIToken: "t"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.baseURL != "https://example.atlassian.net" {
		t.Fatalf("expected https prefix, got %q", client.baseURL)
	}
}

func TestNewClient_BearerToken(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "jira.test", BearerToken: "bearer"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.httpClient == http.DefaultClient {
		t.Fatal("expected oauth2 client for bearer token config")
	}
}

func TestFetchEventHistory_PagesAndNormalizes(t *testing.T) {
	pages := map[string]string{
		"0": `{"startAt":0,"maxResults":1,"total":2,"values":[
			{"created":"2024-03-01T09:00:00.000+0000","items":[
				{"field":"Status","from":"1","fromString":"Backlog","to":"3","toString":"In Progress"},
				{"field":"assignee","from":"","fromString":"","to":"u1","toString":"Alice"}]}]}`,
		"1": `{"startAt":1,"maxResults":1,"total":2,"values":[
			{"created":"2024-03-04T17:00:00.000+0000","items":[
				{"field":"status","from":"3","fromString":"In Progress","to":"5","toString":"Done"}]}]}`,
	}

	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/rest/api/2/issue/FLOW-1/changelog" {
			t.Fatalf("unexpected path %q", req.URL.Path)
		}
		if req.Header.Get("Authorization") == "" {
			t.Fatal("expected basic auth header")
		}
		return jsonResponse(pages[req.URL.Query().Get("startAt")]), nil
	})

	events, err := client.FetchEventHistory(context.Background(), "FLOW-1")
	if err != nil {
		t.Fatalf("FetchEventHistory failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events across pages, got %d", len(events))
	}
	if events[0].Field != tracker.FieldStatus {
		t.Fatalf("expected Status normalized to %q, got %q", tracker.FieldStatus, events[0].Field)
	}
	if events[1].Field != "assignee" {
		t.Fatalf("expected assignee field preserved, got %q", events[1].Field)
	}
	if events[2].ToValue != "5" || events[2].ToLabel != "Done" {
		t.Fatalf("unexpected final event: %+v", events[2])
	}
	want := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	if !events[0].OccurredAt.Equal(want) {
		t.Fatalf("expected %v, got %v", want, events[0].OccurredAt)
	}
}

func TestFetchEventHistory_APIError(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(bytes.NewBufferString(`{"errorMessages":["no issue"]}`)),
			Header:     make(http.Header),
		}, nil
	})

	if _, err := client.FetchEventHistory(context.Background(), "FLOW-404"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestListItems_HandlesStatusShapes(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(`{"total":2,"issues":[
			{"key":"FLOW-1","fields":{"created":"2024-02-20T08:00:00.000+0000","status":{"id":"3","name":"In Progress"}}},
			{"key":"FLOW-2","fields":{"created":"2024-02-21T08:00:00.000+0000","status":"Done"}}]}`), nil
	})

	items, err := client.ListItems(context.Background(), "7")
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].CurrentState.ID != "3" || items[0].CurrentState.Label != "In Progress" {
		t.Fatalf("object status not normalized: %+v", items[0].CurrentState)
	}
	if items[1].CurrentState.ID != "Done" || items[1].CurrentState.Label != "Done" {
		t.Fatalf("string status not normalized: %+v", items[1].CurrentState)
	}
}

func TestResolveTrackedStates_BuildsSets(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/rest/api/2/status":
			return jsonResponse(`[
				{"id":"1","name":"Backlog","statusCategory":{"key":"new"}},
				{"id":"3","name":"In Progress","statusCategory":{"key":"indeterminate"}},
				{"id":"4","name":"Review","statusCategory":{"key":"indeterminate"}},
				{"id":"5","name":"Done","statusCategory":{"key":"done"}}]`), nil
		case "/rest/agile/1.0/board/7/configuration":
			return jsonResponse(`{"columnConfig":{"columns":[
				{"name":"To Do","statuses":[{"id":"1"}]},
				{"name":"Doing","statuses":[{"id":"3"},{"id":"4"}]},
				{"name":"Done","statuses":[{"id":"5"}]}]}}`), nil
		default:
			t.Fatalf("unexpected path %q", req.URL.Path)
			return nil, nil
		}
	})

	sets, err := client.ResolveTrackedStates(context.Background(), "7")
	if err != nil {
		t.Fatalf("ResolveTrackedStates failed: %v", err)
	}
	for _, id := range []string{"1", "3", "4", "5"} {
		if !sets.Tracked.Contains(id) {
			t.Fatalf("expected %q tracked", id)
		}
	}
	if !sets.Entry.Contains("3") || !sets.Entry.Contains("4") {
		t.Fatal("expected in-progress statuses in entry set")
	}
	if sets.Entry.Contains("1") || sets.Entry.Contains("5") {
		t.Fatal("entry set should exclude new and done statuses")
	}
	if !sets.Done.Contains("5") || sets.Done.Contains("3") {
		t.Fatal("done set should contain exactly the done-category statuses")
	}
	if sets.LabelFor("3") != "In Progress" {
		t.Fatalf("expected label from catalog, got %q", sets.LabelFor("3"))
	}
	if sets.CategoryFor("5") != tracker.CategoryDone {
		t.Fatalf("expected done category, got %v", sets.CategoryFor("5"))
	}
}

func TestResolveTrackedStates_UnknownStatusKeepsColumnLabel(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/rest/api/2/status":
			return jsonResponse(`[]`), nil
		default:
			return jsonResponse(`{"columnConfig":{"columns":[{"name":"Mystery","statuses":[{"id":"9"}]}]}}`), nil
		}
	})

	sets, err := client.ResolveTrackedStates(context.Background(), "7")
	if err != nil {
		t.Fatalf("ResolveTrackedStates failed: %v", err)
	}
	if sets.LabelFor("9") != "Mystery" {
		t.Fatalf("expected fallback column label, got %q", sets.LabelFor("9"))
	}
	if sets.CategoryFor("9") != tracker.CategoryUnknown {
		t.Fatalf("expected unknown category, got %v", sets.CategoryFor("9"))
	}
}
