package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	oceans "github.com/calmeoceans/oceans-tracers"
)

func newTestServer(t *testing.T) *server {
	t.Helper()
	dir := t.TempDir()
	store, err := oceans.Open(oceans.StoreConfig{
		DatabasePath: filepath.Join(dir, "test.db"),
		FallbackPath: filepath.Join(dir, "test.fallback.json"),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return newServer(store)
}

// rpc builds a jsonRPCRequest for testing.
func rpc(id int, method string, params any) jsonRPCRequest {
	req := jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
	}
	idBytes, _ := json.Marshal(id)
	req.ID = idBytes
	if params != nil {
		p, _ := json.Marshal(params)
		req.Params = p
	}
	return req
}

// toolCall builds a tools/call request.
func toolCall(id int, name string, args any) jsonRPCRequest {
	return rpc(id, "tools/call", map[string]any{
		"name":      name,
		"arguments": args,
	})
}

// resultText extracts the first text content from an MCP tool response.
func resultText(t *testing.T, resp jsonRPCResponse) string {
	t.Helper()
	b, _ := json.Marshal(resp.Result)
	var r struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(b, &r); err != nil || len(r.Content) == 0 {
		t.Fatalf("could not extract text from result: %s", b)
	}
	return r.Content[0].Text
}

// resultIsError checks whether an MCP tool response is an error.
func resultIsError(t *testing.T, resp jsonRPCResponse) bool {
	t.Helper()
	b, _ := json.Marshal(resp.Result)
	var r struct {
		IsError bool `json:"isError"`
	}
	json.Unmarshal(b, &r)
	return r.IsError
}

// --- Protocol tests ---

func TestInitialize(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.handleRequest(rpc(1, "initialize", nil))

	if resp.Error != nil {
		t.Fatalf("initialize error: %v", resp.Error)
	}
	b, _ := json.Marshal(resp.Result)
	if !strings.Contains(string(b), `"oceans"`) {
		t.Errorf("serverInfo missing: %s", b)
	}
}

func TestUnknownMethod(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.handleRequest(rpc(1, "bogus/method", nil))

	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Fatalf("expected method-not-found, got %+v", resp)
	}
}

func TestToolsList(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.handleRequest(rpc(1, "tools/list", nil))

	if resp.Error != nil {
		t.Fatalf("tools/list error: %v", resp.Error)
	}
	b, _ := json.Marshal(resp.Result)
	for _, name := range []string{"content_get", "content_set", "content_list", "submissions_list", "submissions_update_status", "partners_list", "stats_get", "snapshot_export"} {
		if !strings.Contains(string(b), `"`+name+`"`) {
			t.Errorf("tool %s not listed", name)
		}
	}
}

// --- Tool tests ---

func TestContentTools(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.handleRequest(toolCall(1, "content_set", map[string]any{
		"key":   "hero-title",
		"value": "Welcome",
		"type":  "text",
	}))
	if resultIsError(t, resp) {
		t.Fatalf("content_set: %s", resultText(t, resp))
	}

	resp = srv.handleRequest(toolCall(2, "content_get", map[string]any{"key": "hero-title"}))
	if resultIsError(t, resp) || resultText(t, resp) != "Welcome" {
		t.Errorf("content_get = %q", resultText(t, resp))
	}

	resp = srv.handleRequest(toolCall(3, "content_get", map[string]any{"key": "missing"}))
	if !resultIsError(t, resp) {
		t.Errorf("content_get on missing key did not error")
	}

	resp = srv.handleRequest(toolCall(4, "content_list", map[string]any{}))
	if resultIsError(t, resp) {
		t.Fatalf("content_list: %s", resultText(t, resp))
	}
	var items map[string]oceans.ContentItem
	if err := json.Unmarshal([]byte(resultText(t, resp)), &items); err != nil {
		t.Fatalf("unmarshal content list: %v", err)
	}
	if len(items) != 1 || items["hero-title"].Version != 1 {
		t.Errorf("content list = %+v", items)
	}
}

func TestSubmissionTools(t *testing.T) {
	srv := newTestServer(t)

	sub, err := srv.store.AddSubmission(map[string]string{"name": "visitor", "message": "hello"})
	if err != nil {
		t.Fatal(err)
	}

	resp := srv.handleRequest(toolCall(1, "submissions_list", map[string]any{"status": "pending"}))
	if resultIsError(t, resp) {
		t.Fatalf("submissions_list: %s", resultText(t, resp))
	}
	var subs []oceans.Submission
	if err := json.Unmarshal([]byte(resultText(t, resp)), &subs); err != nil {
		t.Fatalf("unmarshal submissions: %v", err)
	}
	if len(subs) != 1 || subs[0].ID != sub.ID {
		t.Fatalf("submissions = %+v", subs)
	}

	resp = srv.handleRequest(toolCall(2, "submissions_update_status", map[string]any{
		"id":     sub.ID,
		"status": "reviewed",
	}))
	if resultIsError(t, resp) {
		t.Fatalf("submissions_update_status: %s", resultText(t, resp))
	}

	resp = srv.handleRequest(toolCall(3, "submissions_update_status", map[string]any{
		"id":     999999,
		"status": "reviewed",
	}))
	if !resultIsError(t, resp) {
		t.Errorf("update on missing submission did not error")
	}
}

func TestPartnersAndStatsTools(t *testing.T) {
	srv := newTestServer(t)

	if _, err := srv.store.UpsertPartner(oceans.Partner{ID: "p1", Name: "Blue Reef Labs"}); err != nil {
		t.Fatal(err)
	}

	resp := srv.handleRequest(toolCall(1, "partners_list", map[string]any{}))
	if resultIsError(t, resp) {
		t.Fatalf("partners_list: %s", resultText(t, resp))
	}
	if !strings.Contains(resultText(t, resp), "Blue Reef Labs") {
		t.Errorf("partners_list = %s", resultText(t, resp))
	}

	resp = srv.handleRequest(toolCall(2, "stats_get", map[string]any{}))
	if resultIsError(t, resp) {
		t.Fatalf("stats_get: %s", resultText(t, resp))
	}
	var stats oceans.Statistics
	if err := json.Unmarshal([]byte(resultText(t, resp)), &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if stats.ActivePartners != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSnapshotExportTool(t *testing.T) {
	srv := newTestServer(t)

	if _, err := srv.store.PutContent("hero-title", "Exported", "text"); err != nil {
		t.Fatal(err)
	}

	resp := srv.handleRequest(toolCall(1, "snapshot_export", map[string]any{}))
	if resultIsError(t, resp) {
		t.Fatalf("snapshot_export: %s", resultText(t, resp))
	}
	var snap oceans.Snapshot
	if err := json.Unmarshal([]byte(resultText(t, resp)), &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if snap.Metadata.ID == "" || len(snap.Content) != 1 {
		t.Errorf("snapshot = %+v", snap.Metadata)
	}
}
