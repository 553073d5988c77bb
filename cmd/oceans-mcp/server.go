package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"

	oceans "github.com/calmeoceans/oceans-tracers"
)

// JSON-RPC 2.0 types

type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// server is the Ocean Tracers MCP server.
type server struct {
	store *oceans.Store
}

func newServer(store *oceans.Store) *server {
	return &server{store: store}
}

// run starts the MCP server, reading from stdin and writing to stdout.
func (s *server) run() error {
	log.SetOutput(os.Stderr)
	log.Printf("oceans-mcp starting (%s backend)", s.store.BackendKind())

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()

		var req jsonRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("invalid json-rpc: %v", err)
			continue
		}

		// Notifications have no ID — don't respond
		if req.ID == nil || string(req.ID) == "null" {
			log.Printf("notification: %s", req.Method)
			continue
		}

		resp := s.handleRequest(req)
		respBytes, _ := json.Marshal(resp)
		fmt.Fprintf(os.Stdout, "%s\n", respBytes)
	}

	return scanner.Err()
}

func (s *server) handleRequest(req jsonRPCRequest) jsonRPCResponse {
	resp := jsonRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
	}

	switch req.Method {
	case "initialize":
		resp.Result = map[string]any{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
			"serverInfo": map[string]any{
				"name":    "oceans",
				"version": "0.1.0",
			},
		}
	case "tools/list":
		resp.Result = s.handleToolsList()
	case "tools/call":
		resp.Result = s.handleToolsCall(req.Params)
	case "ping":
		resp.Result = map[string]any{}
	default:
		resp.Error = &rpcError{
			Code:    -32601,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		}
	}

	return resp
}

func (s *server) handleToolsList() any {
	return map[string]any{
		"tools": []map[string]any{
			{
				"name":        "content_get",
				"description": "Get the value stored under a site content key (e.g. hero-title, mission-text).",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"key": map[string]any{
							"type":        "string",
							"description": "The content key to retrieve",
						},
					},
					"required": []string{"key"},
				},
			},
			{
				"name":        "content_set",
				"description": "Store a site content value. HTML content is sanitized before storage; use content_get afterwards to see the stored form.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"key": map[string]any{
							"type":        "string",
							"description": "The content key to store under",
						},
						"value": map[string]any{
							"type":        "string",
							"description": "The content value",
						},
						"type": map[string]any{
							"type":        "string",
							"description": "Content type (default text)",
							"enum":        []string{"text", "html"},
						},
					},
					"required": []string{"key", "value"},
				},
			},
			{
				"name":        "content_list",
				"description": "List all site content items with their keys, types, versions, and update times.",
				"inputSchema": map[string]any{
					"type":       "object",
					"properties": map[string]any{},
				},
			},
			{
				"name":        "submissions_list",
				"description": "List contact-form submissions, newest first. Use this to review partnership inquiries.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"status": map[string]any{
							"type":        "string",
							"description": "Filter by status. Omit to list everything.",
							"enum":        []string{"pending", "reviewed", "archived"},
						},
						"limit": map[string]any{
							"type":        "integer",
							"description": "Maximum number of submissions to return (default all)",
						},
					},
				},
			},
			{
				"name":        "submissions_update_status",
				"description": "Move a submission to a new status after reviewing it.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id": map[string]any{
							"type":        "integer",
							"description": "The submission ID",
						},
						"status": map[string]any{
							"type":        "string",
							"description": "The new status",
							"enum":        []string{"pending", "reviewed", "archived"},
						},
					},
					"required": []string{"id", "status"},
				},
			},
			{
				"name":        "partners_list",
				"description": "List partner organizations. By default only active partners are returned.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"status": map[string]any{
							"type":        "string",
							"description": "Partner status filter: active, inactive, or all (default active)",
							"enum":        []string{"active", "inactive", "all"},
						},
					},
				},
			},
			{
				"name":        "stats_get",
				"description": "Get store statistics: content items, images, submissions (with pending count), active partners, and subscribers.",
				"inputSchema": map[string]any{
					"type":       "object",
					"properties": map[string]any{},
				},
			},
			{
				"name":        "snapshot_export",
				"description": "Export a full snapshot of the store as JSON, suitable for backup. The result can be large.",
				"inputSchema": map[string]any{
					"type":       "object",
					"properties": map[string]any{},
				},
			},
		},
	}
}

func (s *server) handleToolsCall(params json.RawMessage) any {
	var call struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	if err := json.Unmarshal(params, &call); err != nil {
		return mcpError("invalid tool call: %v", err)
	}

	switch call.Name {
	case "content_get":
		return s.handleContentGet(call.Arguments)
	case "content_set":
		return s.handleContentSet(call.Arguments)
	case "content_list":
		return s.handleContentList()
	case "submissions_list":
		return s.handleSubmissionsList(call.Arguments)
	case "submissions_update_status":
		return s.handleSubmissionsUpdateStatus(call.Arguments)
	case "partners_list":
		return s.handlePartnersList(call.Arguments)
	case "stats_get":
		return s.handleStatsGet()
	case "snapshot_export":
		return s.handleSnapshotExport()
	default:
		return mcpError("unknown tool: %s", call.Name)
	}
}

// --- tool handlers ---

func (s *server) handleContentGet(args json.RawMessage) any {
	var params contentGetParams
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}
	if params.Key == "" {
		return mcpError("key parameter is required")
	}

	value, ok, err := s.store.GetContent(params.Key)
	if err != nil {
		return mcpError("%v", err)
	}
	if !ok {
		return mcpError("no content stored under %q", params.Key)
	}

	log.Printf("content_get: key=%s", params.Key)
	return mcpText("%s", value)
}

func (s *server) handleContentSet(args json.RawMessage) any {
	var params contentSetParams
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}
	if params.Key == "" {
		return mcpError("key parameter is required")
	}
	if params.Value == "" {
		return mcpError("value parameter is required")
	}

	item, err := s.store.PutContent(params.Key, params.Value, params.Type)
	if err != nil {
		return mcpError("%v", err)
	}

	log.Printf("content_set: key=%s version=%d", item.Key, item.Version)
	return mcpText("Stored %q (version %d).", item.Key, item.Version)
}

func (s *server) handleContentList() any {
	items, err := s.store.ListContent()
	if err != nil {
		return mcpError("%v", err)
	}

	log.Printf("content_list: %d items", len(items))
	return mcpJSON(items)
}

func (s *server) handleSubmissionsList(args json.RawMessage) any {
	var params submissionsListParams
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}

	subs, err := s.store.ListSubmissions(params.Status, params.Limit)
	if err != nil {
		return mcpError("%v", err)
	}

	log.Printf("submissions_list: status=%q -> %d results", params.Status, len(subs))
	return mcpJSON(subs)
}

func (s *server) handleSubmissionsUpdateStatus(args json.RawMessage) any {
	var params submissionStatusParams
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}
	if params.ID == 0 {
		return mcpError("id parameter is required")
	}
	if params.Status == "" {
		return mcpError("status parameter is required")
	}

	sub, err := s.store.UpdateSubmissionStatus(params.ID, params.Status)
	if err != nil {
		return mcpError("%v", err)
	}

	log.Printf("submissions_update_status: id=%d status=%s", sub.ID, sub.Status)
	return mcpText("Submission %d is now %s.", sub.ID, sub.Status)
}

func (s *server) handlePartnersList(args json.RawMessage) any {
	var params partnersListParams
	json.Unmarshal(args, &params)

	partners, err := s.store.ListPartners(params.Status)
	if err != nil {
		return mcpError("%v", err)
	}

	log.Printf("partners_list: %d partners", len(partners))
	return mcpJSON(partners)
}

func (s *server) handleStatsGet() any {
	stats, err := s.store.Statistics()
	if err != nil {
		return mcpError("%v", err)
	}

	log.Printf("stats_get")
	return mcpJSON(stats)
}

func (s *server) handleSnapshotExport() any {
	snap, err := s.store.ExportSnapshot()
	if err != nil {
		return mcpError("%v", err)
	}

	log.Printf("snapshot_export: id=%s", snap.Metadata.ID)
	return mcpJSON(snap)
}

// --- MCP response helpers ---

func mcpText(format string, args ...any) any {
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": fmt.Sprintf(format, args...)},
		},
	}
}

func mcpJSON(data any) any {
	b, err := json.Marshal(data)
	if err != nil {
		return mcpError("marshal response: %v", err)
	}
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(b)},
		},
	}
}

func mcpError(format string, args ...any) any {
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": fmt.Sprintf("Error: "+format, args...)},
		},
		"isError": true,
	}
}
