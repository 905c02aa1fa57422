// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

func testClient(ts *httptest.Server, maxTurns int) *Client {
	return &Client{
		Cfg: types.AgentConfig{
			Model:    "claude-sonnet-4-5-20250929",
			APIKey:   "sk-test",
			MaxTurns: maxTurns,
		},
		HTTPClient: ts.Client(),
	}
}

func swapAPI(t *testing.T, url string) {
	t.Helper()
	old := claudeAPIURL
	claudeAPIURL = url
	t.Cleanup(func() { claudeAPIURL = old })
}

func TestClientRun_TextResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "sk-test" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got == "" {
			t.Error("missing anthropic-version header")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"content": [{"type": "text", "text": "Findings: none."}], "stop_reason": "end_turn"}`)
	}))
	defer ts.Close()
	swapAPI(t, ts.URL)

	c := testClient(ts, 3)
	out, err := c.Run(context.Background(), NewInterpretationAgent(), "interpret this")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "Findings: none." {
		t.Errorf("out = %q", out)
	}
}

func TestClientRun_ToolUseLoop(t *testing.T) {
	var calls int
	var secondBody apiRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls == 1 {
			fmt.Fprint(w, `{"content": [
				{"type": "text", "text": "Let me check the literature."},
				{"type": "tool_use", "id": "tu_1", "name": "echo", "input": {"query": "metformin AND alzheimer"}}
			], "stop_reason": "tool_use"}`)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&secondBody); err != nil {
			t.Errorf("decoding second request: %v", err)
		}
		fmt.Fprint(w, `{"content": [{"type": "text", "text": "Done."}], "stop_reason": "end_turn"}`)
	}))
	defer ts.Close()
	swapAPI(t, ts.URL)

	var toolInput string
	agent := Agent{
		Name: "tester",
		Tools: []Tool{{
			Name: "echo",
			Run: func(_ context.Context, input json.RawMessage) (string, error) {
				toolInput = string(input)
				return `{"hit_count": 42}`, nil
			},
		}},
	}

	c := testClient(ts, 5)
	out, err := c.Run(context.Background(), agent, "go")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "Done." {
		t.Errorf("out = %q", out)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if !strings.Contains(toolInput, "metformin AND alzheimer") {
		t.Errorf("tool input = %q", toolInput)
	}

	// The second request must carry the assistant turn and the tool result.
	if len(secondBody.Messages) != 3 {
		t.Fatalf("len(messages) = %d, want 3", len(secondBody.Messages))
	}
	last := secondBody.Messages[2]
	if last.Role != "user" || len(last.Content) != 1 {
		t.Fatalf("unexpected final message: %+v", last)
	}
	result := last.Content[0]
	if result.Type != "tool_result" || result.ToolUseID != "tu_1" {
		t.Errorf("tool_result = %+v", result)
	}
	if result.Content != `{"hit_count": 42}` {
		t.Errorf("tool result content = %q", result.Content)
	}
	if result.IsError {
		t.Error("successful tool marked as error")
	}
}

func TestClientRun_ToolFailureIsReportedToModel(t *testing.T) {
	var calls int
	var secondBody apiRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls == 1 {
			fmt.Fprint(w, `{"content": [{"type": "tool_use", "id": "tu_1", "name": "broken", "input": {}}], "stop_reason": "tool_use"}`)
			return
		}
		json.NewDecoder(r.Body).Decode(&secondBody)
		fmt.Fprint(w, `{"content": [{"type": "text", "text": "Data gap noted."}], "stop_reason": "end_turn"}`)
	}))
	defer ts.Close()
	swapAPI(t, ts.URL)

	agent := Agent{
		Name: "tester",
		Tools: []Tool{{
			Name: "broken",
			Run: func(context.Context, json.RawMessage) (string, error) {
				return "", fmt.Errorf("backend down")
			},
		}},
	}

	c := testClient(ts, 5)
	out, err := c.Run(context.Background(), agent, "go")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "Data gap noted." {
		t.Errorf("out = %q", out)
	}

	result := secondBody.Messages[2].Content[0]
	if !result.IsError {
		t.Error("failed tool must set is_error")
	}
	if !strings.Contains(result.Content, "backend down") {
		t.Errorf("error content = %q", result.Content)
	}
}

func TestClientRun_TurnBudgetExceeded(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"content": [{"type": "tool_use", "id": "tu_1", "name": "echo", "input": {}}], "stop_reason": "tool_use"}`)
	}))
	defer ts.Close()
	swapAPI(t, ts.URL)

	agent := Agent{
		Name: "looper",
		Tools: []Tool{{
			Name: "echo",
			Run:  func(context.Context, json.RawMessage) (string, error) { return "ok", nil },
		}},
	}

	c := testClient(ts, 2)
	_, err := c.Run(context.Background(), agent, "go")
	var budgetErr *TurnBudgetError
	if !errors.As(err, &budgetErr) {
		t.Fatalf("err = %v, want TurnBudgetError", err)
	}
	if budgetErr.Agent != "looper" || budgetErr.MaxTurns != 2 {
		t.Errorf("budgetErr = %+v", budgetErr)
	}
}

func TestClientRun_UnknownToolNameIsContained(t *testing.T) {
	var calls int
	var secondBody apiRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls == 1 {
			fmt.Fprint(w, `{"content": [{"type": "tool_use", "id": "tu_1", "name": "nonexistent", "input": {}}], "stop_reason": "tool_use"}`)
			return
		}
		json.NewDecoder(r.Body).Decode(&secondBody)
		fmt.Fprint(w, `{"content": [{"type": "text", "text": "ok"}], "stop_reason": "end_turn"}`)
	}))
	defer ts.Close()
	swapAPI(t, ts.URL)

	c := testClient(ts, 3)
	if _, err := c.Run(context.Background(), Agent{Name: "tester"}, "go"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	result := secondBody.Messages[2].Content[0]
	if !result.IsError || !strings.Contains(result.Content, "unknown tool") {
		t.Errorf("unknown tool result = %+v", result)
	}
}

func TestClientRun_APIErrorSurfaced(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "overloaded"}`, http.StatusInternalServerError)
	}))
	defer ts.Close()
	swapAPI(t, ts.URL)

	c := testClient(ts, 3)
	_, err := c.Run(context.Background(), Agent{Name: "tester"}, "go")
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("expected API error, got: %v", err)
	}
}
