// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agents runs the narrative research tasks against the Claude
// Messages API. Each agent is a set of instructions plus the tools it may
// call; the client drives the tool-use loop under a hard turn budget so a
// confused agent terminates instead of hanging.
// Implements: prd014-agents (R1-R6); docs/ARCHITECTURE § Agents.
package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/repurpose-engine/internal/httputil"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// Tool is one callable capability exposed to an agent. Run receives the
// model's input object and returns the result text fed back to the model.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
	Run         func(ctx context.Context, input json.RawMessage) (string, error)
}

// Agent couples instructions with the tools available to the task.
type Agent struct {
	Name         string
	Instructions string
	Tools        []Tool
}

// TurnBudgetError reports that an agent exhausted its tool-use turn budget
// without producing a final answer.
type TurnBudgetError struct {
	Agent    string
	MaxTurns int
}

func (e *TurnBudgetError) Error() string {
	return fmt.Sprintf("agent %s exceeded %d turns without a final answer", e.Agent, e.MaxTurns)
}

// Client calls the Claude Messages API.
type Client struct {
	Cfg        types.AgentConfig
	HTTPClient *http.Client
}

// Run executes one agent task: the prompt is sent with the agent's tools,
// tool calls are served locally, and the loop repeats until the model stops
// requesting tools or the turn budget runs out. The returned string is the
// concatenated text of the final response.
func (c *Client) Run(ctx context.Context, agent Agent, prompt string) (string, error) {
	maxTurns := c.Cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 7
	}
	maxTokens := c.Cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	messages := []apiMessage{
		{Role: "user", Content: []contentBlock{{Type: "text", Text: prompt}}},
	}

	for turn := 0; turn < maxTurns; turn++ {
		resp, err := c.call(ctx, apiRequest{
			Model:     c.Cfg.Model,
			MaxTokens: maxTokens,
			System:    agent.Instructions,
			Messages:  messages,
			Tools:     toolDefs(agent.Tools),
		})
		if err != nil {
			return "", fmt.Errorf("agent %s: %w", agent.Name, err)
		}

		if resp.StopReason != "tool_use" {
			return collectText(resp.Content), nil
		}

		messages = append(messages, apiMessage{Role: "assistant", Content: resp.Content})
		messages = append(messages, apiMessage{
			Role:    "user",
			Content: c.serveTools(ctx, agent.Tools, resp.Content),
		})
	}

	return "", &TurnBudgetError{Agent: agent.Name, MaxTurns: maxTurns}
}

// serveTools executes every tool_use block and returns the matching
// tool_result blocks. A failing tool reports its error to the model instead
// of aborting the task.
func (c *Client) serveTools(ctx context.Context, tools []Tool, blocks []contentBlock) []contentBlock {
	var results []contentBlock
	for _, block := range blocks {
		if block.Type != "tool_use" {
			continue
		}
		result := contentBlock{Type: "tool_result", ToolUseID: block.ID}

		tool, ok := findTool(tools, block.Name)
		if !ok {
			result.Content = fmt.Sprintf("unknown tool %q", block.Name)
			result.IsError = true
		} else if out, err := tool.Run(ctx, block.Input); err != nil {
			result.Content = fmt.Sprintf("tool %s failed: %v", block.Name, err)
			result.IsError = true
		} else {
			result.Content = out
		}
		results = append(results, result)
	}
	return results
}

func (c *Client) call(ctx context.Context, reqBody apiRequest) (*apiResponse, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.Cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return nil, fmt.Errorf("decoding Claude response: %w", err)
	}
	return &cResp, nil
}

func findTool(tools []Tool, name string) (Tool, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

func collectText(blocks []contentBlock) string {
	var parts []string
	for _, block := range blocks {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func toolDefs(tools []Tool) []apiTool {
	if len(tools) == 0 {
		return nil
	}
	defs := make([]apiTool, 0, len(tools))
	for _, t := range tools {
		schema := t.InputSchema
		if schema == nil {
			schema = map[string]any{"type": "object"}
		}
		defs = append(defs, apiTool{Name: t.Name, Description: t.Description, InputSchema: schema})
	}
	return defs
}

// Claude Messages API structures.
type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []apiMessage `json:"messages"`
	Tools     []apiTool    `json:"tools,omitempty"`
}

type apiTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type apiMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

// contentBlock covers text, tool_use, and tool_result blocks; unused fields
// are omitted on the wire.
type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type apiResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}
