// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pdiddy/repurpose-engine/internal/adapters"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// LiteratureCounter counts publications for a boolean query.
type LiteratureCounter interface {
	CountLiterature(ctx context.Context, query string) (int, error)
}

// WebSearcher runs market and trade web searches.
type WebSearcher interface {
	SearchMarket(ctx context.Context, query string) ([]adapters.SearchHit, error)
	SearchTrade(ctx context.Context, hsCodeOrName string, year int, flow adapters.TradeFlow) ([]adapters.SearchHit, error)
}

// PatentSearcher searches granted patents by keyword.
type PatentSearcher interface {
	Search(ctx context.Context, keyword string, maxResults int, fromDate time.Time) ([]types.Patent, error)
}

// TrialSearcher searches registered clinical studies.
type TrialSearcher interface {
	Search(ctx context.Context, filters adapters.TrialFilters) ([]types.Trial, error)
}

// TargetResolver resolves disease-associated protein targets.
type TargetResolver interface {
	AssociatedTargets(ctx context.Context, diseaseName string, limit int) ([]types.AssociatedTarget, error)
}

// NewWebIntelAgent gathers credible cross-regional clinical and regulatory
// evidence from the literature. It must never invent citations; a query with
// no credible signal yields an explicit data-gap note.
func NewWebIntelAgent(lit LiteratureCounter, web WebSearcher) Agent {
	tools := []Tool{}
	if lit != nil {
		tools = append(tools, literatureCountTool(lit))
	}
	if web != nil {
		tools = append(tools, webSearchTool(web))
	}
	return Agent{
		Name: "web_intelligence",
		Instructions: "You are a web intelligence agent supporting an evidence-driven " +
			"drug repurposing pipeline. Gather credible pharmaceutical and clinical " +
			"evidence: treatment guidelines, clinical evidence reviews, regulatory and " +
			"safety notices, real-world evidence signals. Cite only sources returned by " +
			"your tools; never invent PMIDs, titles, or outcomes. Separate positive " +
			"repurposing signals from risk signals. If no credible signal is found, " +
			"state the data gap explicitly instead of speculating.",
		Tools: tools,
	}
}

// NewPatentAgent surveys the prior-art landscape around the entity.
func NewPatentAgent(patents PatentSearcher) Agent {
	var tools []Tool
	if patents != nil {
		tools = append(tools, patentSearchTool(patents))
	}
	return Agent{
		Name: "patent_landscape",
		Instructions: "You are a patent landscape analyst. Search granted patents for " +
			"the research entity and summarize the prior-art landscape: key assignees, " +
			"filing trends, claim areas, and white space relevant to repurposing. Cite " +
			"only patents returned by your tool. Report an explicit gap when the search " +
			"returns nothing.",
		Tools: tools,
	}
}

// NewTrialsAgent surveys the registered clinical development landscape.
func NewTrialsAgent(trials TrialSearcher) Agent {
	var tools []Tool
	if trials != nil {
		tools = append(tools, trialSearchTool(trials))
	}
	return Agent{
		Name: "clinical_trials",
		Instructions: "You are a clinical trials analyst. Search the trial registry for " +
			"studies involving the research entity and summarize the development " +
			"landscape: phases, statuses, conditions studied, and notable sponsors. " +
			"Highlight completed and recruiting studies separately. Cite only trial IDs " +
			"returned by your tool.",
		Tools: tools,
	}
}

// NewMarketAgent gathers commercial context for the entity.
func NewMarketAgent(web WebSearcher) Agent {
	var tools []Tool
	if web != nil {
		tools = append(tools, webSearchTool(web))
	}
	return Agent{
		Name: "market_insights",
		Instructions: "You are a pharmaceutical market analyst. Search the web for " +
			"market size, pricing, competitive landscape, and unmet-need signals for " +
			"the research entity. Use only figures returned by your tool and attribute " +
			"each figure to its source. Never fabricate market numbers.",
		Tools: tools,
	}
}

// NewTradeAgent gathers import/export intelligence for the entity.
func NewTradeAgent(web WebSearcher) Agent {
	var tools []Tool
	if web != nil {
		tools = append(tools, tradeSearchTool(web))
	}
	return Agent{
		Name: "trade_flows",
		Instructions: "You are a pharmaceutical trade analyst. Search for import and " +
			"export statistics for the research entity's active ingredient: volumes, " +
			"values, leading exporting and importing countries. Use only figures " +
			"returned by your tool; report a gap when trade data is unavailable.",
		Tools: tools,
	}
}

// NewPathwayAgent maps disease biology onto druggable pathways.
func NewPathwayAgent(targets TargetResolver) Agent {
	var tools []Tool
	if targets != nil {
		tools = append(tools, targetLookupTool(targets))
	}
	return Agent{
		Name: "disease_pathway",
		Instructions: "You are a disease pathway specialist. Using the enrichment " +
			"payload and your target-association tool, map the disease biology onto " +
			"druggable pathways: which associated targets cluster into pathways, which " +
			"are modulated by the entity under study, and where mechanistic overlap " +
			"suggests repurposing potential. Ground every claim in the provided data.",
		Tools: tools,
	}
}

// NewInterpretationAgent interprets the enrichment payload. It has no tools;
// all data arrives in the prompt.
func NewInterpretationAgent() Agent {
	return Agent{
		Name: "enrichment_interpretation",
		Instructions: "You are a drug repurposing interpretation specialist. You " +
			"receive the complete enrichment payload in the prompt and have no tools. " +
			"Classify primary targets versus off-targets from binding affinities and " +
			"mechanisms, assess mechanism-of-action relevance to the disease biology, " +
			"identify repurposing opportunities, and note safety concerns and data " +
			"gaps. Never request or invent additional data.",
	}
}

// NewStrategyAgent ranks repurposing candidates and assesses feasibility.
func NewStrategyAgent() Agent {
	return Agent{
		Name: "repurposing_strategy",
		Instructions: "You are a drug repurposing strategist. From the collected " +
			"evidence in the prompt, identify repurposing candidates from " +
			"target-disease overlap, clinical phase opportunity, and chemical " +
			"similarity. Reject withdrawn drugs and candidates with toxicity red " +
			"flags. Assess mechanistic plausibility, clinical feasibility, safety, and " +
			"novelty white space. Output empty findings explicitly when evidence is " +
			"missing; never hallucinate.",
	}
}

// NewReportAgent synthesizes the final report from every populated slot.
func NewReportAgent() Agent {
	return Agent{
		Name: "report_generation",
		Instructions: "You are an executive report architect for drug repurposing " +
			"research. Convert the collected findings in the prompt into a concise, " +
			"evidence-driven, publication-safe report. Extract actual findings from " +
			"the raw agent output; never invent drug names, targets, clinical phases, " +
			"or trade values. Preserve the section order given in the prompt.",
	}
}

func literatureCountTool(lit LiteratureCounter) Tool {
	return Tool{
		Name:        "count_literature",
		Description: "Count biomedical publications matching a boolean query, e.g. \"metformin AND alzheimer\".",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string", "description": "Boolean literature query."},
			},
			"required": []string{"query"},
		},
		Run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("parsing tool input: %w", err)
			}
			count, err := lit.CountLiterature(ctx, args.Query)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf(`{"query": %q, "hit_count": %d}`, args.Query, count), nil
		},
	}
}

func webSearchTool(web WebSearcher) Tool {
	return Tool{
		Name:        "search_web",
		Description: "Run a web search and return organic results with titles, links, and snippets.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string", "description": "Free-text search query."},
			},
			"required": []string{"query"},
		},
		Run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("parsing tool input: %w", err)
			}
			hits, err := web.SearchMarket(ctx, args.Query)
			if err != nil {
				return "", err
			}
			return marshalResult(hits)
		},
	}
}

func tradeSearchTool(web WebSearcher) Tool {
	return Tool{
		Name:        "search_trade",
		Description: "Search import/export trade statistics for a product name or HS code.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"product": map[string]any{"type": "string", "description": "Product name or HS code."},
				"year":    map[string]any{"type": "integer", "description": "Year of interest; 0 for any."},
				"flow":    map[string]any{"type": "string", "enum": []string{"import", "export"}},
			},
			"required": []string{"product"},
		},
		Run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Product string `json:"product"`
				Year    int    `json:"year"`
				Flow    string `json:"flow"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("parsing tool input: %w", err)
			}
			hits, err := web.SearchTrade(ctx, args.Product, args.Year, adapters.TradeFlow(args.Flow))
			if err != nil {
				return "", err
			}
			return marshalResult(hits)
		},
	}
}

func patentSearchTool(patents PatentSearcher) Tool {
	return Tool{
		Name:        "search_patents",
		Description: "Search granted US patents by keyword in title and abstract.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"keyword":     map[string]any{"type": "string"},
				"max_results": map[string]any{"type": "integer", "description": "Result cap; default 20."},
				"from_year":   map[string]any{"type": "integer", "description": "Earliest grant year; 0 for no floor."},
			},
			"required": []string{"keyword"},
		},
		Run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Keyword    string `json:"keyword"`
				MaxResults int    `json:"max_results"`
				FromYear   int    `json:"from_year"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("parsing tool input: %w", err)
			}
			var from time.Time
			if args.FromYear > 0 {
				from = time.Date(args.FromYear, 1, 1, 0, 0, 0, 0, time.UTC)
			}
			results, err := patents.Search(ctx, args.Keyword, args.MaxResults, from)
			if err != nil {
				return "", err
			}
			return marshalResult(results)
		},
	}
}

func trialSearchTool(trials TrialSearcher) Tool {
	return Tool{
		Name:        "search_trials",
		Description: "Search the clinical trial registry by condition and/or intervention.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"condition":    map[string]any{"type": "string"},
				"intervention": map[string]any{"type": "string"},
				"status":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"max_results":  map[string]any{"type": "integer"},
			},
		},
		Run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Condition    string   `json:"condition"`
				Intervention string   `json:"intervention"`
				Status       []string `json:"status"`
				MaxResults   int      `json:"max_results"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("parsing tool input: %w", err)
			}
			results, err := trials.Search(ctx, adapters.TrialFilters{
				Condition:    args.Condition,
				Intervention: args.Intervention,
				Status:       args.Status,
				MaxResults:   args.MaxResults,
			})
			if err != nil {
				return "", err
			}
			return marshalResult(results)
		},
	}
}

func targetLookupTool(targets TargetResolver) Tool {
	return Tool{
		Name:        "associated_targets",
		Description: "Resolve a disease name to its associated protein targets with association scores.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"disease": map[string]any{"type": "string"},
				"limit":   map[string]any{"type": "integer", "description": "Target cap; default 10."},
			},
			"required": []string{"disease"},
		},
		Run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Disease string `json:"disease"`
				Limit   int    `json:"limit"`
			}
			if err := json.Unmarshal(input, &args); err != nil {
				return "", fmt.Errorf("parsing tool input: %w", err)
			}
			results, err := targets.AssociatedTargets(ctx, args.Disease, args.Limit)
			if err != nil {
				return "", err
			}
			return marshalResult(results)
		},
	}
}

func marshalResult(v any) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshaling tool result: %w", err)
	}
	return string(out), nil
}
