package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driving"
)

// TurnInput is one prior conversation turn.
type TurnInput struct {
	Role string `json:"role" jsonschema:"user or assistant"`
	Text string `json:"text" jsonschema:"what was said"`
}

// ProcessInput is the input schema for the process_utterance tool.
type ProcessInput struct {
	Utterance  string      `json:"utterance" jsonschema:"the user's question or instruction"`
	SessionID  string      `json:"session_id,omitempty" jsonschema:"conversation identifier"`
	UserRole   string      `json:"user_role,omitempty" jsonschema:"role of the asking user, e.g. planner"`
	History    []TurnInput `json:"history,omitempty" jsonschema:"earlier turns, oldest first"`
	DeadlineMs int         `json:"deadline_ms,omitempty" jsonschema:"overall time budget in milliseconds"`
}

// ActionOutput is a suggested follow-up.
type ActionOutput struct {
	Label      string `json:"label"`
	Capability string `json:"capability,omitempty"`
}

// ProcessOutput is the output schema for the process_utterance tool.
type ProcessOutput struct {
	RequestID        string            `json:"request_id"`
	Text             string            `json:"text"`
	Speech           string            `json:"speech,omitempty"`
	Intent           string            `json:"intent"`
	Confidence       float64           `json:"confidence"`
	Entities         map[string]string `json:"entities,omitempty"`
	Path             string            `json:"path"`
	Capability       string            `json:"capability,omitempty"`
	Verified         bool              `json:"verified"`
	Degraded         bool              `json:"degraded"`
	IsFallback       bool              `json:"is_fallback"`
	Error            string            `json:"error,omitempty"`
	SuggestedActions []ActionOutput    `json:"suggested_actions,omitempty"`
	ReasoningSteps   []string          `json:"reasoning_steps,omitempty"`
	FactCount        int               `json:"fact_count"`
	PassageCount     int               `json:"passage_count"`
	TotalMs          int64             `json:"total_ms"`
}

// TimeInput is the input schema for the resolve_time_expression tool.
type TimeInput struct {
	Expression string `json:"expression" jsonschema:"natural language time expression, e.g. next Tuesday or between 9am and 5pm"`
	Reference  string `json:"reference,omitempty" jsonschema:"RFC 3339 instant relative expressions resolve against (default now)"`
	TimeZone   string `json:"time_zone,omitempty" jsonschema:"IANA time zone of the result"`
	AllowLLM   bool   `json:"allow_llm,omitempty" jsonschema:"consult the language model when no rule matches"`
}

// TimeOutput is the output schema for the resolve_time_expression tool.
type TimeOutput struct {
	Type       string `json:"type"`
	Start      string `json:"start,omitempty"`
	End        string `json:"end,omitempty"`
	Expression string `json:"expression"`
	Known      bool   `json:"known"`
}

// ParamsInput is the input schema for the extract_parameters tool.
type ParamsInput struct {
	Prompt string         `json:"prompt" jsonschema:"free text to extract parameters from"`
	Schema map[string]any `json:"schema,omitempty" jsonschema:"JSON Schema the parameters must satisfy"`
}

// ParamsOutput is the output schema for the extract_parameters tool.
type ParamsOutput struct {
	Parameters map[string]any `json:"parameters"`
	Confidence float64        `json:"confidence"`
	Reasoning  []string       `json:"reasoning,omitempty"`
}

// SearchInput is the input schema for the search_knowledge tool.
type SearchInput struct {
	Query    string            `json:"query" jsonschema:"keywords to search the knowledge index for"`
	Limit    int               `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Fuzzy    bool              `json:"fuzzy,omitempty" jsonschema:"also match terms one edit away and synonyms"`
	Metadata map[string]string `json:"metadata,omitempty" jsonschema:"exact metadata filters, e.g. terminal: T1"`
}

// SearchOutput is the output schema for the search_knowledge tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID   string            `json:"document_id"`
	Title        string            `json:"title,omitempty"`
	Content      string            `json:"content"`
	Score        float64           `json:"score"`
	MatchedTerms []string          `json:"matched_terms"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "process_utterance",
		Description: "Answer an airport planning question end to end: intent, retrieval, reasoning and fact verification",
	}, s.handleProcess)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resolve_time_expression",
		Description: "Resolve a natural language time expression into a concrete period",
	}, s.handleResolveTime)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "extract_parameters",
		Description: "Extract structured parameters from free text, optionally validated against a JSON Schema",
	}, s.handleExtractParameters)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_knowledge",
		Description: "Search the airport knowledge index",
	}, s.handleSearch)
}

// handleProcess runs the full pipeline.
func (s *Server) handleProcess(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProcessInput,
) (*mcp.CallToolResult, ProcessOutput, error) {
	opts := domain.ProcessOptions{
		SessionID: input.SessionID,
		UserRole:  input.UserRole,
		Deadline:  time.Duration(input.DeadlineMs) * time.Millisecond,
	}
	for _, t := range input.History {
		opts.ConversationHistory = append(opts.ConversationHistory, domain.ConversationTurn{Role: t.Role, Text: t.Text})
	}

	result, err := s.ports.Agent.ProcessUtterance(ctx, input.Utterance, opts)
	if err != nil {
		return nil, ProcessOutput{}, err
	}
	return nil, toProcessOutput(result), nil
}

func toProcessOutput(r *domain.PipelineResult) ProcessOutput {
	out := ProcessOutput{
		RequestID:    r.ParsedQuery.RequestID,
		Text:         r.Response.Text,
		Speech:       r.Response.Speech,
		Intent:       r.ParsedQuery.Intent.String(),
		Confidence:   r.ParsedQuery.Confidence,
		Path:         string(r.Meta.Path),
		Capability:   r.Action.Capability,
		Verified:     r.Meta.Verified,
		Degraded:     r.Meta.Degraded,
		IsFallback:   r.Meta.IsFallback,
		Error:        r.Meta.Error,
		FactCount:    r.Metrics.FactCount,
		PassageCount: r.Metrics.PassageCount,
		TotalMs:      r.Metrics.TotalMs,
	}
	if len(r.ParsedQuery.Entities) > 0 {
		out.Entities = make(map[string]string, len(r.ParsedQuery.Entities))
		for _, t := range r.ParsedQuery.Entities.Types() {
			out.Entities[string(t)] = strings.Join(r.ParsedQuery.Entities[t].Values(), ", ")
		}
	}
	for _, a := range r.Response.SuggestedActions {
		out.SuggestedActions = append(out.SuggestedActions, ActionOutput{Label: a.Label, Capability: a.Capability})
	}
	if r.ReasoningTrace != nil {
		for _, step := range r.ReasoningTrace.Steps {
			out.ReasoningSteps = append(out.ReasoningSteps, fmt.Sprintf("%d. %s: %s", step.Number, step.Description, step.Conclusion))
		}
	}
	return out
}

// handleResolveTime resolves a time expression.
func (s *Server) handleResolveTime(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TimeInput,
) (*mcp.CallToolResult, TimeOutput, error) {
	opts := driving.TimeOptions{AllowAsync: input.AllowLLM}
	if input.Reference != "" {
		ref, err := time.Parse(time.RFC3339, input.Reference)
		if err != nil {
			return nil, TimeOutput{}, fmt.Errorf("%w: reference must be RFC 3339: %v", domain.ErrInvalidInput, err)
		}
		opts.Reference = ref
	}
	if input.TimeZone != "" {
		loc, err := time.LoadLocation(input.TimeZone)
		if err != nil {
			return nil, TimeOutput{}, fmt.Errorf("%w: time zone %q: %v", domain.ErrInvalidInput, input.TimeZone, err)
		}
		opts.Location = loc
	}

	period, err := s.ports.Agent.ResolveTimeExpression(ctx, input.Expression, opts)
	if err != nil {
		return nil, TimeOutput{}, err
	}
	return nil, toTimeOutput(period), nil
}

func toTimeOutput(p domain.TimePeriod) TimeOutput {
	out := TimeOutput{Type: string(p.Type), Expression: p.Expression, Known: p.IsKnown()}
	if out.Known {
		out.Start = p.Start.Format(time.RFC3339Nano)
		out.End = p.End.Format(time.RFC3339Nano)
	}
	return out
}

// handleExtractParameters extracts schema-shaped parameters.
func (s *Server) handleExtractParameters(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ParamsInput,
) (*mcp.CallToolResult, ParamsOutput, error) {
	var schema []byte
	if len(input.Schema) > 0 {
		raw, err := json.Marshal(input.Schema)
		if err != nil {
			return nil, ParamsOutput{}, fmt.Errorf("%w: schema: %v", domain.ErrInvalidInput, err)
		}
		schema = raw
	}
	res, err := s.ports.Agent.ExtractParameters(ctx, input.Prompt, schema)
	if err != nil {
		return nil, ParamsOutput{}, err
	}
	params := res.Parameters
	if params == nil {
		params = map[string]any{}
	}
	return nil, ParamsOutput{Parameters: params, Confidence: res.Confidence, Reasoning: res.Reasoning}, nil
}

// errKnowledgeUnavailable is returned when no knowledge service is wired.
var errKnowledgeUnavailable = errors.New("knowledge index not available")

// handleSearch queries the knowledge index.
func (s *Server) handleSearch(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if s.ports.Knowledge == nil {
		return nil, SearchOutput{}, errKnowledgeUnavailable
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	results := s.ports.Knowledge.Search(input.Query, domain.SearchOptions{
		Limit:      limit,
		FuzzyMatch: input.Fuzzy,
		Metadata:   input.Metadata,
	})

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		doc := results[i].Document
		output.Results[i] = SearchResultOutput{
			DocumentID:   doc.ID,
			Title:        doc.Fields[domain.FieldTitle],
			Content:      doc.Content(),
			Score:        results[i].Score,
			MatchedTerms: results[i].MatchedTerms,
			Metadata:     doc.Metadata,
		}
	}
	return nil, output, nil
}
