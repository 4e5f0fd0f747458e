package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

// uriScheme is the custom URI scheme for pipeline resources.
const uriScheme = "airportai://"

// vocabularyKinds orders the vocabulary resource.
var vocabularyKinds = []domain.VocabularyKind{
	domain.VocabTerminal, domain.VocabPier, domain.VocabStand,
	domain.VocabAircraftType, domain.VocabAirline,
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "metrics",
		Name:        "metrics",
		Description: "Aggregate pipeline metrics: volumes, latency, paths and top intents",
		MIMEType:    "application/json",
	}, s.handleMetricsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "vocabulary",
		Name:        "vocabulary",
		Description: "Known terminals, piers, stands, aircraft types and airlines",
		MIMEType:    "application/json",
	}, s.handleVocabularyResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "entities/{entityId}/related",
		Name:        "related-entities",
		Description: "Entities related to an airport entity (stand to pier to terminal)",
		MIMEType:    "application/json",
	}, s.handleRelatedResource)
}

// handleMetricsResource returns the metrics snapshot.
func (s *Server) handleMetricsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.ports.Agent.GetMetrics())
}

// vocabularyInfo is the vocabulary resource payload.
type vocabularyInfo struct {
	LoadedAt string                                     `json:"loadedAt"`
	Entries  map[domain.VocabularyKind][]vocabularyItem `json:"entries"`
}

type vocabularyItem struct {
	ID    string   `json:"id"`
	Code  string   `json:"code"`
	Name  string   `json:"name"`
	Alias []string `json:"aliases,omitempty"`
}

// handleVocabularyResource returns the current vocabulary snapshot.
func (s *Server) handleVocabularyResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Knowledge == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	snap, err := s.ports.Knowledge.Vocabulary(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading vocabulary: %w", err)
	}

	info := vocabularyInfo{
		LoadedAt: snap.LoadedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Entries:  make(map[domain.VocabularyKind][]vocabularyItem),
	}
	for _, kind := range vocabularyKinds {
		for _, e := range snap.Entries(kind) {
			info.Entries[kind] = append(info.Entries[kind], vocabularyItem{
				ID:    e.ID,
				Code:  e.PrimaryCode,
				Name:  e.DisplayName,
				Alias: e.AlternateCodes,
			})
		}
	}
	return jsonResource(req.Params.URI, info)
}

// handleRelatedResource returns entities related to the one in the URI.
func (s *Server) handleRelatedResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Knowledge == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	entity := extractEntityID(req.Params.URI)
	if entity == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	related := s.ports.Knowledge.Related(entity, domain.RelatedOptions{IncludeTransitive: true, MaxDepth: 2})
	if related == nil {
		related = []domain.RelatedEntity{}
	}
	return jsonResource(req.Params.URI, related)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractEntityID extracts the entity from airportai://entities/{entityId}/related.
func extractEntityID(uri string) string {
	const prefix = uriScheme + "entities/"
	const suffix = "/related"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
}
