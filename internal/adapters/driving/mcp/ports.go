package mcp

import (
	"github.com/custodia-labs/airportai/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Agent runs the reasoning pipeline.
	Agent driving.AgentService

	// Knowledge exposes the knowledge index and vocabulary. Optional; the
	// search tool and vocabulary resource report it as unavailable when nil.
	Knowledge driving.KnowledgeService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Agent == nil {
		return ErrMissingAgentService
	}
	return nil
}
