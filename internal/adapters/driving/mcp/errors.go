// Package mcp provides an MCP (Model Context Protocol) server adapter for the
// airport reasoning pipeline. It lets AI assistants ask planning questions,
// resolve time expressions and query the knowledge index.
package mcp

import "errors"

// ErrMissingAgentService is returned when the agent service is not provided.
var ErrMissingAgentService = errors.New("mcp: agent service is required")
