// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - AirportData: Reference and operational airport data
//   - KnowledgeIndex: In-memory inverted index of contextual passages
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the pipeline degrades gracefully:
//
//   - LLMCapabilities: Structured LLM operations. Without it, only pattern
//     matching, deterministic time resolution and templated answers run.
//   - LLMService: Raw completion provider behind LLMCapabilities.
//   - PromptStore: Custom prompt templates. Embedded defaults are used otherwise.
//   - Logger: Structured logging. A no-op logger is used otherwise.
//   - Clock: Time source. The wall clock is used otherwise.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
