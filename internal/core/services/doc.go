// Package services implements the driving port interfaces.
//
// AgentService runs the reasoning pipeline: it normalises an utterance,
// extracts intent and entities, retrieves facts and passages, answers on the
// fast or deep path and verifies the answer against what was retrieved.
// Every collaborator it reaches through a driven port may be missing or
// failing; the pipeline then degrades instead of erroring.
package services
