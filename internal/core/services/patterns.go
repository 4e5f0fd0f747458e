package services

import (
	"regexp"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

// PatternGroup is an intent with its regexes and fixed confidence.
type PatternGroup struct {
	Intent     domain.Intent
	Confidence float64
	Patterns   []*regexp.Regexp
}

func group(intent domain.Intent, confidence float64, patterns ...string) PatternGroup {
	g := PatternGroup{Intent: intent, Confidence: confidence}
	for _, p := range patterns {
		g.Patterns = append(g.Patterns, regexp.MustCompile(p))
	}
	return g
}

// Pattern confidences.
const (
	confidenceHelp          = 0.95
	confidenceGreeting      = 0.90
	confidenceStrong        = 0.85
	confidenceVisualization = 0.80
	confidenceWeak          = 0.75
)

// MinimalPatterns returns the mandatory pattern groups in match order.
// Patterns run against the lower-cased utterance.
func MinimalPatterns() []PatternGroup {
	return []PatternGroup{
		group(domain.IntentHelpRequest, confidenceHelp,
			`^(please\s+)?help\b`,
			`\bwhat can you (do|help)\b`,
			`\bhow (do|can) i use\b`,
			`\b(list|show)( me)? (the )?commands\b`,
		),
		group(domain.IntentWhatIfAnalysis, confidenceStrong,
			`\bwhat (if|would happen|happens if)\b`,
			`\bsuppose (we|that)\b`,
			`\bimpact of (closing|removing|adding|opening)\b`,
		),
		group(domain.IntentScenarioCreate, confidenceStrong,
			`\b(create|build|make|set up|start|new)\b.*\bscenario\b`,
		),
		group(domain.IntentScenarioQuery, confidenceStrong,
			`\b(show|list|open|view|find|load)\b.*\bscenarios?\b`,
			`\bscenarios?\b.*\b(results?|status|details)\b`,
		),
		group(domain.IntentVisualization, confidenceVisualization,
			`\b(chart|graph|plot|visuali[sz]e|heat ?map|diagram|gantt|timeline)\b`,
			`\bon (the|a) map\b`,
		),
		group(domain.IntentMaintenanceQuery, confidenceStrong,
			`\bmaintenance\b`,
			`\b(repairs?|work orders?|closures?)\b`,
		),
		group(domain.IntentStandStatusQuery, confidenceStrong,
			`\bis stand\b`,
			`\bstands?\s+[a-z]?\d+[a-z]?\b.*\b(available|free|occupied|open|closed|status|in use|vacant)\b`,
			`\b(available|free|occupied|open|closed|vacant) stands?\b`,
			`\b(stand status|status of stand)`,
		),
		group(domain.IntentCapacityQuery, confidenceStrong,
			`\bcapacity\b`,
			`\bhow many (stands|aircraft|flights|movements) can\b`,
			`\bthroughput\b`,
		),
		group(domain.IntentInfrastructureQuery, confidenceVisualization,
			`\binfrastructure\b`,
			`\b(list|show|which|what)\b.*\b(terminals|piers|stands)\b`,
			`\bhow many (terminals|piers|stands)\b`,
			`\b(layout|configuration) of (the )?(terminal|pier|airport)\b`,
		),
	}
}

// ExpandedPatterns returns the minimal set plus groups for the remaining intents.
// Groups that must win over a minimal group are placed before it.
func ExpandedPatterns() []PatternGroup {
	minimal := MinimalPatterns()
	out := make([]PatternGroup, 0, len(minimal)+10)
	for _, g := range minimal {
		switch g.Intent {
		case domain.IntentWhatIfAnalysis:
			out = append(out,
				group(domain.IntentGreeting, confidenceGreeting,
					`^(hi|hello|hey|good (morning|afternoon|evening))\b[\s!.,]*$`,
				),
			)
		case domain.IntentScenarioCreate:
			out = append(out,
				group(domain.IntentScenarioCompare, confidenceStrong,
					`\bcompare\b.*\bscenarios?\b`,
					`\bscenarios?\b.*\b(versus|vs\.?|compared)\b`,
				),
			)
		case domain.IntentMaintenanceQuery:
			out = append(out,
				group(domain.IntentMaintenanceCreate, confidenceStrong,
					`\b(schedule|create|book|raise|log|add|plan)\b.*\bmaintenance\b`,
				),
				group(domain.IntentMaintenanceUpdate, confidenceStrong,
					`\b(update|change|move|reschedule|cancel|extend)\b.*\bmaintenance\b`,
				),
			)
		case domain.IntentInfrastructureQuery:
			out = append(out,
				group(domain.IntentUtilizationQuery, confidenceWeak,
					`\butili[sz]ation\b`, `\bhow busy\b`, `\boccupancy\b`,
				),
				group(domain.IntentForecastQuery, confidenceWeak,
					`\b(forecast|predict|projection|projected)\b`,
				),
				group(domain.IntentOptimizationQuery, confidenceWeak,
					`\b(optimi[sz]e|optimal|best allocation|rebalance)\b`,
				),
				group(domain.IntentFlightQuery, confidenceWeak,
					`\bflights?\b`, `\b(arrivals|departures)\b`,
				),
				group(domain.IntentAirlineQuery, confidenceWeak,
					`\bairlines?\b`, `\bcarriers?\b`,
				),
			)
		}
		out = append(out, g)
	}
	out = append(out,
		group(domain.IntentReportRequest, confidenceWeak,
			`\breport\b`, `\bsummary of\b`, `\bsummari[sz]e\b`,
		),
		group(domain.IntentSettingsQuery, confidenceWeak,
			`\b(settings|turnaround time|buffer time|operating hours)\b`,
		),
	)
	return out
}

// PatternMatcher classifies utterances with an ordered list of regex groups.
type PatternMatcher struct {
	groups []PatternGroup
}

// NewPatternMatcher creates a matcher. Nil groups use ExpandedPatterns.
func NewPatternMatcher(groups []PatternGroup) *PatternMatcher {
	if groups == nil {
		groups = ExpandedPatterns()
	}
	return &PatternMatcher{groups: groups}
}

// Match returns the first group with a matching regex, in declaration order.
func (m *PatternMatcher) Match(n domain.NormalizedUtterance) domain.PatternMatch {
	for _, g := range m.groups {
		for _, re := range g.Patterns {
			if re.MatchString(n.Lower) {
				return domain.PatternMatch{
					Intent:         g.Intent,
					Confidence:     g.Confidence,
					PatternMatched: true,
					Pattern:        re.String(),
				}
			}
		}
	}
	return domain.PatternMatch{Intent: domain.IntentUnknown}
}
