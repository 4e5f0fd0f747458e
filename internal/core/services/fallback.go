package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

// helpText answers help requests without the LLM.
const helpText = `I can answer questions about the airport's stands, terminals, capacity and maintenance. Try:
- "show capacity for Terminal 2 tomorrow"
- "is stand 12A available?"
- "what maintenance is planned for pier B this week?"
- "what if we close stand A1 between 9am and 5pm?"
- "compare scenario 1 and scenario 2"`

const greetingText = "Hello! Ask me about stand availability, capacity, maintenance or flights."

// fallbackTexts are the user-visible answers used when the LLM path fails.
var fallbackTexts = map[domain.Intent]string{
	domain.IntentCapacityQuery:       "I couldn't complete the capacity analysis right now.",
	domain.IntentUtilizationQuery:    "I couldn't compute stand utilisation right now.",
	domain.IntentMaintenanceQuery:    "I couldn't summarise the maintenance schedule right now.",
	domain.IntentMaintenanceCreate:   "I couldn't prepare that maintenance request. Please try again or use the maintenance planner.",
	domain.IntentMaintenanceUpdate:   "I couldn't prepare that maintenance change. Please try again or use the maintenance planner.",
	domain.IntentStandStatusQuery:    "I couldn't check the stand status in full right now.",
	domain.IntentInfrastructureQuery: "I couldn't describe the airport layout in full right now.",
	domain.IntentFlightQuery:         "I couldn't look up those flights in full right now.",
	domain.IntentAirlineQuery:        "I couldn't look up that airline in full right now.",
	domain.IntentScenarioCreate:      "I couldn't set up that scenario right now. Please try again shortly.",
	domain.IntentScenarioQuery:       "I couldn't load scenario details right now.",
	domain.IntentScenarioCompare:     "I couldn't compare those scenarios right now.",
	domain.IntentWhatIfAnalysis:      "I couldn't run that what-if analysis right now.",
	domain.IntentForecastQuery:       "I couldn't produce a forecast right now.",
	domain.IntentOptimizationQuery:   "I couldn't run the optimisation right now.",
	domain.IntentVisualization:       "I couldn't prepare that visualisation right now.",
	domain.IntentReportRequest:       "I couldn't generate that report right now.",
	domain.IntentSettingsQuery:       "I couldn't read the operational settings right now.",
	domain.IntentHelpRequest:         helpText,
	domain.IntentGreeting:            greetingText,
	domain.IntentUnknown:             "Sorry, I didn't understand that. Try asking about stands, capacity or maintenance, or say \"help\".",
}

// maxFallbackFacts caps the facts listed in a templated answer.
const maxFallbackFacts = 3

// FallbackResponse renders the templated answer for an intent, listing the
// first few retrieved facts when there are any.
func FallbackResponse(intent domain.Intent, bundle domain.KnowledgeBundle) domain.Response {
	text, ok := fallbackTexts[intent]
	if !ok {
		text = fallbackTexts[domain.IntentUnknown]
	}
	if intent == domain.IntentHelpRequest || intent == domain.IntentGreeting || intent == domain.IntentUnknown {
		return domain.Response{Text: text, SuggestedActions: []domain.SuggestedAction{}}
	}

	var sb strings.Builder
	sb.WriteString(text)
	if n := len(bundle.Facts); n > 0 {
		fmt.Fprintf(&sb, " Here is what I found (%d records):", n)
		for i, f := range bundle.Facts {
			if i == maxFallbackFacts {
				fmt.Fprintf(&sb, "\n- and %d more", n-maxFallbackFacts)
				break
			}
			sb.WriteString("\n- ")
			sb.WriteString(f.Render())
		}
	}
	return domain.Response{Text: sb.String(), SuggestedActions: []domain.SuggestedAction{}}
}
