package driving

import "github.com/custodia-labs/airportai/internal/core/domain"

// ActionMapper maps an intent onto the capability that fulfils it.
type ActionMapper interface {
	// Map returns the action for intent. Unknown intents map to an empty action.
	Map(intent domain.Intent) domain.Action
}
