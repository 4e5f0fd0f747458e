package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntent(t *testing.T) {
	assert.Equal(t, IntentHelpRequest, ParseIntent("help_request"))
	assert.Equal(t, IntentUnknown, ParseIntent("book_flight"))
	assert.Equal(t, IntentUnknown, ParseIntent(""))
}

func TestIntent_Classes(t *testing.T) {
	assert.True(t, IntentCapacityQuery.RequiresTimeframe())
	assert.False(t, IntentHelpRequest.RequiresTimeframe())

	assert.True(t, IntentStandStatusQuery.IsFactual())
	assert.False(t, IntentWhatIfAnalysis.IsFactual())

	assert.True(t, IntentScenarioCompare.PrefersDeepReasoning())
	assert.False(t, IntentCapacityQuery.PrefersDeepReasoning())

	assert.Equal(t, "maintenance", IntentStandStatusQuery.ReasoningDomain())
	assert.Equal(t, "general", IntentUnknown.ReasoningDomain())

	for _, i := range AllIntents() {
		assert.True(t, i.IsValid(), i)
	}
}
