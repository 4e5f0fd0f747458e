package domain

// Intent is the closed classification of an utterance's purpose.
type Intent string

// Recognised intents.
const (
	IntentHelpRequest         Intent = "help_request"
	IntentGreeting            Intent = "greeting"
	IntentCapacityQuery       Intent = "capacity_query"
	IntentUtilizationQuery    Intent = "utilization_query"
	IntentMaintenanceQuery    Intent = "maintenance_query"
	IntentMaintenanceCreate   Intent = "maintenance_create"
	IntentMaintenanceUpdate   Intent = "maintenance_update"
	IntentStandStatusQuery    Intent = "stand_status_query"
	IntentInfrastructureQuery Intent = "infrastructure_query"
	IntentFlightQuery         Intent = "flight_query"
	IntentAirlineQuery        Intent = "airline_query"
	IntentScenarioCreate      Intent = "scenario_create"
	IntentScenarioQuery       Intent = "scenario_query"
	IntentScenarioCompare     Intent = "scenario_compare"
	IntentWhatIfAnalysis      Intent = "what_if_analysis"
	IntentForecastQuery       Intent = "forecast_query"
	IntentOptimizationQuery   Intent = "optimization_query"
	IntentVisualization       Intent = "visualization_command"
	IntentReportRequest       Intent = "report_request"
	IntentSettingsQuery       Intent = "settings_query"
	IntentUnknown             Intent = "unknown"
)

// AllIntents returns every intent in declaration order.
func AllIntents() []Intent {
	return []Intent{
		IntentHelpRequest,
		IntentGreeting,
		IntentCapacityQuery,
		IntentUtilizationQuery,
		IntentMaintenanceQuery,
		IntentMaintenanceCreate,
		IntentMaintenanceUpdate,
		IntentStandStatusQuery,
		IntentInfrastructureQuery,
		IntentFlightQuery,
		IntentAirlineQuery,
		IntentScenarioCreate,
		IntentScenarioQuery,
		IntentScenarioCompare,
		IntentWhatIfAnalysis,
		IntentForecastQuery,
		IntentOptimizationQuery,
		IntentVisualization,
		IntentReportRequest,
		IntentSettingsQuery,
		IntentUnknown,
	}
}

// ParseIntent converts a label into an Intent, returning IntentUnknown
// for anything outside the enumeration.
func ParseIntent(s string) Intent {
	i := Intent(s)
	if i.IsValid() {
		return i
	}
	return IntentUnknown
}

// IsValid returns true if the intent is recognised.
func (i Intent) IsValid() bool {
	for _, known := range AllIntents() {
		if i == known {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (i Intent) String() string {
	return string(i)
}

// RequiresTimeframe reports whether answers for this intent are scoped to a
// time period, so a missing period defaults to "today".
func (i Intent) RequiresTimeframe() bool {
	switch i {
	case IntentCapacityQuery, IntentMaintenanceQuery, IntentStandStatusQuery:
		return true
	default:
		return false
	}
}

// IsFactual reports whether the intent asks for facts held by the data ports.
func (i Intent) IsFactual() bool {
	switch i {
	case IntentCapacityQuery, IntentUtilizationQuery, IntentMaintenanceQuery,
		IntentStandStatusQuery, IntentInfrastructureQuery, IntentFlightQuery,
		IntentAirlineQuery, IntentSettingsQuery:
		return true
	default:
		return false
	}
}

// PrefersDeepReasoning reports whether the intent always takes the deep path.
func (i Intent) PrefersDeepReasoning() bool {
	return i == IntentWhatIfAnalysis || i == IntentScenarioCompare
}

// ReasoningDomain names the planning domain used to tag deep-reasoning prompts.
func (i Intent) ReasoningDomain() string {
	switch i {
	case IntentCapacityQuery, IntentUtilizationQuery, IntentForecastQuery, IntentOptimizationQuery:
		return "capacity"
	case IntentMaintenanceQuery, IntentMaintenanceCreate, IntentMaintenanceUpdate, IntentStandStatusQuery:
		return "maintenance"
	case IntentFlightQuery, IntentAirlineQuery:
		return "scheduling"
	case IntentInfrastructureQuery, IntentSettingsQuery:
		return "infrastructure"
	case IntentScenarioCreate, IntentScenarioQuery, IntentScenarioCompare, IntentWhatIfAnalysis:
		return "scenario"
	default:
		return "general"
	}
}
