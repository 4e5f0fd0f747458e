package services

import (
	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driving"
)

// Ensure ActionMapper implements the interface.
var _ driving.ActionMapper = (*ActionMapper)(nil)

// actionTable maps every intent onto its downstream capability.
// Read-only intents may run autonomously; anything that changes state needs approval.
var actionTable = map[domain.Intent]domain.Action{
	domain.IntentHelpRequest:         {Capability: "help.get", AllowVoice: true, AllowAutonomous: true},
	domain.IntentGreeting:            {Capability: "conversation.greet", AllowVoice: true, AllowAutonomous: true},
	domain.IntentCapacityQuery:       {Capability: "capacity.query", AllowVoice: true, AllowAutonomous: true},
	domain.IntentUtilizationQuery:    {Capability: "capacity.utilization", AllowVoice: true, AllowAutonomous: true},
	domain.IntentMaintenanceQuery:    {Capability: "maintenance.query", AllowVoice: true, AllowAutonomous: true},
	domain.IntentMaintenanceCreate:   {Capability: "maintenance.create", RequiresApproval: true, AllowVoice: true},
	domain.IntentMaintenanceUpdate:   {Capability: "maintenance.update", RequiresApproval: true, AllowVoice: true},
	domain.IntentStandStatusQuery:    {Capability: "stand.status", AllowVoice: true, AllowAutonomous: true},
	domain.IntentInfrastructureQuery: {Capability: "infrastructure.query", AllowVoice: true, AllowAutonomous: true},
	domain.IntentFlightQuery:         {Capability: "flight.query", AllowVoice: true, AllowAutonomous: true},
	domain.IntentAirlineQuery:        {Capability: "airline.query", AllowVoice: true, AllowAutonomous: true},
	domain.IntentScenarioCreate:      {Capability: "scenario.create", RequiresApproval: true},
	domain.IntentScenarioQuery:       {Capability: "scenario.query", AllowVoice: true, AllowAutonomous: true},
	domain.IntentScenarioCompare:     {Capability: "scenario.compare", AllowAutonomous: true},
	domain.IntentWhatIfAnalysis:      {Capability: "scenario.what_if", AllowVoice: true},
	domain.IntentForecastQuery:       {Capability: "capacity.forecast", AllowVoice: true, AllowAutonomous: true},
	domain.IntentOptimizationQuery:   {Capability: "capacity.optimize", RequiresApproval: true},
	domain.IntentVisualization:       {Capability: "visualization.render", AllowAutonomous: true},
	domain.IntentReportRequest:       {Capability: "report.generate", AllowAutonomous: true},
	domain.IntentSettingsQuery:       {Capability: "settings.query", AllowVoice: true, AllowAutonomous: true},
}

// ActionMapper maps intents onto capabilities.
type ActionMapper struct{}

// NewActionMapper creates an action mapper.
func NewActionMapper() *ActionMapper {
	return &ActionMapper{}
}

// Map returns the action for intent; unknown intents get the zero action.
func (m *ActionMapper) Map(intent domain.Intent) domain.Action {
	return actionTable[intent]
}
