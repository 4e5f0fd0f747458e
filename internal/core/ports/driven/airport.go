package driven

import (
	"context"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

// AirportData provides read access to the airport reference and operational data.
// The host supplies it; the pipeline never writes through it.
type AirportData interface {
	// ListTerminals returns every terminal.
	ListTerminals(ctx context.Context) ([]domain.Terminal, error)

	// ListPiers returns every pier.
	ListPiers(ctx context.Context) ([]domain.Pier, error)

	// ListStands returns every stand.
	ListStands(ctx context.Context) ([]domain.Stand, error)

	// ListAircraftTypes returns every known aircraft type.
	ListAircraftTypes(ctx context.Context) ([]domain.AircraftType, error)

	// ListAirlines returns every airline.
	ListAirlines(ctx context.Context) ([]domain.Airline, error)

	// GetStandUtilization returns utilisation for the given stands (all when empty)
	// overlapping the period (any when nil).
	GetStandUtilization(ctx context.Context, standIDs []string, period *domain.TimePeriod) ([]domain.StandUtilization, error)

	// GetUpcomingMaintenance returns maintenance requests matching the filter.
	GetUpcomingMaintenance(ctx context.Context, filter domain.MaintenanceFilter) ([]domain.MaintenanceRequest, error)

	// GetFlights returns flights matching the filter.
	GetFlights(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error)

	// GetOperationalSettings returns airport-wide planning parameters.
	GetOperationalSettings(ctx context.Context) (domain.OperationalSettings, error)
}
