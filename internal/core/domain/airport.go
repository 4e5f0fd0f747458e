package domain

import "time"

// Terminal is a passenger terminal building.
type Terminal struct {
	ID        string   `json:"id" yaml:"id"`
	Code      string   `json:"code" yaml:"code"`
	Name      string   `json:"name" yaml:"name"`
	AltCodes  []string `json:"altCodes,omitempty" yaml:"alt_codes"`
	Operating bool     `json:"operating" yaml:"operating"`
}

// Pier is a pier or concourse attached to a terminal.
type Pier struct {
	ID         string `json:"id" yaml:"id"`
	Code       string `json:"code" yaml:"code"`
	Name       string `json:"name" yaml:"name"`
	TerminalID string `json:"terminalId" yaml:"terminal_id"`
}

// StandStatus is the operational state of a stand.
type StandStatus string

// Stand statuses.
const (
	StandAvailable   StandStatus = "available"
	StandOccupied    StandStatus = "occupied"
	StandMaintenance StandStatus = "maintenance"
	StandClosed      StandStatus = "closed"
)

// Stand is an aircraft parking position.
type Stand struct {
	ID         string      `json:"id" yaml:"id"`
	Code       string      `json:"code" yaml:"code"`
	Name       string      `json:"name" yaml:"name"`
	TerminalID string      `json:"terminalId" yaml:"terminal_id"`
	PierID     string      `json:"pierId,omitempty" yaml:"pier_id"`
	Status     StandStatus `json:"status" yaml:"status"`
	// SizeCategory is the largest ICAO aerodrome reference code (A-F) the stand accepts.
	SizeCategory string `json:"sizeCategory" yaml:"size_category"`
	Contact      bool   `json:"contact" yaml:"contact"`
	Active       bool   `json:"active" yaml:"active"`
}

// AircraftType is an aircraft model known to the planner.
type AircraftType struct {
	ID           string `json:"id" yaml:"id"`
	Code         string `json:"code" yaml:"code"` // canonical, e.g. B737, A320
	ICAOCode     string `json:"icaoCode,omitempty" yaml:"icao_code"`
	Name         string `json:"name" yaml:"name"`
	Manufacturer string `json:"manufacturer" yaml:"manufacturer"`
	SizeCategory string `json:"sizeCategory" yaml:"size_category"`
	BodyType     string `json:"bodyType" yaml:"body_type"`
}

// Airline is an operator.
type Airline struct {
	ID       string `json:"id" yaml:"id"`
	IATACode string `json:"iataCode" yaml:"iata_code"`
	ICAOCode string `json:"icaoCode,omitempty" yaml:"icao_code"`
	Name     string `json:"name" yaml:"name"`
	Active   bool   `json:"active" yaml:"active"`
}

// StandUtilization is the occupancy of one stand over a period.
type StandUtilization struct {
	StandID         string    `json:"standId" yaml:"stand_id"`
	PeriodStart     time.Time `json:"periodStart" yaml:"period_start"`
	PeriodEnd       time.Time `json:"periodEnd" yaml:"period_end"`
	OccupiedMinutes int       `json:"occupiedMinutes" yaml:"occupied_minutes"`
	// Rate is occupied time over available time in [0,1].
	Rate float64 `json:"rate" yaml:"rate"`
}

// MaintenanceStatus is the lifecycle state of a maintenance request.
type MaintenanceStatus string

// Maintenance statuses.
const (
	MaintenanceRequested  MaintenanceStatus = "requested"
	MaintenanceApproved   MaintenanceStatus = "approved"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

// MaintenanceRequest is a planned or active stand closure.
type MaintenanceRequest struct {
	ID          string            `json:"id" yaml:"id"`
	StandID     string            `json:"standId" yaml:"stand_id"`
	Title       string            `json:"title" yaml:"title"`
	Description string            `json:"description,omitempty" yaml:"description"`
	Status      MaintenanceStatus `json:"status" yaml:"status"`
	Start       time.Time         `json:"start" yaml:"start"`
	End         time.Time         `json:"end" yaml:"end"`
}

// MaintenanceFilter narrows GetUpcomingMaintenance.
type MaintenanceFilter struct {
	StandIDs []string
	Statuses []MaintenanceStatus
	Period   *TimePeriod
	Limit    int
}

// FlightDirection distinguishes arrivals from departures.
type FlightDirection string

// Flight directions.
const (
	FlightArrival   FlightDirection = "arrival"
	FlightDeparture FlightDirection = "departure"
)

// Flight is a scheduled movement.
type Flight struct {
	ID           string          `json:"id" yaml:"id"`
	Number       string          `json:"number" yaml:"number"`
	AirlineCode  string          `json:"airlineCode" yaml:"airline_code"`
	AircraftType string          `json:"aircraftType" yaml:"aircraft_type"`
	Direction    FlightDirection `json:"direction" yaml:"direction"`
	FlightType   string          `json:"flightType" yaml:"flight_type"` // domestic, international, cargo
	StandID      string          `json:"standId,omitempty" yaml:"stand_id"`
	TerminalID   string          `json:"terminalId,omitempty" yaml:"terminal_id"`
	Scheduled    time.Time       `json:"scheduled" yaml:"scheduled"`
}

// FlightFilter narrows GetFlights.
type FlightFilter struct {
	Numbers      []string
	AirlineCodes []string
	TerminalIDs  []string
	StandIDs     []string
	Direction    FlightDirection
	Period       *TimePeriod
	Limit        int
}

// OperationalSettings holds airport-wide planning parameters.
type OperationalSettings struct {
	DefaultTurnaroundMinutes int    `json:"defaultTurnaroundMinutes" yaml:"default_turnaround_minutes"`
	BufferMinutes            int    `json:"bufferMinutes" yaml:"buffer_minutes"`
	OperatingStart           string `json:"operatingStart" yaml:"operating_start"` // HH:MM
	OperatingEnd             string `json:"operatingEnd" yaml:"operating_end"`     // HH:MM
	TimeZone                 string `json:"timeZone" yaml:"time_zone"`
}

// AirportSnapshot is a complete airport dataset. Seed files decode into it and
// stores can be bulk-loaded from it.
type AirportSnapshot struct {
	Terminals     []Terminal           `json:"terminals" yaml:"terminals"`
	Piers         []Pier               `json:"piers" yaml:"piers"`
	Stands        []Stand              `json:"stands" yaml:"stands"`
	AircraftTypes []AircraftType       `json:"aircraftTypes" yaml:"aircraft_types"`
	Airlines      []Airline            `json:"airlines" yaml:"airlines"`
	Utilization   []StandUtilization   `json:"utilization" yaml:"utilization"`
	Maintenance   []MaintenanceRequest `json:"maintenance" yaml:"maintenance"`
	Flights       []Flight             `json:"flights" yaml:"flights"`
	Settings      OperationalSettings  `json:"settings" yaml:"settings"`
}
