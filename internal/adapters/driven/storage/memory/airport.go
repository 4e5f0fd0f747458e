package memory

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

// Ensure AirportStore implements the interface.
var _ driven.AirportData = (*AirportStore)(nil)

// AirportStore is an in-memory implementation of driven.AirportData.
// The dataset is swapped as a whole by Replace, so readers never observe a
// half-loaded seed.
type AirportStore struct {
	mu   sync.RWMutex
	data domain.AirportSnapshot
}

// NewAirportStore creates a store holding snap.
func NewAirportStore(snap domain.AirportSnapshot) *AirportStore {
	return &AirportStore{data: snap}
}

// LoadSeedFile reads a YAML seed file.
func LoadSeedFile(path string) (domain.AirportSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.AirportSnapshot{}, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	snap, err := DecodeSeed(f)
	if err != nil {
		return domain.AirportSnapshot{}, fmt.Errorf("seed %s: %w", path, err)
	}
	return snap, nil
}

// DecodeSeed decodes a YAML seed. Unknown keys are rejected so typos in
// hand-written seeds surface immediately.
func DecodeSeed(r io.Reader) (domain.AirportSnapshot, error) {
	var snap domain.AirportSnapshot
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&snap); err != nil && err != io.EOF {
		return domain.AirportSnapshot{}, fmt.Errorf("%w: decode seed: %v", domain.ErrInvalidInput, err)
	}
	return snap, nil
}

// Replace swaps the whole dataset.
func (s *AirportStore) Replace(snap domain.AirportSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = snap
}

// Snapshot returns a copy of the dataset.
func (s *AirportStore) Snapshot() domain.AirportSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.data
	out.Terminals = slices.Clone(s.data.Terminals)
	out.Piers = slices.Clone(s.data.Piers)
	out.Stands = slices.Clone(s.data.Stands)
	out.AircraftTypes = slices.Clone(s.data.AircraftTypes)
	out.Airlines = slices.Clone(s.data.Airlines)
	out.Utilization = slices.Clone(s.data.Utilization)
	out.Maintenance = slices.Clone(s.data.Maintenance)
	out.Flights = slices.Clone(s.data.Flights)
	return out
}

// ListTerminals returns every terminal.
func (s *AirportStore) ListTerminals(ctx context.Context) ([]domain.Terminal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.Terminals), nil
}

// ListPiers returns every pier.
func (s *AirportStore) ListPiers(ctx context.Context) ([]domain.Pier, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.Piers), nil
}

// ListStands returns every stand.
func (s *AirportStore) ListStands(ctx context.Context) ([]domain.Stand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.Stands), nil
}

// ListAircraftTypes returns every aircraft type.
func (s *AirportStore) ListAircraftTypes(ctx context.Context) ([]domain.AircraftType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.AircraftTypes), nil
}

// ListAirlines returns every airline.
func (s *AirportStore) ListAirlines(ctx context.Context) ([]domain.Airline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.Airlines), nil
}

// GetStandUtilization returns utilisation rows for the stands overlapping period.
func (s *AirportStore) GetStandUtilization(ctx context.Context, standIDs []string, period *domain.TimePeriod) ([]domain.StandUtilization, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.StandUtilization
	for _, u := range s.data.Utilization {
		if !matchAny(standIDs, u.StandID) {
			continue
		}
		if period != nil && !period.Overlaps(u.PeriodStart, u.PeriodEnd) {
			continue
		}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StandID != out[j].StandID {
			return out[i].StandID < out[j].StandID
		}
		return out[i].PeriodStart.Before(out[j].PeriodStart)
	})
	return out, nil
}

// GetUpcomingMaintenance returns maintenance requests matching filter, by start time.
func (s *AirportStore) GetUpcomingMaintenance(ctx context.Context, filter domain.MaintenanceFilter) ([]domain.MaintenanceRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.MaintenanceRequest
	for _, m := range s.data.Maintenance {
		if !matchAny(filter.StandIDs, m.StandID) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, m.Status) {
			continue
		}
		if filter.Period != nil && !filter.Period.Overlaps(m.Start, m.End) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return limit(out, filter.Limit), nil
}

// GetFlights returns flights matching filter, by scheduled time.
func (s *AirportStore) GetFlights(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Flight
	for _, f := range s.data.Flights {
		switch {
		case !matchAny(filter.Numbers, f.Number),
			!matchAny(filter.AirlineCodes, f.AirlineCode),
			!matchAny(filter.TerminalIDs, f.TerminalID),
			!matchAny(filter.StandIDs, f.StandID),
			filter.Direction != "" && filter.Direction != f.Direction,
			filter.Period != nil && filter.Period.IsKnown() && !filter.Period.Contains(f.Scheduled):
			continue
		}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Scheduled.Before(out[j].Scheduled) })
	return limit(out, filter.Limit), nil
}

// GetOperationalSettings returns the airport-wide settings.
func (s *AirportStore) GetOperationalSettings(ctx context.Context) (domain.OperationalSettings, error) {
	if err := ctx.Err(); err != nil {
		return domain.OperationalSettings{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Settings, nil
}

// matchAny reports whether v equals one of want, ignoring case. An empty
// want matches everything.
func matchAny(want []string, v string) bool {
	if len(want) == 0 {
		return true
	}
	for _, w := range want {
		if strings.EqualFold(w, v) {
			return true
		}
	}
	return false
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
