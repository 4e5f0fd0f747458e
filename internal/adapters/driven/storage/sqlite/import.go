package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

// dataTables lists every airport table, in deletion order.
var dataTables = []string{
	"operational_settings", "flights", "maintenance_requests", "stand_utilization",
	"airlines", "aircraft_types", "stands", "piers", "terminals",
}

// Import replaces the whole dataset with snap in a single transaction.
func (s *Store) Import(ctx context.Context, snap domain.AirportSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range dataTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	steps := []func(context.Context, *sql.Tx, domain.AirportSnapshot) error{
		insertTerminals, insertPiers, insertStands, insertAircraftTypes, insertAirlines,
		insertUtilization, insertMaintenance, insertFlights, insertSettings,
	}
	for _, step := range steps {
		if err := step(ctx, tx, snap); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Export reads the whole dataset.
func (s *Store) Export(ctx context.Context) (domain.AirportSnapshot, error) {
	var snap domain.AirportSnapshot
	var err error
	if snap.Terminals, err = s.ListTerminals(ctx); err != nil {
		return snap, err
	}
	if snap.Piers, err = s.ListPiers(ctx); err != nil {
		return snap, err
	}
	if snap.Stands, err = s.ListStands(ctx); err != nil {
		return snap, err
	}
	if snap.AircraftTypes, err = s.ListAircraftTypes(ctx); err != nil {
		return snap, err
	}
	if snap.Airlines, err = s.ListAirlines(ctx); err != nil {
		return snap, err
	}
	if snap.Utilization, err = s.GetStandUtilization(ctx, nil, nil); err != nil {
		return snap, err
	}
	if snap.Maintenance, err = s.GetUpcomingMaintenance(ctx, domain.MaintenanceFilter{}); err != nil {
		return snap, err
	}
	if snap.Flights, err = s.GetFlights(ctx, domain.FlightFilter{}); err != nil {
		return snap, err
	}
	snap.Settings, err = s.GetOperationalSettings(ctx)
	return snap, err
}

// insertRows prepares query once and executes it for each argument row.
func insertRows(ctx context.Context, tx *sql.Tx, what, query string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing %s insert: %w", what, err)
	}
	defer stmt.Close()
	for _, args := range rows {
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("saving %s: %w", what, err)
		}
	}
	return nil
}

func insertTerminals(ctx context.Context, tx *sql.Tx, snap domain.AirportSnapshot) error {
	rows := make([][]any, 0, len(snap.Terminals))
	for _, t := range snap.Terminals {
		alt := t.AltCodes
		if alt == nil {
			alt = []string{}
		}
		altJSON, err := json.Marshal(alt)
		if err != nil {
			return fmt.Errorf("marshalling alt codes: %w", err)
		}
		rows = append(rows, []any{t.ID, t.Code, t.Name, string(altJSON), t.Operating})
	}
	return insertRows(ctx, tx, "terminal", `
		INSERT INTO terminals (id, code, name, alt_codes, operating) VALUES (?, ?, ?, ?, ?)
	`, rows)
}

func insertPiers(ctx context.Context, tx *sql.Tx, snap domain.AirportSnapshot) error {
	rows := make([][]any, 0, len(snap.Piers))
	for _, p := range snap.Piers {
		rows = append(rows, []any{p.ID, p.Code, p.Name, p.TerminalID})
	}
	return insertRows(ctx, tx, "pier", `
		INSERT INTO piers (id, code, name, terminal_id) VALUES (?, ?, ?, ?)
	`, rows)
}

func insertStands(ctx context.Context, tx *sql.Tx, snap domain.AirportSnapshot) error {
	rows := make([][]any, 0, len(snap.Stands))
	for _, st := range snap.Stands {
		status := st.Status
		if status == "" {
			status = domain.StandAvailable
		}
		rows = append(rows, []any{st.ID, st.Code, st.Name, st.TerminalID, st.PierID,
			string(status), st.SizeCategory, st.Contact, st.Active})
	}
	return insertRows(ctx, tx, "stand", `
		INSERT INTO stands (id, code, name, terminal_id, pier_id, status, size_category, contact, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rows)
}

func insertAircraftTypes(ctx context.Context, tx *sql.Tx, snap domain.AirportSnapshot) error {
	rows := make([][]any, 0, len(snap.AircraftTypes))
	for _, a := range snap.AircraftTypes {
		rows = append(rows, []any{a.ID, a.Code, a.ICAOCode, a.Name, a.Manufacturer, a.SizeCategory, a.BodyType})
	}
	return insertRows(ctx, tx, "aircraft type", `
		INSERT INTO aircraft_types (id, code, icao_code, name, manufacturer, size_category, body_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rows)
}

func insertAirlines(ctx context.Context, tx *sql.Tx, snap domain.AirportSnapshot) error {
	rows := make([][]any, 0, len(snap.Airlines))
	for _, a := range snap.Airlines {
		rows = append(rows, []any{a.ID, a.IATACode, a.ICAOCode, a.Name, a.Active})
	}
	return insertRows(ctx, tx, "airline", `
		INSERT INTO airlines (id, iata_code, icao_code, name, active) VALUES (?, ?, ?, ?, ?)
	`, rows)
}

func insertUtilization(ctx context.Context, tx *sql.Tx, snap domain.AirportSnapshot) error {
	rows := make([][]any, 0, len(snap.Utilization))
	for _, u := range snap.Utilization {
		rows = append(rows, []any{u.StandID, millis(u.PeriodStart), millis(u.PeriodEnd), u.OccupiedMinutes, u.Rate})
	}
	return insertRows(ctx, tx, "utilization", `
		INSERT INTO stand_utilization (stand_id, period_start, period_end, occupied_minutes, rate)
		VALUES (?, ?, ?, ?, ?)
	`, rows)
}

func insertMaintenance(ctx context.Context, tx *sql.Tx, snap domain.AirportSnapshot) error {
	rows := make([][]any, 0, len(snap.Maintenance))
	for _, m := range snap.Maintenance {
		if m.End.Before(m.Start) {
			return fmt.Errorf("%w: maintenance %s ends before it starts", domain.ErrInvalidInput, m.ID)
		}
		rows = append(rows, []any{m.ID, m.StandID, m.Title, m.Description, string(m.Status),
			millis(m.Start), millis(m.End)})
	}
	return insertRows(ctx, tx, "maintenance", `
		INSERT INTO maintenance_requests (id, stand_id, title, description, status, start_at, end_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rows)
}

func insertFlights(ctx context.Context, tx *sql.Tx, snap domain.AirportSnapshot) error {
	rows := make([][]any, 0, len(snap.Flights))
	for _, f := range snap.Flights {
		rows = append(rows, []any{f.ID, f.Number, f.AirlineCode, f.AircraftType, string(f.Direction),
			f.FlightType, f.StandID, f.TerminalID, millis(f.Scheduled)})
	}
	return insertRows(ctx, tx, "flight", `
		INSERT INTO flights (id, number, airline_code, aircraft_type, direction, flight_type, stand_id, terminal_id, scheduled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rows)
}

func insertSettings(ctx context.Context, tx *sql.Tx, snap domain.AirportSnapshot) error {
	o := snap.Settings
	if o == (domain.OperationalSettings{}) {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO operational_settings (id, default_turnaround_minutes, buffer_minutes, operating_start, operating_end, time_zone)
		VALUES (1, ?, ?, ?, ?, ?)
	`, o.DefaultTurnaroundMinutes, o.BufferMinutes, o.OperatingStart, o.OperatingEnd, o.TimeZone)
	if err != nil {
		return fmt.Errorf("saving operational settings: %w", err)
	}
	return nil
}
