package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

// ListTerminals returns every terminal ordered by code.
func (s *Store) ListTerminals(ctx context.Context) ([]domain.Terminal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, alt_codes, operating FROM terminals ORDER BY code
	`)
	if err != nil {
		return nil, wrapErr("querying terminals", err)
	}
	defer rows.Close()

	var out []domain.Terminal //nolint:prealloc // size unknown from query
	for rows.Next() {
		var t domain.Terminal
		var altJSON string
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &altJSON, &t.Operating); err != nil {
			return nil, wrapErr("scanning terminal", err)
		}
		if err := json.Unmarshal([]byte(altJSON), &t.AltCodes); err != nil {
			return nil, wrapErr("unmarshaling alt codes", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterating terminals", err)
	}
	return out, nil
}

// ListPiers returns every pier ordered by code.
func (s *Store) ListPiers(ctx context.Context) ([]domain.Pier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, terminal_id FROM piers ORDER BY code
	`)
	if err != nil {
		return nil, wrapErr("querying piers", err)
	}
	defer rows.Close()

	var out []domain.Pier //nolint:prealloc // size unknown from query
	for rows.Next() {
		var p domain.Pier
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.TerminalID); err != nil {
			return nil, wrapErr("scanning pier", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterating piers", err)
	}
	return out, nil
}

// ListStands returns every stand ordered by code.
func (s *Store) ListStands(ctx context.Context) ([]domain.Stand, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, terminal_id, pier_id, status, size_category, contact, active
		FROM stands ORDER BY code
	`)
	if err != nil {
		return nil, wrapErr("querying stands", err)
	}
	defer rows.Close()

	var out []domain.Stand //nolint:prealloc // size unknown from query
	for rows.Next() {
		var st domain.Stand
		var status string
		if err := rows.Scan(&st.ID, &st.Code, &st.Name, &st.TerminalID, &st.PierID,
			&status, &st.SizeCategory, &st.Contact, &st.Active); err != nil {
			return nil, wrapErr("scanning stand", err)
		}
		st.Status = domain.StandStatus(status)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterating stands", err)
	}
	return out, nil
}

// ListAircraftTypes returns every aircraft type ordered by code.
func (s *Store) ListAircraftTypes(ctx context.Context) ([]domain.AircraftType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, icao_code, name, manufacturer, size_category, body_type
		FROM aircraft_types ORDER BY code
	`)
	if err != nil {
		return nil, wrapErr("querying aircraft types", err)
	}
	defer rows.Close()

	var out []domain.AircraftType //nolint:prealloc // size unknown from query
	for rows.Next() {
		var a domain.AircraftType
		if err := rows.Scan(&a.ID, &a.Code, &a.ICAOCode, &a.Name, &a.Manufacturer,
			&a.SizeCategory, &a.BodyType); err != nil {
			return nil, wrapErr("scanning aircraft type", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterating aircraft types", err)
	}
	return out, nil
}

// ListAirlines returns every airline ordered by IATA code.
func (s *Store) ListAirlines(ctx context.Context) ([]domain.Airline, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, iata_code, icao_code, name, active FROM airlines ORDER BY iata_code
	`)
	if err != nil {
		return nil, wrapErr("querying airlines", err)
	}
	defer rows.Close()

	var out []domain.Airline //nolint:prealloc // size unknown from query
	for rows.Next() {
		var a domain.Airline
		if err := rows.Scan(&a.ID, &a.IATACode, &a.ICAOCode, &a.Name, &a.Active); err != nil {
			return nil, wrapErr("scanning airline", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterating airlines", err)
	}
	return out, nil
}

// GetStandUtilization returns utilisation rows for standIDs (all when empty)
// overlapping period (any when nil or unknown).
func (s *Store) GetStandUtilization(ctx context.Context, standIDs []string, period *domain.TimePeriod) ([]domain.StandUtilization, error) {
	var w where
	w.in("stand_id", standIDs)
	if period != nil && period.IsKnown() {
		w.add("period_end >= ? AND period_start <= ?", millis(period.Start), millis(period.End))
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT stand_id, period_start, period_end, occupied_minutes, rate
		FROM stand_utilization`+w.sql()+`
		ORDER BY stand_id, period_start
	`, w.args...)
	if err != nil {
		return nil, wrapErr("querying utilization", err)
	}
	defer rows.Close()

	var out []domain.StandUtilization //nolint:prealloc // size unknown from query
	for rows.Next() {
		var u domain.StandUtilization
		var start, end int64
		if err := rows.Scan(&u.StandID, &start, &end, &u.OccupiedMinutes, &u.Rate); err != nil {
			return nil, wrapErr("scanning utilization", err)
		}
		u.PeriodStart, u.PeriodEnd = fromMillis(start), fromMillis(end)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterating utilization", err)
	}
	return out, nil
}

// GetUpcomingMaintenance returns maintenance requests matching filter by start time.
func (s *Store) GetUpcomingMaintenance(ctx context.Context, filter domain.MaintenanceFilter) ([]domain.MaintenanceRequest, error) {
	var w where
	w.in("stand_id", filter.StandIDs)
	statuses := make([]string, len(filter.Statuses))
	for i, st := range filter.Statuses {
		statuses[i] = string(st)
	}
	w.in("status", statuses)
	if filter.Period != nil && filter.Period.IsKnown() {
		w.add("end_at >= ? AND start_at <= ?", millis(filter.Period.Start), millis(filter.Period.End))
	}
	query := `
		SELECT id, stand_id, title, description, status, start_at, end_at
		FROM maintenance_requests` + w.sql() + `
		ORDER BY start_at, id` + limitClause(filter.Limit, &w)
	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, wrapErr("querying maintenance", err)
	}
	defer rows.Close()

	var out []domain.MaintenanceRequest //nolint:prealloc // size unknown from query
	for rows.Next() {
		var m domain.MaintenanceRequest
		var status string
		var start, end int64
		if err := rows.Scan(&m.ID, &m.StandID, &m.Title, &m.Description, &status, &start, &end); err != nil {
			return nil, wrapErr("scanning maintenance", err)
		}
		m.Status = domain.MaintenanceStatus(status)
		m.Start, m.End = fromMillis(start), fromMillis(end)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterating maintenance", err)
	}
	return out, nil
}

// GetFlights returns flights matching filter by scheduled time.
func (s *Store) GetFlights(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error) {
	var w where
	w.in("number", filter.Numbers)
	w.in("airline_code", filter.AirlineCodes)
	w.in("terminal_id", filter.TerminalIDs)
	w.in("stand_id", filter.StandIDs)
	if filter.Direction != "" {
		w.add("direction = ?", string(filter.Direction))
	}
	if filter.Period != nil && filter.Period.IsKnown() {
		w.add("scheduled_at BETWEEN ? AND ?", millis(filter.Period.Start), millis(filter.Period.End))
	}
	query := `
		SELECT id, number, airline_code, aircraft_type, direction, flight_type, stand_id, terminal_id, scheduled_at
		FROM flights` + w.sql() + `
		ORDER BY scheduled_at, id` + limitClause(filter.Limit, &w)
	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, wrapErr("querying flights", err)
	}
	defer rows.Close()

	var out []domain.Flight //nolint:prealloc // size unknown from query
	for rows.Next() {
		var f domain.Flight
		var direction string
		var scheduled int64
		if err := rows.Scan(&f.ID, &f.Number, &f.AirlineCode, &f.AircraftType, &direction,
			&f.FlightType, &f.StandID, &f.TerminalID, &scheduled); err != nil {
			return nil, wrapErr("scanning flight", err)
		}
		f.Direction = domain.FlightDirection(direction)
		f.Scheduled = fromMillis(scheduled)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterating flights", err)
	}
	return out, nil
}

// GetOperationalSettings returns the settings row, or zero values when none
// has been imported.
func (s *Store) GetOperationalSettings(ctx context.Context) (domain.OperationalSettings, error) {
	var o domain.OperationalSettings
	err := s.db.QueryRowContext(ctx, `
		SELECT default_turnaround_minutes, buffer_minutes, operating_start, operating_end, time_zone
		FROM operational_settings WHERE id = 1
	`).Scan(&o.DefaultTurnaroundMinutes, &o.BufferMinutes, &o.OperatingStart, &o.OperatingEnd, &o.TimeZone)
	if err == sql.ErrNoRows {
		return domain.OperationalSettings{}, nil
	}
	if err != nil {
		return domain.OperationalSettings{}, wrapErr("querying operational settings", err)
	}
	return o, nil
}

// where accumulates AND-ed conditions and their arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// in adds a case-insensitive membership test; empty values add nothing.
func (w *where) in(column string, values []string) {
	if len(values) == 0 {
		return
	}
	marks := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		marks[i] = "?"
		args[i] = strings.ToLower(v)
	}
	w.add("lower("+column+") IN ("+strings.Join(marks, ", ")+")", args...)
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func limitClause(n int, w *where) string {
	if n <= 0 {
		return ""
	}
	w.args = append(w.args, n)
	return " LIMIT ?"
}

func millis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
