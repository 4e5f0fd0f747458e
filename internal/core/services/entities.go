package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

var (
	terminalNumRe   = regexp.MustCompile(`(?i)\bterminal\s+(\d|[a-z]\b|one|two|three|four|five|six|seven|eight|nine)\b`)
	terminalCodeRe  = regexp.MustCompile(`\bT(\d|[A-Z])\b`)
	terminalNamedRe = regexp.MustCompile(`(?i)\b(international|domestic|north|south|east|west|main|central)\s+terminal\b`)
	standListRe     = regexp.MustCompile(`(?i)\bstands?\s+((?:[a-z]?\d+[a-z]?)(?:\s*(?:,|and|&|or)\s*[a-z]?\d+[a-z]?)*)\b`)
	standCodeRe     = regexp.MustCompile(`(?i)[a-z]?\d+[a-z]?`)
	pierRe          = regexp.MustCompile(`(?i)\b(?:pier|concourse)\s+([a-z0-9]{1,3})\b`)
	boeingRe        = regexp.MustCompile(`(?i)\b(?:boeing\s*|b)(7[0-8]7)(?:-(\d{1,3}))?\b`)
	airbusRe        = regexp.MustCompile(`(?i)\b(?:airbus\s*|a)(3[0-8]\d)(?:-(\d{1,4}))?\b`)
	embraerRe       = regexp.MustCompile(`(?i)\b(?:embraer\s*|erj\s*|e)(1[4-9]\d)(?:-(\d{1,3}))?\b`)
	crjRe           = regexp.MustCompile(`(?i)\bcrj[- ]?(\d{3})\b`)
	categoryRe      = regexp.MustCompile(`(?i)\b(?:category|cat\.?|code)\s+([a-f])\b`)
	categoryWordRe  = regexp.MustCompile(`(?i)\b(small|medium|large|jumbo|super|superjumbo)\s+(?:aircraft|planes?|jets?)\b`)
	bodyTypeRe      = regexp.MustCompile(`(?i)\b(narrow|wide)[- ]?body\b`)
	flightNumberRe  = regexp.MustCompile(`\b([A-Z]{2}\d{1,4}[A-Z]?)\b`)
	directionRe     = regexp.MustCompile(`(?i)\b(arrivals?|arriving|inbound|departures?|departing|outbound)\b`)
	flightTypeRe    = regexp.MustCompile(`(?i)\b(domestic|international|cargo|charter|passenger)\s+flights?\b`)
	clockTimeRe     = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b|\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	durationRe      = regexp.MustCompile(`(?i)\b(\d+)\s*(minutes?|mins?|hours?|hrs?|days?|weeks?)\b`)
	percentRe       = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:%|percent\b|per cent\b)`)
	quantityRe      = regexp.MustCompile(`(?i)\b(\d+)\s+(stands|aircraft|flights|gates|slots|movements)\b`)
	vizRe           = regexp.MustCompile(`(?i)\b(bar chart|line chart|pie chart|heat ?map|gantt|timeline|chart|graph|map|table)\b`)
	metricRe        = regexp.MustCompile(`(?i)\b(capacity|utili[sz]ation|occupancy|throughput|availability)\b`)
	scenarioRe      = regexp.MustCompile(`(?i)\bscenario\s+(?:#|named\s+|called\s+)?["']?(\d+|[a-z][\w-]*["'])`)
	statusRe        = regexp.MustCompile(`(?i)\b(in progress|ongoing|completed|finished|cancel+ed|approved|pending|requested)\b`)
	standHintRe     = regexp.MustCompile(`(?i)\b(available|free|vacant|open|occupied|in use|busy|taken|closed|out of service|unavailable|under maintenance)\b`)

	terminalCanonRe = regexp.MustCompile(`^T[A-Z0-9]$`)
	standCanonRe    = regexp.MustCompile(`^[A-Z]?\d+[A-Z]?$`)
	aircraftCanonRe = regexp.MustCompile(`^[A-Z]\d{3}(-\d+)?$`)
	flightCanonRe   = regexp.MustCompile(`^[A-Z]{2}\d{1,4}[A-Z]?$`)
	airlineCodeRe   = regexp.MustCompile(`^[A-Z0-9]{2,3}$`)
	airlineParenRe  = regexp.MustCompile(`\(([A-Za-z0-9]{2,3})\)`)
)

var numberWords = map[string]string{
	"one": "1", "two": "2", "three": "3", "four": "4", "five": "5",
	"six": "6", "seven": "7", "eight": "8", "nine": "9",
}

// categoryWords maps descriptive size words onto ICAO aerodrome reference codes.
var categoryWords = map[string]string{
	"small":      "B",
	"medium":     "C",
	"large":      "E",
	"jumbo":      "F",
	"super":      "F",
	"superjumbo": "F",
}

var vizTypes = map[string]string{
	"bar chart":  "bar_chart",
	"line chart": "line_chart",
	"pie chart":  "pie_chart",
	"heatmap":    "heatmap",
	"heat map":   "heatmap",
	"gantt":      "gantt",
	"timeline":   "timeline",
	"chart":      "chart",
	"graph":      "chart",
	"map":        "map",
	"table":      "table",
}

// EntityDetector runs deterministic pre-detection and canonicalises values.
type EntityDetector struct {
	times *TimeResolver
}

// NewEntityDetector creates a detector that delegates time expressions to times.
func NewEntityDetector(times *TimeResolver) *EntityDetector {
	return &EntityDetector{times: times}
}

// Detect extracts entities from the utterance with regex groups.
// Values are returned in canonical form.
func (d *EntityDetector) Detect(n domain.NormalizedUtterance, ref time.Time) domain.Entities {
	text := n.Text
	e := domain.Entities{}

	if m := terminalNumRe.FindStringSubmatch(text); m != nil {
		e[domain.EntityTerminal] = domain.TextValue(m[1])
	} else if m := terminalCodeRe.FindStringSubmatch(text); m != nil {
		e[domain.EntityTerminal] = domain.TextValue(m[0])
	} else if m := terminalNamedRe.FindStringSubmatch(text); m != nil {
		// Named terminals are resolved against the vocabulary by the extractor.
		e[domain.EntityTerminal] = domain.TextValue(m[0])
	}

	if m := standListRe.FindStringSubmatch(text); m != nil {
		codes := standCodeRe.FindAllString(m[1], -1)
		if len(codes) == 1 {
			e[domain.EntityStand] = domain.TextValue(codes[0])
		} else if len(codes) > 1 {
			e[domain.EntityStand] = domain.ListValue(codes...)
		}
	}

	if m := pierRe.FindStringSubmatch(text); m != nil {
		e[domain.EntityPier] = domain.TextValue(m[1])
	}

	if code := detectAircraftType(text); code != "" {
		e[domain.EntityAircraftType] = domain.TextValue(code)
	}

	if m := categoryRe.FindStringSubmatch(text); m != nil {
		e[domain.EntityAircraftCategory] = domain.TextValue(strings.ToUpper(m[1]))
	} else if m := categoryWordRe.FindStringSubmatch(text); m != nil {
		e[domain.EntityAircraftCategory] = domain.TextValue(categoryWords[strings.ToLower(m[1])])
	}

	if m := bodyTypeRe.FindStringSubmatch(text); m != nil {
		e[domain.EntityBodyType] = domain.TextValue(strings.ToLower(m[1]) + "_body")
	}

	if m := flightNumberRe.FindStringSubmatch(text); m != nil {
		e[domain.EntityFlightNumber] = domain.TextValue(m[1])
	}

	if m := directionRe.FindStringSubmatch(text); m != nil {
		e[domain.EntityFlightDirection] = domain.TextValue(canonicalDirection(m[1]))
	}

	if m := flightTypeRe.FindStringSubmatch(text); m != nil {
		e[domain.EntityFlightType] = domain.TextValue(strings.ToLower(m[1]))
	}

	if d.times != nil {
		if p := d.times.Resolve(text, ref); p.IsKnown() {
			e[domain.EntityTimePeriod] = domain.PeriodValue(p)
			if p.Type == domain.PeriodDay || p.Type == domain.PeriodDatetime {
				e[domain.EntityDate] = domain.TextValue(p.Start.Format(time.DateOnly))
			}
		}
	}

	if m := clockTimeRe.FindStringSubmatch(text); m != nil {
		e[domain.EntityTime] = domain.TextValue(canonicalClock(m))
	}

	if m := durationRe.FindStringSubmatch(text); m != nil {
		e[domain.EntityDuration] = domain.TextValue(m[1] + " " + canonicalUnit(m[2]))
	}

	if m := percentRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			e[domain.EntityPercentage] = domain.NumberValue(normalizePercentage(v))
		}
	}

	if m := quantityRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			e[domain.EntityQuantity] = domain.NumberValue(v)
		}
	}

	if m := vizRe.FindStringSubmatch(text); m != nil {
		e[domain.EntityVisualizationType] = domain.TextValue(vizTypes[strings.ToLower(m[1])])
	}

	if m := metricRe.FindStringSubmatch(text); m != nil {
		e[domain.EntityCapacityMetric] = domain.TextValue(canonicalMetric(m[1]))
	}

	if m := scenarioRe.FindStringSubmatch(text); m != nil {
		e[domain.EntityScenario] = domain.TextValue(strings.Trim(m[1], `"'`))
	}

	if m := statusRe.FindStringSubmatch(text); m != nil {
		e[domain.EntityMaintenanceStatus] = domain.TextValue(canonicalMaintenanceStatus(m[1]))
	}

	return e
}

// StandStatusHint maps lexical availability hints onto a status filter.
func StandStatusHint(text string) (string, bool) {
	m := standHintRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	switch strings.ToLower(m[1]) {
	case "available", "free", "vacant", "open":
		return string(domain.StandAvailable), true
	case "occupied", "in use", "busy", "taken":
		return string(domain.StandOccupied), true
	case "under maintenance":
		return string(domain.StandMaintenance), true
	default:
		return string(domain.StandClosed), true
	}
}

// Normalize canonicalises a value for its entity type.
// It returns false when the value cannot be brought into canonical form and
// must be dropped.
func (d *EntityDetector) Normalize(t domain.EntityType, v domain.EntityValue, ref time.Time) (domain.EntityValue, bool) {
	switch t {
	case domain.EntityTerminal:
		return normalizeText(v, normalizeTerminal)
	case domain.EntityStand:
		return normalizeText(v, normalizeStand)
	case domain.EntityPier:
		return normalizeText(v, func(s string) (string, bool) {
			s = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(strings.ToLower(s), "pier")))
			return s, s != ""
		})
	case domain.EntityAircraftType:
		return normalizeText(v, normalizeAircraftType)
	case domain.EntityAirline:
		return normalizeText(v, normalizeAirline)
	case domain.EntityFlightNumber:
		return normalizeText(v, func(s string) (string, bool) {
			s = strings.ToUpper(strings.ReplaceAll(s, " ", ""))
			return s, flightCanonRe.MatchString(s)
		})
	case domain.EntityAircraftCategory:
		return normalizeText(v, func(s string) (string, bool) {
			if c, ok := categoryWords[strings.ToLower(s)]; ok {
				return c, true
			}
			s = strings.ToUpper(strings.TrimSpace(s))
			return s, len(s) == 1 && s[0] >= 'A' && s[0] <= 'F'
		})
	case domain.EntityPercentage:
		return normalizeNumber(v, func(f float64) float64 { return normalizePercentage(f) })
	case domain.EntityQuantity:
		return normalizeNumber(v, func(f float64) float64 { return f })
	case domain.EntityTimePeriod, domain.EntityDate:
		if v.Kind == domain.ValuePeriod && v.Period != nil {
			if v.Period.Validate() != nil {
				return domain.EntityValue{}, false
			}
			return v, true
		}
		if d.times == nil {
			return v, v.First() != ""
		}
		p := d.times.Resolve(v.First(), ref)
		if t == domain.EntityDate && p.IsKnown() {
			return domain.TextValue(p.Start.Format(time.DateOnly)), true
		}
		return domain.PeriodValue(p), true
	case domain.EntityFlightDirection:
		return normalizeText(v, func(s string) (string, bool) {
			c := canonicalDirection(s)
			return c, c != ""
		})
	case domain.EntityMaintenanceStatus, domain.EntityCapacityMetric, domain.EntityFlightType,
		domain.EntityBodyType, domain.EntityVisualizationType:
		return normalizeText(v, func(s string) (string, bool) {
			s = strings.ToLower(strings.TrimSpace(s))
			return strings.ReplaceAll(s, " ", "_"), s != ""
		})
	default:
		return normalizeText(v, func(s string) (string, bool) {
			s = strings.TrimSpace(s)
			return s, s != ""
		})
	}
}

// normalizeText applies fn to a text value or every list item.
func normalizeText(v domain.EntityValue, fn func(string) (string, bool)) (domain.EntityValue, bool) {
	switch v.Kind {
	case domain.ValueList:
		out := make([]string, 0, len(v.List))
		seen := make(map[string]bool, len(v.List))
		for _, item := range v.List {
			c, ok := fn(item)
			if !ok || seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
		switch len(out) {
		case 0:
			return domain.EntityValue{}, false
		case 1:
			return domain.TextValue(out[0]), true
		default:
			return domain.ListValue(out...), true
		}
	default:
		c, ok := fn(v.First())
		if !ok {
			return domain.EntityValue{}, false
		}
		out := domain.TextValue(c)
		out.Ref = v.Ref
		return out, true
	}
}

func normalizeNumber(v domain.EntityValue, fn func(float64) float64) (domain.EntityValue, bool) {
	if v.Kind == domain.ValueNumber {
		return domain.NumberValue(fn(v.Number)), true
	}
	s := strings.TrimSpace(v.First())
	s = strings.TrimSuffix(strings.TrimSuffix(s, "%"), "percent")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return domain.EntityValue{}, false
	}
	return domain.NumberValue(fn(f)), true
}

// normalizeTerminal yields "T" followed by one digit or letter.
func normalizeTerminal(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimSpace(strings.TrimPrefix(s, "TERMINAL"))
	if d, ok := numberWords[strings.ToLower(s)]; ok {
		s = d
	}
	if len(s) == 1 {
		s = "T" + s
	}
	if terminalCanonRe.MatchString(s) {
		return s, true
	}
	// Named terminals without a vocabulary match use their initial.
	for _, w := range strings.Fields(s) {
		if w != "TERMINAL" && w != "" {
			c := "T" + w[:1]
			return c, terminalCanonRe.MatchString(c)
		}
	}
	return "", false
}

func normalizeStand(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimSpace(strings.TrimPrefix(s, "STAND"))
	s = strings.NewReplacer(" ", "", "-", "").Replace(s)
	return s, standCanonRe.MatchString(s)
}

func normalizeAircraftType(s string) (string, bool) {
	up := strings.ToUpper(strings.TrimSpace(s))
	if aircraftCanonRe.MatchString(up) {
		return up, true
	}
	c := detectAircraftType(s)
	return c, c != ""
}

func normalizeAirline(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if up := strings.ToUpper(s); airlineCodeRe.MatchString(up) {
		return up, true
	}
	if m := airlineParenRe.FindStringSubmatch(s); m != nil {
		return strings.ToUpper(m[1]), true
	}
	return s, true
}

// detectAircraftType returns the canonical code ("B737", "A320-200") or "".
func detectAircraftType(text string) string {
	for _, c := range []struct {
		re     *regexp.Regexp
		prefix string
	}{
		{boeingRe, "B"},
		{airbusRe, "A"},
		{embraerRe, "E"},
	} {
		if m := c.re.FindStringSubmatch(text); m != nil {
			code := c.prefix + m[1]
			if m[2] != "" {
				code += "-" + m[2]
			}
			return code
		}
	}
	if m := crjRe.FindStringSubmatch(text); m != nil {
		return "C" + m[1]
	}
	return ""
}

func normalizePercentage(v float64) float64 {
	if v > 1 {
		v /= 100
	}
	if v > 1 {
		v = 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

func canonicalDirection(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "arrival", "arrivals", "arriving", "inbound":
		return string(domain.FlightArrival)
	case "departure", "departures", "departing", "outbound":
		return string(domain.FlightDeparture)
	default:
		return ""
	}
}

func canonicalClock(m []string) string {
	if m[4] != "" {
		h, _ := strconv.Atoi(m[4])
		return strconv.Itoa(100 + h)[1:] + ":" + m[5]
	}
	h, _ := strconv.Atoi(m[1])
	h = clockHour(h, strings.ToLower(m[3]))
	minutes := "00"
	if m[2] != "" {
		minutes = m[2]
	}
	return strconv.Itoa(100 + h)[1:] + ":" + minutes
}

func canonicalUnit(u string) string {
	u = strings.ToLower(u)
	switch {
	case strings.HasPrefix(u, "min"):
		return "minutes"
	case strings.HasPrefix(u, "h"):
		return "hours"
	case strings.HasPrefix(u, "d"):
		return "days"
	default:
		return "weeks"
	}
}

func canonicalMetric(m string) string {
	m = strings.ToLower(m)
	if strings.HasPrefix(m, "utili") {
		return "utilization"
	}
	return m
}

func canonicalMaintenanceStatus(s string) string {
	switch strings.ToLower(s) {
	case "in progress", "ongoing":
		return string(domain.MaintenanceInProgress)
	case "completed", "finished":
		return string(domain.MaintenanceCompleted)
	case "approved":
		return string(domain.MaintenanceApproved)
	case "pending", "requested":
		return string(domain.MaintenanceRequested)
	default:
		return string(domain.MaintenanceCancelled)
	}
}
