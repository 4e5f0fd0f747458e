package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
	"github.com/custodia-labs/airportai/internal/logger"
)

var (
	isoDateRe   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})(?:[t ](\d{2}):(\d{2})(?::(\d{2}))?)?\b`)
	monthYearRe = regexp.MustCompile(`\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?),?\s+(\d{4})\b`)
	betweenRe   = regexp.MustCompile(`\bbetween\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s+and\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	nextNRe     = regexp.MustCompile(`\bnext\s+(?:(\d+|one|two|three|four|five|six|seven|eight|nine|ten)\s+)?(hour|day|week|month)s?\b`)
	keywordRe   = regexp.MustCompile(`\b(today|tonight|tomorrow|yesterday|this week|this month)\b`)
)

var wordNumbers = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// TimeResolverConfig configures the resolver.
type TimeResolverConfig struct {
	// Location is the zone relative expressions resolve in. Defaults to time.Local.
	Location *time.Location

	// LLMTimeout bounds the asynchronous LLM fallback.
	LLMTimeout time.Duration
}

// TimeResolver turns time expressions into TimePeriods.
// Resolve is deterministic in (expr, ref); ResolveAsync may consult the LLM.
type TimeResolver struct {
	loc     *time.Location
	timeout time.Duration
	llm     driven.LLMCapabilities
	clock   driven.Clock
}

// NewTimeResolver creates a resolver. llm and clock may be nil.
func NewTimeResolver(cfg TimeResolverConfig, llm driven.LLMCapabilities, clock driven.Clock) *TimeResolver {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 10 * time.Second
	}
	if clock == nil {
		clock = driven.ClockFunc(time.Now)
	}
	return &TimeResolver{loc: cfg.Location, timeout: cfg.LLMTimeout, llm: llm, clock: clock}
}

// Location returns the resolver's zone.
func (r *TimeResolver) Location() *time.Location {
	return r.loc
}

// Resolve applies the deterministic rules in order; the first match wins.
// A zero ref resolves against the resolver's clock.
func (r *TimeResolver) Resolve(expr string, ref time.Time) domain.TimePeriod {
	if ref.IsZero() {
		ref = r.clock.Now()
	}
	ref = ref.In(r.loc)
	lower := strings.ToLower(strings.TrimSpace(expr))
	if lower == "" {
		return domain.UnknownPeriod(expr)
	}
	for _, rule := range []func(string, time.Time) (domain.TimePeriod, bool){
		resolveISO,
		resolveMonthYear,
		resolveBetween,
		resolveNextN,
		resolveKeyword,
	} {
		if p, ok := rule(lower, ref); ok {
			return p
		}
	}
	return domain.UnknownPeriod(expr)
}

// ResolveAsync resolves deterministically and, when that fails, asks the LLM.
// Any LLM failure or invalid period yields an unknown period.
func (r *TimeResolver) ResolveAsync(ctx context.Context, expr string, ref time.Time) domain.TimePeriod {
	if ref.IsZero() {
		ref = r.clock.Now()
	}
	p := r.Resolve(expr, ref)
	if p.IsKnown() || r.llm == nil {
		return p
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	llmPeriod, err := r.llm.ParseTimeExpression(ctx, expr, ref.In(r.loc), r.loc)
	if err != nil {
		logger.Debug("LLM time expression fallback failed for %q: %v", expr, err)
		return domain.UnknownPeriod(expr)
	}
	if !llmPeriod.IsKnown() || llmPeriod.Validate() != nil {
		return domain.UnknownPeriod(expr)
	}
	if llmPeriod.Expression == "" {
		llmPeriod.Expression = expr
	}
	return llmPeriod
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dayPeriod(day time.Time, expr string) domain.TimePeriod {
	start := startOfDay(day)
	return domain.TimePeriod{
		Type:       domain.PeriodDay,
		Start:      start,
		End:        start.AddDate(0, 0, 1).Add(-time.Millisecond),
		Expression: expr,
	}
}

func resolveISO(expr string, ref time.Time) (domain.TimePeriod, bool) {
	m := isoDateRe.FindStringSubmatch(expr)
	if m == nil {
		return domain.TimePeriod{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, ref.Location())
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return domain.TimePeriod{}, false
	}
	if m[4] == "" {
		return dayPeriod(date, m[0]), true
	}
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	sec := 0
	if m[6] != "" {
		sec, _ = strconv.Atoi(m[6])
	}
	if hour > 23 || minute > 59 || sec > 59 {
		return domain.TimePeriod{}, false
	}
	at := time.Date(year, time.Month(month), day, hour, minute, sec, 0, ref.Location())
	return domain.TimePeriod{Type: domain.PeriodDatetime, Start: at, End: at, Expression: m[0]}, true
}

func resolveMonthYear(expr string, ref time.Time) (domain.TimePeriod, bool) {
	m := monthYearRe.FindStringSubmatch(expr)
	if m == nil {
		return domain.TimePeriod{}, false
	}
	month := monthsByPrefix[m[1][:3]]
	year, _ := strconv.Atoi(m[2])
	start := time.Date(year, month, 1, 0, 0, 0, 0, ref.Location())
	return domain.TimePeriod{
		Type:       domain.PeriodMonth,
		Start:      start,
		End:        start.AddDate(0, 1, 0).Add(-time.Millisecond),
		Expression: m[0],
	}, true
}

// clockHour converts a 12-hour reading to 24-hour; an empty meridiem keeps h.
func clockHour(h int, meridiem string) int {
	switch meridiem {
	case "am":
		if h == 12 {
			return 0
		}
	case "pm":
		if h < 12 {
			return h + 12
		}
	}
	return h
}

// resolveBetween builds a time range on the reference date.
// The end bound includes its whole hour (or minute when minutes are given).
// A missing start meridiem inherits the end's unless that would invert the range.
func resolveBetween(expr string, ref time.Time) (domain.TimePeriod, bool) {
	m := betweenRe.FindStringSubmatch(expr)
	if m == nil {
		return domain.TimePeriod{}, false
	}
	h1, _ := strconv.Atoi(m[1])
	h2, _ := strconv.Atoi(m[4])
	min1, min2 := 0, 0
	if m[2] != "" {
		min1, _ = strconv.Atoi(m[2])
	}
	if m[5] != "" {
		min2, _ = strconv.Atoi(m[5])
	}
	if h1 > 23 || h2 > 23 || min1 > 59 || min2 > 59 {
		return domain.TimePeriod{}, false
	}

	mer1, mer2 := m[3], m[6]
	endHour := clockHour(h2, mer2)
	startHour := clockHour(h1, mer1)
	if mer1 == "" && mer2 != "" {
		startHour = clockHour(h1, mer2)
		if startHour*60+min1 > endHour*60+min2 {
			startHour = clockHour(h1, "am")
		}
	}

	day := startOfDay(ref)
	if kw := keywordRe.FindStringSubmatch(expr); kw != nil {
		switch kw[1] {
		case "tomorrow":
			day = day.AddDate(0, 0, 1)
		case "yesterday":
			day = day.AddDate(0, 0, -1)
		}
	}
	start := day.Add(time.Duration(startHour)*time.Hour + time.Duration(min1)*time.Minute)
	end := day.Add(time.Duration(endHour)*time.Hour + time.Duration(min2)*time.Minute)
	if m[5] == "" {
		end = end.Add(time.Hour - time.Millisecond)
	} else {
		end = end.Add(time.Minute - time.Millisecond)
	}
	if end.Before(start) {
		// Overnight range, e.g. "between 10pm and 2am".
		end = end.AddDate(0, 0, 1)
	}
	return domain.TimePeriod{Type: domain.PeriodTimeRange, Start: start, End: end, Expression: m[0]}, true
}

func resolveNextN(expr string, ref time.Time) (domain.TimePeriod, bool) {
	m := nextNRe.FindStringSubmatch(expr)
	if m == nil {
		return domain.TimePeriod{}, false
	}
	n := 1
	if m[1] != "" {
		if v, ok := wordNumbers[m[1]]; ok {
			n = v
		} else {
			n, _ = strconv.Atoi(m[1])
		}
	}
	if n <= 0 {
		return domain.TimePeriod{}, false
	}
	var end time.Time
	switch m[2] {
	case "hour":
		end = ref.Add(time.Duration(n) * time.Hour)
	case "day":
		end = ref.AddDate(0, 0, n)
	case "week":
		end = ref.AddDate(0, 0, 7*n)
	default:
		end = ref.AddDate(0, n, 0)
	}
	return domain.TimePeriod{
		Type:           domain.PeriodDuration,
		Start:          ref,
		End:            end,
		Expression:     m[0],
		DurationAmount: n,
		DurationUnit:   m[2],
	}, true
}

func resolveKeyword(expr string, ref time.Time) (domain.TimePeriod, bool) {
	m := keywordRe.FindStringSubmatch(expr)
	if m == nil {
		return domain.TimePeriod{}, false
	}
	switch m[1] {
	case "today", "tonight":
		return dayPeriod(ref, m[1]), true
	case "tomorrow":
		return dayPeriod(ref.AddDate(0, 0, 1), m[1]), true
	case "yesterday":
		return dayPeriod(ref.AddDate(0, 0, -1), m[1]), true
	case "this week":
		// Weeks start on Monday.
		offset := (int(ref.Weekday()) + 6) % 7
		start := startOfDay(ref).AddDate(0, 0, -offset)
		return domain.TimePeriod{
			Type:       domain.PeriodWeek,
			Start:      start,
			End:        start.AddDate(0, 0, 7).Add(-time.Millisecond),
			Expression: m[1],
		}, true
	default:
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		return domain.TimePeriod{
			Type:       domain.PeriodMonth,
			Start:      start,
			End:        start.AddDate(0, 1, 0).Add(-time.Millisecond),
			Expression: m[1],
		}, true
	}
}
