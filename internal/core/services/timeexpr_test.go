package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

func newUTCResolver(llm *mockLLM) *TimeResolver {
	cfg := TimeResolverConfig{Location: time.UTC, LLMTimeout: time.Second}
	if llm == nil {
		return NewTimeResolver(cfg, nil, fixedClock(refTime))
	}
	return NewTimeResolver(cfg, llm, fixedClock(refTime))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTimeResolver_Resolve(t *testing.T) {
	r := newUTCResolver(nil)
	ms := time.Millisecond

	tests := []struct {
		expr  string
		typ   domain.PeriodType
		start time.Time
		end   time.Time
	}{
		{"2024-07-01", domain.PeriodDay, day(2024, 7, 1), day(2024, 7, 2).Add(-ms)},
		{"2024-07-01T14:30", domain.PeriodDatetime, day(2024, 7, 1).Add(14*time.Hour + 30*time.Minute), day(2024, 7, 1).Add(14*time.Hour + 30*time.Minute)},
		{"March 2025", domain.PeriodMonth, day(2025, 3, 1), day(2025, 4, 1).Add(-ms)},
		{"dec, 2024", domain.PeriodMonth, day(2024, 12, 1), day(2025, 1, 1).Add(-ms)},
		{"between 9am and 5pm", domain.PeriodTimeRange, day(2024, 6, 10).Add(9 * time.Hour), day(2024, 6, 10).Add(18*time.Hour - ms)},
		{"between 9 and 11am", domain.PeriodTimeRange, day(2024, 6, 10).Add(9 * time.Hour), day(2024, 6, 10).Add(12*time.Hour - ms)},
		{"between 10:15 and 10:45", domain.PeriodTimeRange, day(2024, 6, 10).Add(10*time.Hour + 15*time.Minute), day(2024, 6, 10).Add(10*time.Hour + 46*time.Minute - ms)},
		{"between 10pm and 2am", domain.PeriodTimeRange, day(2024, 6, 10).Add(22 * time.Hour), day(2024, 6, 11).Add(3*time.Hour - ms)},
		{"tomorrow between 9am and 5pm", domain.PeriodTimeRange, day(2024, 6, 11).Add(9 * time.Hour), day(2024, 6, 11).Add(18*time.Hour - ms)},
		{"next 3 days", domain.PeriodDuration, refTime, refTime.AddDate(0, 0, 3)},
		{"next two weeks", domain.PeriodDuration, refTime, refTime.AddDate(0, 0, 14)},
		{"next month", domain.PeriodDuration, refTime, refTime.AddDate(0, 1, 0)},
		{"today", domain.PeriodDay, day(2024, 6, 10), day(2024, 6, 11).Add(-ms)},
		{"tomorrow", domain.PeriodDay, day(2024, 6, 11), day(2024, 6, 12).Add(-ms)},
		{"yesterday", domain.PeriodDay, day(2024, 6, 9), day(2024, 6, 10).Add(-ms)},
		{"this week", domain.PeriodWeek, day(2024, 6, 10), day(2024, 6, 17).Add(-ms)},
		{"this month", domain.PeriodMonth, day(2024, 6, 1), day(2024, 7, 1).Add(-ms)},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got := r.Resolve(tt.expr, refTime)
			assert.Equal(t, tt.typ, got.Type)
			assert.True(t, tt.start.Equal(got.Start), "start: want %s got %s", tt.start, got.Start)
			assert.True(t, tt.end.Equal(got.End), "end: want %s got %s", tt.end, got.End)
			assert.NoError(t, got.Validate())
		})
	}
}

func TestTimeResolver_Unknown(t *testing.T) {
	r := newUTCResolver(nil)

	for _, expr := range []string{"", "whenever", "2024-02-30", "the day after the festival"} {
		got := r.Resolve(expr, refTime)
		assert.Equal(t, domain.PeriodUnknown, got.Type, expr)
		assert.Equal(t, expr, got.Expression)
	}
}

func TestTimeResolver_Pure(t *testing.T) {
	r := newUTCResolver(nil)

	a := r.Resolve("next 2 hours", refTime)
	b := r.Resolve("next 2 hours", refTime)

	assert.Equal(t, a, b)
}

func TestTimeResolver_ZeroRefUsesClock(t *testing.T) {
	r := newUTCResolver(nil)

	got := r.Resolve("today", time.Time{})

	assert.True(t, day(2024, 6, 10).Equal(got.Start))
}

func TestTimeResolver_ResolveAsync(t *testing.T) {
	t.Run("deterministic match skips LLM", func(t *testing.T) {
		llm := &mockLLM{}
		got := newUTCResolver(llm).ResolveAsync(context.Background(), "tomorrow", refTime)
		assert.Equal(t, domain.PeriodDay, got.Type)
		assert.Zero(t, llm.calls.Load())
	})

	t.Run("LLM fallback", func(t *testing.T) {
		want := domain.TimePeriod{Type: domain.PeriodDay, Start: day(2024, 6, 14), End: day(2024, 6, 15).Add(-time.Millisecond)}
		llm := &mockLLM{parseTime: func(expr string, ref time.Time) (domain.TimePeriod, error) {
			assert.Equal(t, "friday", expr)
			return want, nil
		}}
		got := newUTCResolver(llm).ResolveAsync(context.Background(), "friday", refTime)
		assert.Equal(t, domain.PeriodDay, got.Type)
		assert.Equal(t, "friday", got.Expression)
	})

	t.Run("LLM failure is unknown", func(t *testing.T) {
		llm := &mockLLM{}
		got := newUTCResolver(llm).ResolveAsync(context.Background(), "friday", refTime)
		assert.Equal(t, domain.PeriodUnknown, got.Type)
	})

	t.Run("inverted LLM period is rejected", func(t *testing.T) {
		llm := &mockLLM{parseTime: func(string, time.Time) (domain.TimePeriod, error) {
			return domain.TimePeriod{Type: domain.PeriodDay, Start: day(2024, 6, 15), End: day(2024, 6, 14)}, nil
		}}
		got := newUTCResolver(llm).ResolveAsync(context.Background(), "friday", refTime)
		require.Equal(t, domain.PeriodUnknown, got.Type)
	})
}
