package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

// Normalizer cleans raw utterances and stamps a request id.
type Normalizer struct {
	clock driven.Clock
}

// NewNormalizer creates a normaliser. A nil clock uses the wall clock.
func NewNormalizer(clock driven.Clock) *Normalizer {
	if clock == nil {
		clock = driven.ClockFunc(time.Now)
	}
	return &Normalizer{clock: clock}
}

// Normalize trims and collapses whitespace, keeping the original text.
// Normalising an already-normalised text yields the same Text.
func (n *Normalizer) Normalize(raw string) domain.NormalizedUtterance {
	now := n.clock.Now()
	text := strings.Join(strings.Fields(raw), " ")
	return domain.NormalizedUtterance{
		Original:  raw,
		Text:      text,
		Lower:     strings.ToLower(text),
		RequestID: newRequestID(now),
		Received:  now,
	}
}

// newRequestID returns "<unix millis>-<random suffix>".
func newRequestID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.New().String()[:8])
}
