package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
	"github.com/custodia-labs/airportai/internal/logger"
)

// RefreshHook runs after a successful vocabulary refresh.
type RefreshHook func(ctx context.Context, snap *domain.VocabularySnapshot)

// VocabularyCache holds the process-wide vocabulary snapshot.
// Readers load the current snapshot by reference and never see a partial
// refresh; refreshes are serialised and TTL refreshes are shared by every
// caller that finds the snapshot expired.
type VocabularyCache struct {
	data  driven.AirportData
	clock driven.Clock
	ttl   time.Duration
	log   driven.Logger

	snap      atomic.Pointer[domain.VocabularySnapshot]
	refreshMu sync.Mutex
	flight    singleflight.Group

	hooksMu sync.RWMutex
	hooks   []RefreshHook
}

// NewVocabularyCache creates a cache over the airport data port.
func NewVocabularyCache(data driven.AirportData, ttl time.Duration, clock driven.Clock, log driven.Logger) *VocabularyCache {
	if ttl <= 0 {
		ttl = domain.DefaultAppSettings().Pipeline.EntityCacheTTL
	}
	if clock == nil {
		clock = driven.ClockFunc(time.Now)
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &VocabularyCache{data: data, clock: clock, ttl: ttl, log: log}
}

// OnRefresh registers a hook run after every successful refresh.
func (c *VocabularyCache) OnRefresh(hook RefreshHook) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	c.hooks = append(c.hooks, hook)
}

// Current returns the loaded snapshot without refreshing. It may be nil.
func (c *VocabularyCache) Current() *domain.VocabularySnapshot {
	return c.snap.Load()
}

// Get returns a fresh snapshot, refreshing when missing or older than the TTL.
// When a refresh fails and a stale snapshot exists, the stale snapshot is returned.
func (c *VocabularyCache) Get(ctx context.Context) (*domain.VocabularySnapshot, error) {
	s := c.snap.Load()
	if c.fresh(s) {
		return s, nil
	}
	_, err, _ := c.flight.Do("refresh", func() (any, error) {
		return nil, c.refresh(ctx, false)
	})
	if err != nil {
		if s != nil {
			c.log.Warn("vocabulary refresh failed, serving stale snapshot", "error", err)
			return s, nil
		}
		return nil, err
	}
	return c.snap.Load(), nil
}

func (c *VocabularyCache) fresh(s *domain.VocabularySnapshot) bool {
	return s != nil && c.clock.Now().Sub(s.LoadedAt) < c.ttl
}

// Refresh reloads every vocabulary kind and swaps the snapshot.
func (c *VocabularyCache) Refresh(ctx context.Context) error {
	return c.refresh(ctx, true)
}

// refresh reloads under refreshMu. Unless forced, a snapshot that another
// refresh made fresh while this one waited for the lock is kept.
func (c *VocabularyCache) refresh(ctx context.Context, force bool) error {
	if c.data == nil {
		return domain.ErrPortUnavailable
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	if !force && c.fresh(c.snap.Load()) {
		return nil
	}

	logger.Section("Vocabulary Refresh")

	var (
		terminals []domain.Terminal
		piers     []domain.Pier
		stands    []domain.Stand
		aircraft  []domain.AircraftType
		airlines  []domain.Airline
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { terminals, err = c.data.ListTerminals(gctx); return wrap("list terminals", err) })
	g.Go(func() (err error) { piers, err = c.data.ListPiers(gctx); return wrap("list piers", err) })
	g.Go(func() (err error) { stands, err = c.data.ListStands(gctx); return wrap("list stands", err) })
	g.Go(func() (err error) { aircraft, err = c.data.ListAircraftTypes(gctx); return wrap("list aircraft types", err) })
	g.Go(func() (err error) { airlines, err = c.data.ListAirlines(gctx); return wrap("list airlines", err) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("refresh vocabulary: %w", err)
	}

	entries := BuildVocabulary(terminals, piers, stands, aircraft, airlines)
	snap := domain.NewVocabularySnapshot(c.clock.Now(), entries)
	c.snap.Store(snap)

	logger.Debug("Vocabulary loaded: %d entries", snap.Len())
	c.log.Info("vocabulary refreshed", "entries", snap.Len())

	c.hooksMu.RLock()
	hooks := append([]RefreshHook(nil), c.hooks...)
	c.hooksMu.RUnlock()
	for _, hook := range hooks {
		hook(ctx, snap)
	}
	return nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// BuildVocabulary converts reference data into vocabulary entries.
// Stands and piers carry the code of their terminal so it can be inferred.
func BuildVocabulary(
	terminals []domain.Terminal,
	piers []domain.Pier,
	stands []domain.Stand,
	aircraft []domain.AircraftType,
	airlines []domain.Airline,
) []domain.VocabularyEntry {
	terminalCode := make(map[string]string, len(terminals))
	pierCode := make(map[string]string, len(piers))
	entries := make([]domain.VocabularyEntry, 0, len(terminals)+len(piers)+len(stands)+len(aircraft)+len(airlines))

	for _, t := range terminals {
		terminalCode[t.ID] = t.Code
		entries = append(entries, domain.VocabularyEntry{
			Kind:           domain.VocabTerminal,
			ID:             t.ID,
			PrimaryCode:    t.Code,
			AlternateCodes: t.AltCodes,
			DisplayName:    t.Name,
			Attributes:     map[string]string{"name": t.Name, "operating": fmt.Sprint(t.Operating)},
		})
	}
	for _, p := range piers {
		pierCode[p.ID] = p.Code
		entries = append(entries, domain.VocabularyEntry{
			Kind:        domain.VocabPier,
			ID:          p.ID,
			PrimaryCode: p.Code,
			DisplayName: p.Name,
			Attributes:  map[string]string{"terminal": terminalCode[p.TerminalID], "terminal_id": p.TerminalID},
		})
	}
	for _, s := range stands {
		entries = append(entries, domain.VocabularyEntry{
			Kind:        domain.VocabStand,
			ID:          s.ID,
			PrimaryCode: s.Code,
			DisplayName: s.Name,
			Attributes: map[string]string{
				"terminal":      terminalCode[s.TerminalID],
				"terminal_id":   s.TerminalID,
				"pier":          pierCode[s.PierID],
				"status":        string(s.Status),
				"size_category": s.SizeCategory,
				"contact":       fmt.Sprint(s.Contact),
				"active":        fmt.Sprint(s.Active),
			},
		})
	}
	for _, a := range aircraft {
		var alt []string
		if a.ICAOCode != "" {
			alt = append(alt, a.ICAOCode)
		}
		entries = append(entries, domain.VocabularyEntry{
			Kind:           domain.VocabAircraftType,
			ID:             a.ID,
			PrimaryCode:    a.Code,
			AlternateCodes: alt,
			DisplayName:    a.Name,
			Attributes: map[string]string{
				"manufacturer":  a.Manufacturer,
				"size_category": a.SizeCategory,
				"body_type":     a.BodyType,
			},
		})
	}
	for _, a := range airlines {
		var alt []string
		if a.ICAOCode != "" {
			alt = append(alt, a.ICAOCode)
		}
		entries = append(entries, domain.VocabularyEntry{
			Kind:           domain.VocabAirline,
			ID:             a.ID,
			PrimaryCode:    a.IATACode,
			AlternateCodes: alt,
			DisplayName:    a.Name,
			Attributes:     map[string]string{"name": a.Name, "active": fmt.Sprint(a.Active)},
		})
	}
	return entries
}
