// Package capabilities implements the structured LLM capability set on top
// of a raw completion provider.
//
// The adapter owns the retry policy (linear backoff, then one attempt on the
// fallback model), per-call timeouts, outbound rate limiting, JSON decoding
// and token accounting. It is the only component that talks to the provider.
package capabilities

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/airportai/internal/adapters/driven/prompts"
	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
	"github.com/custodia-labs/airportai/internal/logger"
)

// Ensure Adapter implements the interfaces.
var (
	_ driven.LLMCapabilities  = (*Adapter)(nil)
	_ driven.PromptStoreAware = (*Adapter)(nil)
)

// Default configuration values.
const (
	DefaultTimeout              = 10 * time.Second
	DefaultIntentTimeout        = 10 * time.Second
	DefaultDeepReasoningTimeout = 30 * time.Second
	DefaultMaxRetries           = 2
	DefaultBackoff              = 500 * time.Millisecond
	DefaultMaxTokens            = 1024
)

// Config configures the adapter.
type Config struct {
	// DefaultModel is used for every call first (default: the provider's model).
	DefaultModel string

	// FallbackModel is tried once after retries are exhausted.
	FallbackModel string

	// UseFallbackAfterRetries enables the fallback attempt.
	UseFallbackAfterRetries bool

	// MaxRetries is the number of attempts on the default model (default: 2).
	MaxRetries int

	// Timeout bounds each attempt of ordinary calls (default: 10s).
	Timeout time.Duration

	// IntentTimeout bounds each intent extraction attempt (default: 10s).
	IntentTimeout time.Duration

	// DeepReasoningTimeout bounds each reasoning attempt (default: 30s).
	DeepReasoningTimeout time.Duration

	// Backoff is the linear backoff unit; attempt n waits n*Backoff (default: 500ms).
	Backoff time.Duration

	// RequestsPerSecond throttles outbound calls (0 = unlimited).
	RequestsPerSecond float64
}

// ConfigFromSettings maps LLM settings onto adapter configuration.
func ConfigFromSettings(s domain.LLMSettings) Config {
	return Config{
		DefaultModel:            s.DefaultModel,
		FallbackModel:           s.FallbackModel,
		UseFallbackAfterRetries: s.UseFallbackAfterRetries,
		MaxRetries:              s.MaxRetries,
		Timeout:                 s.Timeout,
		IntentTimeout:           s.IntentTimeout,
		DeepReasoningTimeout:    s.DeepReasoningTimeout,
		RequestsPerSecond:       s.RequestsPerSecond,
	}
}

// Adapter provides LLMCapabilities over a driven.LLMService.
type Adapter struct {
	llm     driven.LLMService
	cfg     Config
	limiter *rate.Limiter
	log     driven.Logger

	promptMu sync.RWMutex
	prompts  driven.PromptStore
	render   *renderer

	usageMu sync.Mutex
	usage   domain.LLMUsage
}

// New creates a capability adapter. A nil log discards adapter logs.
func New(llm driven.LLMService, cfg Config, log driven.Logger) *Adapter {
	if cfg.DefaultModel == "" && llm != nil {
		cfg.DefaultModel = llm.ModelName()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.IntentTimeout <= 0 {
		cfg.IntentTimeout = DefaultIntentTimeout
	}
	if cfg.DeepReasoningTimeout <= 0 {
		cfg.DeepReasoningTimeout = DefaultDeepReasoningTimeout
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if log == nil {
		log = logger.Nop{}
	}

	a := &Adapter{
		llm:     llm,
		cfg:     cfg,
		log:     log,
		prompts: prompts.Embedded{},
		render:  newRenderer(),
		usage:   domain.LLMUsage{ByModel: make(map[string]domain.TokenUsage)},
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return a
}

// SetPromptStore sets the prompt store for loading customisable prompts.
// If not set, the adapter uses the embedded defaults.
func (a *Adapter) SetPromptStore(store driven.PromptStore) {
	if store == nil {
		store = prompts.Embedded{}
	}
	a.promptMu.Lock()
	a.prompts = store
	a.promptMu.Unlock()
}

// Usage returns accumulated token usage.
func (a *Adapter) Usage() domain.LLMUsage {
	a.usageMu.Lock()
	defer a.usageMu.Unlock()
	out := a.usage
	out.ByModel = make(map[string]domain.TokenUsage, len(a.usage.ByModel))
	for k, v := range a.usage.ByModel {
		out.ByModel[k] = v
	}
	return out
}

// call describes one structured capability invocation.
type call struct {
	name      string
	prompt    string
	data      any
	timeout   time.Duration
	maxTokens int
	domain    string
	// check validates the decoded response; a transient error triggers a retry.
	check func() error
}

// invoke renders the call's prompt and runs it under the retry policy,
// decoding the JSON response into out.
func (a *Adapter) invoke(ctx context.Context, c call, out any) error {
	if a.llm == nil {
		return domain.ErrLLMUnavailable
	}
	system, user, err := a.renderCall(c)
	if err != nil {
		return err
	}
	req := driven.CompletionRequest{
		System:    system,
		Messages:  []driven.ChatMessage{{Role: driven.RoleUser, Content: user}},
		JSON:      true,
		MaxTokens: c.maxTokens,
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}

	var lastErr error
	for attempt := 1; attempt <= a.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			a.countRetry()
			if err := sleep(ctx, time.Duration(attempt-1)*a.cfg.Backoff); err != nil {
				return fmt.Errorf("%s: %w", c.name, err)
			}
		}
		lastErr = a.attempt(ctx, c, req, a.cfg.DefaultModel, out)
		if lastErr == nil {
			return nil
		}
		logger.Debug("LLM %s attempt %d/%d failed: %v", c.name, attempt, a.cfg.MaxRetries, lastErr)
		if !domain.IsTransient(lastErr) || ctx.Err() != nil {
			return fmt.Errorf("%s: %w", c.name, lastErr)
		}
	}

	if a.cfg.UseFallbackAfterRetries && a.cfg.FallbackModel != "" && a.cfg.FallbackModel != a.cfg.DefaultModel {
		a.log.Warn("LLM retries exhausted, trying fallback model",
			"capability", c.name, "model", a.cfg.FallbackModel, "error", lastErr)
		a.countFallback()
		if err := sleep(ctx, time.Duration(a.cfg.MaxRetries)*a.cfg.Backoff); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
		lastErr = a.attempt(ctx, c, req, a.cfg.FallbackModel, out)
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("%s: %w: %w", c.name, domain.ErrRetriesExhausted, lastErr)
}

// attempt runs one provider call under its own timeout and decodes the response.
func (a *Adapter) attempt(ctx context.Context, c call, req driven.CompletionRequest, model string, out any) error {
	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if a.limiter != nil {
		if err := a.limiter.Wait(actx); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
		}
	}

	req.Model = model
	resp, err := a.llm.Complete(actx, req)
	if err != nil {
		a.countFailure(true)
		return err
	}
	a.record(resp, model)

	if err := decodeJSON(resp.Text, out); err != nil {
		a.countFailure(false)
		return err
	}
	if c.check != nil {
		if err := c.check(); err != nil {
			a.countFailure(false)
			return err
		}
	}
	return nil
}

func (a *Adapter) record(resp driven.CompletionResponse, requested string) {
	model := resp.Model
	if model == "" {
		model = requested
	}
	a.usageMu.Lock()
	defer a.usageMu.Unlock()
	a.usage.Calls++
	a.usage.Total = a.usage.Total.Add(resp.Usage)
	a.usage.ByModel[model] = a.usage.ByModel[model].Add(resp.Usage)
}

func (a *Adapter) countFailure(call bool) {
	a.usageMu.Lock()
	if call {
		a.usage.Calls++
	}
	a.usage.Failures++
	a.usageMu.Unlock()
}

func (a *Adapter) countRetry() {
	a.usageMu.Lock()
	a.usage.Retries++
	a.usageMu.Unlock()
}

func (a *Adapter) countFallback() {
	a.usageMu.Lock()
	a.usage.Fallback++
	a.usageMu.Unlock()
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
