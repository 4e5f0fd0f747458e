// Package ai provides factory functions for creating LLM service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/airportai/internal/adapters/driven/capabilities"
	anthropicllm "github.com/custodia-labs/airportai/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/airportai/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/airportai/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/airportai/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/airportai/internal/adapters/driven/llm/replay"
	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Options tunes Init.
type Options struct {
	// RecordFile, when set, wraps the provider in a replay recorder whose
	// exchanges are written to this path on Close.
	RecordFile string

	// PromptStore supplies user-edited prompts (default: embedded prompts).
	PromptStore driven.PromptStore

	// Logger receives adapter logs.
	Logger driven.Logger

	// SkipPing builds the provider without checking connectivity.
	SkipPing bool
}

// InitResult contains the result of LLM initialisation.
type InitResult struct {
	LLMService   driven.LLMService
	Capabilities *capabilities.Adapter
	Warnings     []string // Non-fatal issues that caused degraded mode.
	Degraded     bool     // True if no provider is available.

	recorder   *replay.Recorder
	recordFile string
}

// Close flushes any recording and releases the provider.
func (r *InitResult) Close() error {
	var err error
	if r.recorder != nil {
		err = r.recorder.Save(r.recordFile)
	}
	if r.LLMService != nil {
		if cerr := r.LLMService.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Init builds the provider from settings, pings it and wraps it in the
// capability adapter. Any provider problem is reported as a warning: the
// capability adapter is still returned and answers ErrLLMUnavailable, so the
// pipeline runs degraded.
func Init(ctx context.Context, settings *domain.LLMSettings, opts Options) *InitResult {
	res := &InitResult{}
	cfg := capabilities.Config{}
	if settings != nil {
		cfg = capabilities.ConfigFromSettings(*settings)
	}

	var svc driven.LLMService
	var err error
	if opts.SkipPing {
		svc, err = CreateLLMService(ctx, settings)
	} else {
		svc, err = CreateAndValidateLLMService(ctx, settings)
	}
	switch {
	case err != nil:
		svc = nil
		res.Warnings = append(res.Warnings, err.Error())
	case svc == nil:
		res.Warnings = append(res.Warnings, "LLM provider not configured")
	}

	if svc != nil && opts.RecordFile != "" {
		res.recorder = replay.NewRecorder(svc)
		res.recordFile = opts.RecordFile
		svc = res.recorder
	}
	if svc == nil {
		res.Degraded = true
		cfg.DefaultModel = ""
	}

	res.LLMService = svc
	res.Capabilities = capabilities.New(svc, cfg, opts.Logger)
	if opts.PromptStore != nil {
		res.Capabilities.SetPromptStore(opts.PromptStore)
	}
	return res
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'airportai settings' to fix", domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: %s unreachable (%w)", domain.ErrLLMUnavailable, settings.Provider, err)
	}
	return svc, nil
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(pctx)
}

// CreateLLMService creates the provider named by settings.
// Returns nil if the provider is not configured.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.DefaultModel,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.DefaultModel,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.DefaultModel,
		})

	case domain.AIProviderGemini:
		return geminillm.NewLLMService(ctx, geminillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.DefaultModel,
		})

	case domain.AIProviderReplay:
		return replay.Load(settings.ReplayFile)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}
