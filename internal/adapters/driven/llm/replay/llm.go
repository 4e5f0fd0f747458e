// Package replay provides an offline LLM service that serves recorded responses.
//
// Responses are keyed by a fingerprint of the request: the SHA-256 of the
// RFC 8785 canonical JSON of its system prompt, messages and JSON flag. The
// model name is left out so fixtures survive default/fallback model changes.
// Entries may instead match on a substring of the last user message, which
// keeps hand-written fixtures short.
package replay

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gowebpki/jcs"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// ModelName is the model reported by replayed responses.
const ModelName = "replay"

// Entry is one recorded response.
type Entry struct {
	// Fingerprint matches a request exactly.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Contains matches when the last user message contains it (case-insensitive).
	Contains string `json:"contains,omitempty"`

	Response string            `json:"response"`
	Usage    domain.TokenUsage `json:"usage,omitzero"`
}

// Fixture is the on-disk replay file.
type Fixture struct {
	Entries []Entry `json:"entries"`
}

// LLMService replays recorded completions.
type LLMService struct {
	mu      sync.RWMutex
	exact   map[string]Entry
	partial []Entry
	calls   int
}

// New creates an empty replay service.
func New() *LLMService {
	return &LLMService{exact: make(map[string]Entry)}
}

// Load reads a fixture file.
func Load(path string) (*LLMService, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read replay fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode replay fixture %s: %w", path, err)
	}
	s := New()
	for _, e := range f.Entries {
		s.addEntry(e)
	}
	return s, nil
}

// Add records a response for an exact request.
func (s *LLMService) Add(req driven.CompletionRequest, response string) error {
	fp, err := Fingerprint(req)
	if err != nil {
		return err
	}
	s.addEntry(Entry{Fingerprint: fp, Response: response})
	return nil
}

// AddContains records a response for any request whose last user message contains substr.
func (s *LLMService) AddContains(substr, response string) {
	s.addEntry(Entry{Contains: substr, Response: response})
}

func (s *LLMService) addEntry(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Fingerprint != "" {
		s.exact[e.Fingerprint] = e
		return
	}
	e.Contains = strings.ToLower(e.Contains)
	s.partial = append(s.partial, e)
}

// Complete returns the recorded response for req or wraps domain.ErrNoReplay.
func (s *LLMService) Complete(ctx context.Context, req driven.CompletionRequest) (driven.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return driven.CompletionResponse{}, err
	}
	fp, err := Fingerprint(req)
	if err != nil {
		return driven.CompletionResponse{}, err
	}

	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.exact[fp]; ok {
		return response(e), nil
	}
	last := strings.ToLower(lastUserMessage(req))
	for _, e := range s.partial {
		if strings.Contains(last, e.Contains) {
			return response(e), nil
		}
	}
	return driven.CompletionResponse{}, fmt.Errorf("replay %s: %w", fp[:12], domain.ErrNoReplay)
}

// Calls returns the number of Complete calls served or missed.
func (s *LLMService) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

func response(e Entry) driven.CompletionResponse {
	return driven.CompletionResponse{Text: e.Response, Model: ModelName, Usage: e.Usage}
}

func lastUserMessage(req driven.CompletionRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == driven.RoleUser {
			return req.Messages[i].Content
		}
	}
	return ""
}

// Fingerprint returns the canonical request fingerprint.
func Fingerprint(req driven.CompletionRequest) (string, error) {
	raw, err := json.Marshal(struct {
		System   string               `json:"system"`
		Messages []driven.ChatMessage `json:"messages"`
		JSON     bool                 `json:"json"`
	}{req.System, req.Messages, req.JSON})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize request: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// ModelName returns the replay model name.
func (s *LLMService) ModelName() string {
	return ModelName
}

// Ping always succeeds.
func (s *LLMService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}

// Recorder wraps a live service and captures every successful exchange.
type Recorder struct {
	driven.LLMService

	mu      sync.Mutex
	entries []Entry
}

// Ensure Recorder implements the interface.
var _ driven.LLMService = (*Recorder)(nil)

// NewRecorder wraps inner.
func NewRecorder(inner driven.LLMService) *Recorder {
	return &Recorder{LLMService: inner}
}

// Complete forwards to the wrapped service and records the response.
func (r *Recorder) Complete(ctx context.Context, req driven.CompletionRequest) (driven.CompletionResponse, error) {
	resp, err := r.LLMService.Complete(ctx, req)
	if err != nil {
		return resp, err
	}
	fp, ferr := Fingerprint(req)
	if ferr == nil {
		r.mu.Lock()
		r.entries = append(r.entries, Entry{Fingerprint: fp, Response: resp.Text, Usage: resp.Usage})
		r.mu.Unlock()
	}
	return resp, nil
}

// Save writes the recorded exchanges as a fixture file.
func (r *Recorder) Save(path string) error {
	r.mu.Lock()
	f := Fixture{Entries: append([]Entry(nil), r.entries...)}
	r.mu.Unlock()

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode replay fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write replay fixture: %w", err)
	}
	return nil
}
