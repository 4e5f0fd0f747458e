package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/airportai/internal/adapters/driven/prompts"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptExt is the extension of user-editable prompt files.
const PromptExt = ".tmpl"

// legacyExt is also accepted so plain-text editors can be used.
const legacyExt = ".txt"

// PromptStore loads LLM prompt templates from user-editable files on disk,
// falling back to the embedded defaults.
//
// The store initialises lazily: the directory and default files are only
// created on the first Load, not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to HomeDir()/prompts.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := HomeDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the template for name: the cached copy, else the file on
// disk, else the embedded default.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := prompts.Default(name); ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		if def, ok := prompts.Default(name); ok {
			return def, nil
		}
		if err == nil {
			err = fmt.Errorf("empty prompt file")
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Reset overwrites the file for name with its embedded default.
func (s *PromptStore) Reset(name string) error {
	def, ok := prompts.Default(name)
	if !ok {
		return fmt.Errorf("prompt %q: no embedded default", name)
	}
	if err := os.MkdirAll(s.promptDir, 0o700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	if err := os.WriteFile(s.path(name, PromptExt), []byte(def+"\n"), 0o600); err != nil {
		return fmt.Errorf("reset prompt %q: %w", name, err)
	}
	_ = os.Remove(s.path(name, legacyExt))
	s.Reload()
	return nil
}

func (s *PromptStore) path(name, ext string) string {
	return filepath.Join(s.promptDir, name+ext)
}

// initialise creates the prompt directory, the default files and a README.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0o700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range prompts.Defaults() {
		if s.exists(name) {
			continue
		}
		if err := os.WriteFile(s.path(name, PromptExt), []byte(content+"\n"), 0o600); err != nil {
			s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
			return
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) exists(name string) bool {
	for _, ext := range []string{PromptExt, legacyExt} {
		if _, err := os.Stat(s.path(name, ext)); err == nil {
			return true
		}
	}
	return false
}

// loadFromFile reads a prompt from disk, preferring .tmpl over .txt.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(s.path(name, PromptExt))
	if os.IsNotExist(err) {
		data, err = os.ReadFile(s.path(name, legacyExt))
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	names := make([]string, 0, len(driven.AllPromptNames()))
	names = append(names, driven.AllPromptNames()...)
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("# AirportAI Prompts\n\n")
	b.WriteString("This directory contains the prompt templates used by the AirportAI reasoning pipeline.\n\n")
	b.WriteString("## Files\n\n")
	for _, n := range names {
		fmt.Fprintf(&b, "- `%s%s`\n", n, PromptExt)
	}
	b.WriteString(`
## Customisation

Edit any file to change LLM behaviour. A running server reloads prompts when
a file changes. Delete a file to go back to the built-in default.

## Template syntax

Files are Go text/template sources. Fields such as {{.Utterance}} and
{{.Knowledge}} are filled in per call; keep them when editing. Every template
must still ask for the JSON shape shown at its end.
`)
	return os.WriteFile(path, []byte(b.String()), 0o600)
}
