// Package prompts holds the embedded default prompt templates.
//
// Templates are Go text/template sources. The file-backed prompt store seeds
// user-editable copies from these defaults and falls back to them when a file
// is missing; Embedded serves them directly when no prompt directory is used.
package prompts

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

//go:embed defaults/*.tmpl
var defaultFS embed.FS

var (
	loadOnce sync.Once
	defaults map[string]string
)

func load() {
	defaults = make(map[string]string)
	for _, name := range driven.AllPromptNames() {
		data, err := defaultFS.ReadFile("defaults/" + name + ".tmpl")
		if err != nil {
			continue
		}
		defaults[name] = strings.TrimSpace(string(data))
	}
}

// Default returns the embedded template for name.
func Default(name string) (string, bool) {
	loadOnce.Do(load)
	p, ok := defaults[name]
	return p, ok
}

// Defaults returns a copy of every embedded template keyed by name.
func Defaults() map[string]string {
	loadOnce.Do(load)
	out := make(map[string]string, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	return out
}

// Ensure Embedded implements the interface.
var _ driven.PromptStore = Embedded{}

// Embedded is a read-only PromptStore over the embedded defaults.
type Embedded struct{}

// Load returns the embedded template.
func (Embedded) Load(name string) (string, error) {
	if p, ok := Default(name); ok {
		return p, nil
	}
	return "", fmt.Errorf("prompt %q: no embedded default", name)
}

// Reload is a no-op; embedded templates never change.
func (Embedded) Reload() {}
