package capabilities

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/custodia-labs/airportai/internal/adapters/driven/prompts"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

var funcs = template.FuncMap{
	"join": strings.Join,
}

// renderer caches parsed templates keyed by their source text, so edited
// prompt files are re-parsed after a store reload and unchanged ones are not.
type renderer struct {
	mu    sync.Mutex
	cache map[string]*template.Template
}

func newRenderer() *renderer {
	return &renderer{cache: make(map[string]*template.Template)}
}

func (r *renderer) execute(name, src string, data any) (string, error) {
	r.mu.Lock()
	tmpl, ok := r.cache[src]
	if !ok {
		parsed, err := template.New(name).Funcs(funcs).Option("missingkey=zero").Parse(src)
		if err != nil {
			r.mu.Unlock()
			return "", fmt.Errorf("parse prompt %q: %w", name, err)
		}
		r.cache[src] = parsed
		tmpl = parsed
	}
	r.mu.Unlock()

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// load fetches a template from the store, falling back to the embedded default.
func (a *Adapter) load(name string) (string, error) {
	a.promptMu.RLock()
	store := a.prompts
	a.promptMu.RUnlock()

	src, err := store.Load(name)
	if err == nil && strings.TrimSpace(src) != "" {
		return src, nil
	}
	if def, ok := prompts.Default(name); ok {
		return def, nil
	}
	return "", fmt.Errorf("load prompt %q: %w", name, err)
}

// renderCall renders the system prompt and the call's user prompt.
func (a *Adapter) renderCall(c call) (string, string, error) {
	sysSrc, err := a.load(driven.PromptSystem)
	if err != nil {
		return "", "", err
	}
	system, err := a.render.execute(driven.PromptSystem, sysSrc, struct{ Domain string }{c.domain})
	if err != nil {
		return "", "", err
	}
	src, err := a.load(c.prompt)
	if err != nil {
		return "", "", err
	}
	user, err := a.render.execute(c.prompt, src, c.data)
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}
