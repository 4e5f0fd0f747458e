package prompts

import (
	"strings"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

func TestDefaults_CoverEveryPrompt(t *testing.T) {
	all := Defaults()

	for _, name := range driven.AllPromptNames() {
		t.Run(name, func(t *testing.T) {
			src, ok := all[name]
			require.True(t, ok)
			assert.NotEmpty(t, src)

			_, err := template.New(name).Funcs(template.FuncMap{"join": strings.Join}).Parse(src)
			assert.NoError(t, err)
		})
	}
}

func TestDefaults_ReturnsCopy(t *testing.T) {
	a := Defaults()
	a[driven.PromptSystem] = "changed"

	p, ok := Default(driven.PromptSystem)
	require.True(t, ok)
	assert.NotEqual(t, "changed", p)
}

func TestEmbedded_Load(t *testing.T) {
	p, err := Embedded{}.Load(driven.PromptClaimVerification)
	require.NoError(t, err)
	assert.Contains(t, p, "CONTRADICTED")

	_, err = Embedded{}.Load("nope")
	assert.Error(t, err)
}
