package inverted

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokens(t *testing.T) {
	tok := tokenizer{minLen: 2, stem: true}

	assert.Equal(t, []string{"stand", "a1", "under", "maintenance"}, tok.tokens("Stand A1 is under maintenance."))
	assert.Equal(t, []string{"stand", "terminal", "b"}, tokenizer{minLen: 1, stem: true}.tokens("Stands at terminal B"))
	assert.Equal(t, []string{"stands", "flights"}, tokenizer{minLen: 2}.tokens("stands, flights!"))
	assert.Empty(t, tok.tokens("what is the"))
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"stands":      "stand",
		"gates":       "gate",
		"boxes":       "box",
		"matches":     "match",
		"flies":       "fly",
		"parking":     "park",
		"planned":     "plan",
		"towed":       "tow",
		"status":      "status",
		"class":       "class",
		"maintenance": "maintenance",
		"a380s":       "a380s",
		"bus":         "bus",
	}
	for in, want := range tests {
		assert.Equal(t, want, stem(in), in)
	}
}

func TestEditDistanceOne(t *testing.T) {
	assert.True(t, hammingOne("gate", "gale"))
	assert.False(t, hammingOne("gate", "gate"))
	assert.False(t, hammingOne("gate", "gates"))
	assert.False(t, hammingOne("gate", "goal"))

	assert.True(t, insertionOne("gate", "gatte"))
	assert.True(t, insertionOne("gate", "agate"))
	assert.True(t, insertionOne("gate", "gates"))
	assert.False(t, insertionOne("gate", "gatess"))
	assert.False(t, insertionOne("gate", "goats"))
}
