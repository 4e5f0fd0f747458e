package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabularySnapshot(t *testing.T) {
	snap := NewVocabularySnapshot(time.Now(), []VocabularyEntry{
		{Kind: VocabTerminal, ID: "t1", PrimaryCode: "T1", AlternateCodes: []string{"Terminal 1"}, DisplayName: "Main Terminal"},
		{Kind: VocabTerminal, ID: "t1-dup", PrimaryCode: "t1"},
		{Kind: VocabStand, ID: "s12a", PrimaryCode: "12A", Attributes: map[string]string{"terminal": "T1"}},
	})

	assert.Equal(t, 2, snap.Len(), "duplicate (kind, primaryCode) is dropped")

	e, ok := snap.Lookup(VocabTerminal, "terminal 1")
	require.True(t, ok)
	assert.Equal(t, "t1", e.ID)

	e, ok = snap.Lookup(VocabTerminal, "main terminal")
	require.True(t, ok)
	assert.Equal(t, "t1", e.ID)

	_, ok = snap.Lookup(VocabStand, "T1")
	assert.False(t, ok)

	e, ok = snap.LookupByID(VocabStand, "s12a")
	require.True(t, ok)
	ref := e.Ref()
	ref.Attributes["terminal"] = "T9"
	assert.Equal(t, "T1", e.Attributes["terminal"], "Ref copies attributes")

	var nilSnap *VocabularySnapshot
	assert.Zero(t, nilSnap.Len())
	_, ok = nilSnap.Lookup(VocabStand, "12A")
	assert.False(t, ok)
}

func TestVocabularyKind_EntityType(t *testing.T) {
	assert.Equal(t, EntityStand, VocabStand.EntityType())
	assert.Equal(t, EntityAircraftType, VocabAircraftType.EntityType())
	assert.Equal(t, EntityType(""), VocabularyKind("gate").EntityType())
}
