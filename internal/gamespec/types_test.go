package gamespec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameSpecPreservesUnknownKeys(t *testing.T) {
	raw := `{
		"schema_version": "1.0",
		"title": "X",
		"genre": "top_down_shooter",
		"mood": "grim",
		"soundtrack": {"style": "chiptune"}
	}`
	var spec GameSpec
	require.NoError(t, json.Unmarshal([]byte(raw), &spec))

	assert.Equal(t, "X", spec.Title)
	assert.Contains(t, spec.Extra, "mood")
	assert.Contains(t, spec.Extra, "soundtrack")

	out, err := json.Marshal(&spec)
	require.NoError(t, err)
	var round map[string]any
	require.NoError(t, json.Unmarshal(out, &round))
	assert.Equal(t, "grim", round["mood"])
}

func TestGameSpecTypedFieldWinsOverExtra(t *testing.T) {
	spec := GameSpec{
		Title: "Typed",
		Extra: map[string]json.RawMessage{"title": json.RawMessage(`"Sneaky"`)},
	}
	out, err := json.Marshal(&spec)
	require.NoError(t, err)
	var round map[string]any
	require.NoError(t, json.Unmarshal(out, &round))
	assert.Equal(t, "Typed", round["title"])
}

func TestGameSpecClone(t *testing.T) {
	spec := &GameSpec{
		Title:     "Original",
		Mechanics: []string{"move"},
		Entities:  []Entity{{Name: "P", Role: "player", Attributes: map[string]any{"hp": 1}}},
		Controls:  Controls{"keyboard": {"arrows"}},
		Progression: map[string]any{
			"levels": 5,
		},
	}
	clone := spec.Clone()
	clone.Title = "Copy"
	clone.Mechanics[0] = "fly"
	clone.Entities[0].Attributes["hp"] = 9
	clone.Controls["keyboard"][0] = "wasd"
	clone.Progression["levels"] = 1

	assert.Equal(t, "Original", spec.Title)
	assert.Equal(t, "move", spec.Mechanics[0])
	assert.Equal(t, 1, spec.Entities[0].Attributes["hp"])
	assert.Equal(t, "arrows", spec.Controls["keyboard"][0])
	assert.Equal(t, 5, spec.Progression["levels"])
}

func TestDesignDocPreservesUnknownKeys(t *testing.T) {
	raw := `{
		"schema_version": "1.0",
		"world": "Aether",
		"premise": "Rebuild the shattered realm.",
		"economy": {"currency": "shards"}
	}`
	var doc DesignDoc
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	assert.Equal(t, "Aether", doc.World)
	assert.Contains(t, doc.Extra, "economy")

	out, err := json.Marshal(&doc)
	require.NoError(t, err)
	var round map[string]any
	require.NoError(t, json.Unmarshal(out, &round))
	require.Contains(t, round, "economy")
}
