package enrich

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gameforge/internal/gamespec"
	"github.com/roach88/gameforge/internal/schema"
)

type fakeCompleter struct {
	response string
	err      error
}

func (f *fakeCompleter) Complete(context.Context, string, string) (string, error) {
	return f.response, f.err
}

func TestTemplateDocDeterministic(t *testing.T) {
	seed := int64(42)
	a := TemplateDoc("a dark fantasy idle rpg", &seed)
	b := TemplateDoc("a dark fantasy idle rpg", &seed)
	assert.Equal(t, a, b)

	// Nil seed hashes the prompt: still deterministic per prompt.
	c := TemplateDoc("a dark fantasy idle rpg", nil)
	d := TemplateDoc("a dark fantasy idle rpg", nil)
	assert.Equal(t, c, d)
}

func TestTemplateDocPassesSchema(t *testing.T) {
	for _, seed := range []int64{0, 1, 42, 1234567} {
		s := seed
		doc := TemplateDoc("prompt", &s)
		errs := schema.ValidateDesignDoc(doc)
		assert.Empty(t, errs, "seed %d", seed)
	}
}

func TestTemplateDocSectionSizes(t *testing.T) {
	seed := int64(7)
	doc := TemplateDoc("prompt", &seed)
	assert.Len(t, doc.MainStoryBeats, 6)
	assert.Len(t, doc.Quests, 3)
	assert.Len(t, doc.Characters, 3)
	assert.Len(t, doc.Factions, 3)
	assert.Len(t, doc.Locations, 3)
	assert.Len(t, doc.Items, 4)
	assert.Len(t, doc.Enemies, 3)
	assert.NotEmpty(t, doc.UpgradeTree)
	assert.NotEmpty(t, doc.IdleLoops)
}

func TestDesignGeneratorModelPath(t *testing.T) {
	seed := int64(1)
	template := TemplateDoc("x", &seed)
	raw := `{
		"world": "A moonlit archipelago of drowned temples.",
		"premise": "Raise a sunken order from the depths.",
		"main_story_beats": ["Wake", "Dive", "Rise"],
		"quests": [{"title": "Salvage"}],
		"characters": [{"name": "Nix"}],
		"factions": [{"name": "Tidewardens"}],
		"locations": [{"name": "The Shelf"}],
		"items": [{"name": "Coral Blade"}],
		"enemies": [{"name": "Depth Shade"}]
	}`
	g := &DesignGenerator{
		Completer: &fakeCompleter{response: "```json\n" + raw + "\n```"},
		Validate:  schema.ValidateDesignDoc,
	}
	doc, err := g.Generate(context.Background(), "underwater idle rpg", &seed)
	require.NoError(t, err)
	assert.Equal(t, "A moonlit archipelago of drowned temples.", doc.World)
	assert.NotEqual(t, template.World, doc.World)
	assert.Equal(t, gamespec.DesignDocSchemaVersion, doc.SchemaVersion)
}

func TestDesignGeneratorFallsBackOnError(t *testing.T) {
	seed := int64(42)
	g := &DesignGenerator{
		Completer: &fakeCompleter{err: fmt.Errorf("connection refused")},
		Validate:  schema.ValidateDesignDoc,
	}
	doc, err := g.Generate(context.Background(), "idle rpg", &seed)
	require.NoError(t, err)
	assert.Equal(t, TemplateDoc("idle rpg", &seed), doc)
}

func TestDesignGeneratorFallsBackOnInvalidDoc(t *testing.T) {
	seed := int64(42)
	g := &DesignGenerator{
		// Missing every required section.
		Completer: &fakeCompleter{response: `{"world": "only a world"}`},
		Validate:  schema.ValidateDesignDoc,
	}
	doc, err := g.Generate(context.Background(), "idle rpg", &seed)
	require.NoError(t, err)
	assert.Equal(t, TemplateDoc("idle rpg", &seed), doc)
}

func TestDesignGeneratorNilCompleterUsesTemplate(t *testing.T) {
	seed := int64(9)
	g := &DesignGenerator{Validate: schema.ValidateDesignDoc}
	doc, err := g.Generate(context.Background(), "idle rpg", &seed)
	require.NoError(t, err)
	assert.Equal(t, TemplateDoc("idle rpg", &seed), doc)
}

func TestMarkdownRendering(t *testing.T) {
	seed := int64(3)
	doc := TemplateDoc("idle rpg", &seed)
	md := Markdown(doc)

	assert.Contains(t, md, "# Idle RPG Design Document")
	for _, heading := range []string{
		"## World", "## Premise", "## Main Story Beats", "## Quests",
		"## Characters", "## Factions", "## Locations", "## Items",
		"## Enemies", "## Upgrade Tree", "## Idle Loops",
	} {
		assert.Contains(t, md, heading)
	}
	// Deterministic rendering.
	assert.Equal(t, md, Markdown(doc))
}
