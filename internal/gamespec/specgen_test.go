package gamespec

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGenres() []GenreInfo {
	return []GenreInfo{
		{
			ID: "top_down_shooter",
			Keywords: []string{
				"shoot", "shooter", "bullet", "enemy", "space", "gun", "blast",
				"missile", "asteroid", "galaga", "shmup", "top down",
			},
			Orientation: "landscape",
		},
		{
			ID: "idle_rpg",
			Keywords: []string{
				"idle", "rpg", "clicker", "upgrade", "hero", "quest", "adventure",
				"level up", "experience", "skill", "passive", "resource",
			},
			Orientation: "portrait",
		},
	}
}

func testConstraints() Constraints {
	return Constraints{
		Platform:  DefaultPlatform,
		Scope:     DefaultScope,
		ArtStyle:  DefaultArtStyle,
		Dimension: DefaultDimension,
	}
}

type fakeCompleter struct {
	response string
	err      error
	called   bool
}

func (f *fakeCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	f.called = true
	return f.response, f.err
}

func TestInferGenre(t *testing.T) {
	g := &Generator{Genres: testGenres()}

	cases := map[string]string{
		"a space shooter with asteroids":        "top_down_shooter",
		"an idle rpg where heroes level up":     "idle_rpg",
		"a cozy farming simulator":              "top_down_shooter", // default
		"make a clicker with passive upgrades":  "idle_rpg",
		"galaga style shmup with bullet spray":  "top_down_shooter",
		"quest driven adventure with skills":    "idle_rpg",
		"top down blast fest, guns and enemies": "top_down_shooter",
	}
	for prompt, want := range cases {
		assert.Equal(t, want, g.inferGenre(prompt).ID, prompt)
	}
}

func TestInferGenreTieKeepsDeclarationOrder(t *testing.T) {
	g := &Generator{Genres: []GenreInfo{
		{ID: "first", Keywords: []string{"foo"}},
		{ID: "second", Keywords: []string{"bar"}},
	}}
	// One hit each: declaration order wins.
	assert.Equal(t, "first", g.inferGenre("foo bar").ID)
}

func TestExtractTitle(t *testing.T) {
	cases := map[string]string{
		`a shooter called "Asteroid Alley" in space`: "Asteroid Alley",
		"space shooter with asteroids and lasers":    "Space Shooter With Asteroids",
		"tiny game":                                  "Tiny Game",
		"":                                           "My Game",
	}
	for prompt, want := range cases {
		assert.Equal(t, want, extractTitle(prompt), prompt)
	}
}

func TestGenerateHeuristic(t *testing.T) {
	g := &Generator{Genres: testGenres()}
	spec, err := g.Generate(context.Background(), "space shooter with asteroids", testConstraints())
	require.NoError(t, err)

	assert.Equal(t, GameSpecSchemaVersion, spec.SchemaVersion)
	assert.Equal(t, "top_down_shooter", spec.Genre)
	assert.Equal(t, "landscape", spec.Orientation)
	assert.Equal(t, "2D", spec.Dimension)
	assert.Equal(t, "pixel-art", spec.ArtStyle)
	assert.Equal(t, "android", spec.Platform)
	assert.Equal(t, "prototype", spec.Scope)
	assert.False(t, spec.Online)
	assert.Equal(t, []string{"main_menu", "game", "game_over"}, spec.Screens)
	assert.Contains(t, spec.RequiredAssets, "bullet")
	assert.Contains(t, spec.Controls, "keyboard")
	assert.Contains(t, spec.Controls, "mobile")
	require.Len(t, spec.Entities, 3)
	assert.Equal(t, "projectile", spec.Entities[2].Role)
}

func TestGenerateIdleRPGDefaults(t *testing.T) {
	g := &Generator{Genres: testGenres()}
	spec, err := g.Generate(context.Background(), "an idle rpg clicker", testConstraints())
	require.NoError(t, err)

	assert.Equal(t, "idle_rpg", spec.Genre)
	assert.Equal(t, "portrait", spec.Orientation)
	assert.Equal(t, map[string]any{"scoring": "experience", "levels": 20, "prestige": false}, spec.Progression)
}

func TestGenerateExplicitGenreSkipsInference(t *testing.T) {
	g := &Generator{Genres: testGenres()}
	c := testConstraints()
	c.Genre = "idle_rpg"
	// Prompt screams shooter; the override wins.
	spec, err := g.Generate(context.Background(), "space shooter with bullets", c)
	require.NoError(t, err)
	assert.Equal(t, "idle_rpg", spec.Genre)
}

func TestGenerateUnknownGenre(t *testing.T) {
	g := &Generator{Genres: testGenres()}
	c := testConstraints()
	c.Genre = "roguelike"
	_, err := g.Generate(context.Background(), "whatever", c)
	require.Error(t, err)

	var errs FieldErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, ErrUnknownGenre, errs[0].Code)
}

func TestGenerateDeterministic(t *testing.T) {
	g := &Generator{Genres: testGenres()}
	a, err := g.Generate(context.Background(), "space shooter", testConstraints())
	require.NoError(t, err)
	b, err := g.Generate(context.Background(), "space shooter", testConstraints())
	require.NoError(t, err)

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	assert.Equal(t, string(ja), string(jb))
}

func TestEnrichmentMerge(t *testing.T) {
	fake := &fakeCompleter{response: "```json\n" + `{
		"title": "Neon Void",
		"genre": "top_down_shooter",
		"mechanics": ["move", "shoot", "dash"],
		"flavor": "synthwave"
	}` + "\n```"}
	g := &Generator{Genres: testGenres(), Completer: fake}

	spec, err := g.Generate(context.Background(), "space shooter", testConstraints())
	require.NoError(t, err)
	assert.True(t, fake.called)
	assert.Equal(t, "Neon Void", spec.Title)
	assert.Equal(t, []string{"move", "shoot", "dash"}, spec.Mechanics)
	// Heuristic fields the model omitted survive the merge.
	assert.Equal(t, []string{"main_menu", "game", "game_over"}, spec.Screens)
	// Constraints always win over model output.
	assert.Equal(t, "2D", spec.Dimension)
	assert.Equal(t, "android", spec.Platform)
	// Unknown keys are preserved, not dropped.
	assert.Contains(t, spec.Extra, "flavor")
}

func TestEnrichmentCoercesUnknownGenre(t *testing.T) {
	fake := &fakeCompleter{response: `{"title": "X", "genre": "bullet_heaven"}`}
	g := &Generator{Genres: testGenres(), Completer: fake}

	spec, err := g.Generate(context.Background(), "space shooter", testConstraints())
	require.NoError(t, err)
	assert.Equal(t, "top_down_shooter", spec.Genre)
}

func TestEnrichmentDiscardedOnError(t *testing.T) {
	fake := &fakeCompleter{err: fmt.Errorf("connection refused")}
	g := &Generator{Genres: testGenres(), Completer: fake}

	spec, err := g.Generate(context.Background(), "space shooter", testConstraints())
	require.NoError(t, err)
	assert.True(t, fake.called)
	assert.Equal(t, "Space Shooter", spec.Title)
}

func TestEnrichmentDiscardedOnBadJSON(t *testing.T) {
	fake := &fakeCompleter{response: "Sure! Here is your game: move fast and shoot."}
	g := &Generator{Genres: testGenres(), Completer: fake}

	spec, err := g.Generate(context.Background(), "space shooter", testConstraints())
	require.NoError(t, err)
	assert.Equal(t, "Space Shooter", spec.Title)
}

func TestEnrichmentDiscardedOnValidationFailure(t *testing.T) {
	fake := &fakeCompleter{response: `{"title": "Bad Title"}`}
	validate := func(s *GameSpec) FieldErrors {
		if s.Title == "Bad Title" {
			return FieldErrors{{Field: "title", Message: "rejected", Code: ErrSchemaViolation}}
		}
		return nil
	}
	g := &Generator{Genres: testGenres(), Completer: fake, Validate: validate}

	spec, err := g.Generate(context.Background(), "space shooter", testConstraints())
	require.NoError(t, err)
	assert.Equal(t, "Space Shooter", spec.Title)
}

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		`{"a":1}`:                 `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, StripCodeFences(in), "%q", in)
	}
}

func TestHeuristicSpecGolden(t *testing.T) {
	gen := &Generator{Genres: testGenres()}
	spec, err := gen.Generate(context.Background(), "space shooter with asteroids", testConstraints())
	require.NoError(t, err)

	data, err := json.MarshalIndent(spec, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "heuristic_shooter_spec", data)
}
