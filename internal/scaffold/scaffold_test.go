package scaffold

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gameforge/internal/gamespec"
	"github.com/roach88/gameforge/internal/genre"
	"github.com/roach88/gameforge/internal/tree"
)

func shooterSpec() *gamespec.GameSpec {
	return &gamespec.GameSpec{
		SchemaVersion:  gamespec.GameSpecSchemaVersion,
		Title:          "Space Blaster",
		Genre:          "top_down_shooter",
		Mechanics:      []string{"move", "shoot"},
		RequiredAssets: []string{"player", "enemy"},
		Screens:        []string{"main_menu", "game", "game_over"},
		Controls: gamespec.Controls{
			"keyboard": {"WASD", "space"},
			"mobile":   {"joystick", "fire_button"},
		},
		Progression: map[string]any{"scoring": "points"},
		CoreLoop:    "Move, shoot, survive.",
		Orientation: "landscape",
		ArtStyle:    "pixel-art",
		Platform:    "android",
		Scope:       "prototype",
		Dimension:   "2D",
	}
}

func idleSpec() *gamespec.GameSpec {
	s := shooterSpec()
	s.Title = "Idle Quest"
	s.Genre = "idle_rpg"
	s.Orientation = "portrait"
	return s
}

func generate(t *testing.T, spec *gamespec.GameSpec, doc *gamespec.DesignDoc) genre.Output {
	t.Helper()
	p, ok := genre.NewRegistry().Lookup(spec.Genre)
	require.True(t, ok)
	out, err := p.Generate(spec, doc)
	require.NoError(t, err)
	return out
}

func TestBuildShooterProject(t *testing.T) {
	spec := shooterSpec()
	out, err := Build(Input{Spec: spec, Genre: generate(t, spec, nil)})
	require.NoError(t, err)

	for _, required := range []string{
		"pubspec.yaml",
		"lib/main.dart",
		"lib/game/game.dart",
		"lib/game/app.dart",
		"lib/game/bullet_pool.dart",
		"README.md",
		"ASSETS_LICENSE.md",
		"CREDITS.md",
		"android/app/src/main/AndroidManifest.xml",
		"android/app/build.gradle",
		"android/app/src/main/kotlin/com/example/space_blaster/MainActivity.kt",
		"ios/Runner/Info.plist",
	} {
		_, ok := out.Get(required)
		assert.True(t, ok, required)
	}
}

func TestBuildLandscapeOrientation(t *testing.T) {
	spec := shooterSpec()
	out, err := Build(Input{Spec: spec, Genre: generate(t, spec, nil)})
	require.NoError(t, err)

	mainDart, _ := out.Get("lib/main.dart")
	assert.Contains(t, string(mainDart), "DeviceOrientation.landscapeLeft")

	manifest, _ := out.Get("android/app/src/main/AndroidManifest.xml")
	assert.Contains(t, string(manifest), `android:screenOrientation="sensorLandscape"`)

	plist, _ := out.Get("ios/Runner/Info.plist")
	assert.Contains(t, string(plist), "UIInterfaceOrientationLandscapeLeft")
}

func TestBuildPortraitOrientation(t *testing.T) {
	spec := idleSpec()
	out, err := Build(Input{Spec: spec, Genre: generate(t, spec, nil)})
	require.NoError(t, err)

	mainDart, _ := out.Get("lib/main.dart")
	assert.Contains(t, string(mainDart), "DeviceOrientation.portraitUp")

	manifest, _ := out.Get("android/app/src/main/AndroidManifest.xml")
	assert.Contains(t, string(manifest), `android:screenOrientation="sensorPortrait"`)
}

func TestBuildMainDartDelegatesToPlugin(t *testing.T) {
	spec := idleSpec()
	out, err := Build(Input{Spec: spec, Genre: generate(t, spec, nil)})
	require.NoError(t, err)

	mainDart, _ := out.Get("lib/main.dart")
	assert.Contains(t, string(mainDart), "import 'game/app.dart';")
	assert.Contains(t, string(mainDart), "runApp(const GameApp());")
}

func TestBuildMergesImportedAssets(t *testing.T) {
	spec := shooterSpec()
	imported := tree.New()
	require.NoError(t, imported.AddString("assets/imported/player.png", "png"))

	out, err := Build(Input{Spec: spec, Genre: generate(t, spec, nil), Assets: imported})
	require.NoError(t, err)
	_, ok := out.Get("assets/imported/player.png")
	assert.True(t, ok)
}

func TestBuildDesignDocJSON(t *testing.T) {
	spec := idleSpec()
	doc := &gamespec.DesignDoc{
		SchemaVersion: gamespec.DesignDocSchemaVersion,
		World:         "W",
		Premise:       "P",
		Quests:        []map[string]any{{"title": "Q"}},
		Characters:    []map[string]any{{"name": "C"}},
	}
	out, err := Build(Input{
		Spec:      spec,
		Genre:     generate(t, spec, doc),
		Doc:       doc,
		DocFormat: DocFormatJSON,
	})
	require.NoError(t, err)

	_, ok := out.Get("assets/design/design.json")
	assert.True(t, ok)

	pubspec, _ := out.Get("pubspec.yaml")
	assert.Contains(t, string(pubspec), "- assets/design/design.json")
}

func TestBuildDesignDocMarkdown(t *testing.T) {
	spec := idleSpec()
	doc := &gamespec.DesignDoc{
		SchemaVersion: gamespec.DesignDocSchemaVersion,
		World:         "The Hollow Vale",
		Premise:       "P",
	}
	out, err := Build(Input{
		Spec:      spec,
		Genre:     generate(t, spec, doc),
		Doc:       doc,
		DocFormat: DocFormatMD,
	})
	require.NoError(t, err)

	md, ok := out.Get("DESIGN.md")
	require.True(t, ok)
	assert.Contains(t, string(md), "The Hollow Vale")
	_, ok = out.Get("assets/design/design.json")
	assert.False(t, ok)
}

func TestBuildRejectsUnknownDocFormat(t *testing.T) {
	spec := idleSpec()
	_, err := Build(Input{
		Spec:      spec,
		Genre:     generate(t, spec, nil),
		Doc:       &gamespec.DesignDoc{},
		DocFormat: "pdf",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown design doc format")
}

func TestBuildCollisionIsFatal(t *testing.T) {
	spec := shooterSpec()
	evil := tree.New()
	require.NoError(t, evil.AddString("lib/main.dart", "clobber"))

	_, err := Build(Input{Spec: spec, Genre: generate(t, spec, nil), Assets: evil})
	require.Error(t, err)

	var collision *tree.CollisionError
	assert.ErrorAs(t, err, &collision)
}

func TestBuildRequiresEntryAndAppFiles(t *testing.T) {
	spec := shooterSpec()

	noEntry := genre.Output{Code: tree.New(), Data: tree.New()}
	_, err := Build(Input{Spec: spec, Genre: noEntry})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game.dart")

	onlyEntry := genre.Output{Code: tree.New(), Data: tree.New()}
	require.NoError(t, onlyEntry.Code.AddString(genre.EntryFile, "x"))
	_, err = Build(Input{Spec: spec, Genre: onlyEntry})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app.dart")
}

func TestBuildDeterministic(t *testing.T) {
	spec := idleSpec()
	a, err := Build(Input{Spec: spec, Genre: generate(t, spec, nil)})
	require.NoError(t, err)
	b, err := Build(Input{Spec: spec, Genre: generate(t, spec, nil)})
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestPubspecGolden(t *testing.T) {
	spec := idleSpec()
	out, err := Build(Input{Spec: spec, Genre: generate(t, spec, nil)})
	require.NoError(t, err)

	pubspec, ok := out.Get("pubspec.yaml")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(string(pubspec), "name: idle_quest\n"))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "idle_rpg_pubspec", pubspec)
}
