// Package scaffold assembles the complete Flutter/Flame project tree from
// the genre plugin output, imported assets, and platform boilerplate. All
// assembly is in-memory; nothing touches the filesystem until export.
//
// Merge order is boilerplate, then genre code under lib/game/, then data
// files under assets/, then documentation. The mount-point namespacing
// makes collisions between those layers structurally impossible; an actual
// collision is a bug in a plugin, reported as a fatal error.
package scaffold

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/gameforge/internal/enrich"
	"github.com/roach88/gameforge/internal/gamespec"
	"github.com/roach88/gameforge/internal/genre"
	"github.com/roach88/gameforge/internal/tree"
)

// Mount points for plugin output inside the project tree.
const (
	CodeMount = "lib/game"
	DataMount = "assets/data"
)

// Design doc rendering formats.
const (
	DocFormatJSON = "json"
	DocFormatMD   = "md"
)

// Input carries everything one scaffold pass needs.
type Input struct {
	Spec   *gamespec.GameSpec
	Genre  genre.Output
	Assets tree.FileTree // assets/imported/<role><ext>, may be nil

	// Doc and DocFormat control design document rendering: "json" writes
	// assets/design/design.json, "md" writes DESIGN.md at the project root.
	Doc       *gamespec.DesignDoc
	DocFormat string
}

// Build produces the final project tree.
func Build(in Input) (tree.FileTree, error) {
	if in.Spec == nil {
		return nil, fmt.Errorf("scaffold: spec must not be nil")
	}
	if _, ok := in.Genre.Code.Get(genre.EntryFile); !ok {
		return nil, fmt.Errorf("scaffold: genre output is missing %s", genre.EntryFile)
	}
	if _, ok := in.Genre.Code.Get(genre.AppFile); !ok {
		return nil, fmt.Errorf("scaffold: genre output is missing %s", genre.AppFile)
	}

	out := tree.New()

	// (b) genre code, namespaced.
	code := tree.New()
	for _, p := range in.Genre.Code.Paths() {
		content, _ := in.Genre.Code.Get(p)
		if err := code.Add(CodeMount+"/"+p, content); err != nil {
			return nil, err
		}
	}
	// (c) data files: plugin data plus imported assets plus design doc.
	data := tree.New()
	for _, p := range in.Genre.Data.Paths() {
		content, _ := in.Genre.Data.Get(p)
		if err := data.Add(DataMount+"/"+p, content); err != nil {
			return nil, err
		}
	}

	docs := tree.New()
	if in.Doc != nil {
		if err := renderDesignDoc(in, data, docs); err != nil {
			return nil, err
		}
	}

	// (a) boilerplate, parameterized by the final asset list.
	boiler, err := boilerplate(in.Spec, assetEntries(data, in.Assets))
	if err != nil {
		return nil, err
	}

	for _, layer := range []tree.FileTree{boiler, code, data, in.Assets, docs} {
		if layer == nil {
			continue
		}
		if err := out.Merge(layer); err != nil {
			return nil, fmt.Errorf("scaffold: %w", err)
		}
	}
	return out, nil
}

func renderDesignDoc(in Input, data, docs tree.FileTree) error {
	switch in.DocFormat {
	case DocFormatMD:
		return docs.AddString("DESIGN.md", enrich.Markdown(in.Doc))
	case DocFormatJSON, "":
		raw, err := json.MarshalIndent(in.Doc, "", "  ")
		if err != nil {
			return fmt.Errorf("scaffold: marshal design doc: %w", err)
		}
		return data.Add("assets/design/design.json", raw)
	default:
		return fmt.Errorf("scaffold: unknown design doc format %q", in.DocFormat)
	}
}

// assetEntries builds the pubspec asset list: the imported directory entry
// plus every generated data file, sorted.
func assetEntries(data, imported tree.FileTree) []string {
	entries := []string{"assets/imported/"}
	for _, p := range data.Paths() {
		entries = append(entries, p)
	}
	if imported != nil {
		for _, p := range imported.Paths() {
			if !strings.HasPrefix(p, "assets/imported/") {
				entries = append(entries, p)
			}
		}
	}
	sort.Strings(entries)
	return entries
}

func boilerplate(spec *gamespec.GameSpec, assetPaths []string) (tree.FileTree, error) {
	pkg := genre.PackageName(spec.Title)

	out := tree.New()
	files := map[string]string{
		"pubspec.yaml":  pubspecYAML(pkg, assetPaths),
		"lib/main.dart": mainDart(spec.Orientation),

		"android/app/src/main/AndroidManifest.xml": androidManifest(pkg, spec.Orientation),
		"android/build.gradle":                     androidRootBuildGradle,
		"android/app/build.gradle":                 androidAppBuildGradle(pkg),
		"android/settings.gradle":                  androidSettingsGradle,
		"android/gradle.properties":                androidGradleProperties,
		"android/gradle/wrapper/gradle-wrapper.properties":                 gradleWrapperProperties,
		"android/app/src/main/kotlin/com/example/" + pkg + "/MainActivity.kt": mainActivityKt(pkg),
		"android/app/src/main/res/values/styles.xml":                       androidStylesXML,
		"android/app/src/main/res/drawable/launch_background.xml":          androidLaunchBackgroundXML,
		"android/app/src/main/res/mipmap-hdpi/ic_launcher.png":             "",
		"android/app/src/debug/AndroidManifest.xml":                        androidDebugManifest,

		"ios/Runner/Info.plist": iosInfoPlist(spec.Title, spec.Orientation),
	}

	readme, err := renderDocs(spec)
	if err != nil {
		return nil, err
	}
	for p, c := range readme {
		files[p] = c
	}

	for p, c := range files {
		if err := out.AddString(p, c); err != nil {
			return nil, err
		}
	}
	return out, nil
}
