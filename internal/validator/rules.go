package validator

import (
	"bytes"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gameforge/internal/tree"
)

// flameConstraint is the engine version every generated project pins.
// Patch rules normalize drifted constraints back to it.
const flameConstraint = "^1.18.0"

const analysisOptionsYAML = `include: package:flutter_lints/flutter.yaml

linter:
  rules:
    prefer_const_constructors: false
    avoid_print: false
`

// PatchRule is one deterministic, idempotent rewrite applied to the project
// tree to fix a known class of validation failure. Apply reports whether it
// actually changed anything; an apply that changes nothing on a second pass
// is what lets the autofix loop detect a fixed point and stop.
type PatchRule struct {
	Name string

	// Matches gates the rule on the last tool output. Nil means always try.
	Matches func(toolLog string) bool

	// Apply rewrites t in place and reports whether any file changed.
	Apply func(t tree.FileTree, toolLog string) (bool, error)
}

// DefaultRules returns the ordered patch-rule set. Order matters: file
// creation and manifest normalization run before source-level rewrites so a
// later rule sees the normalized project.
func DefaultRules() []PatchRule {
	return []PatchRule{
		{
			Name:  "ensure_analysis_options",
			Apply: ensureAnalysisOptions,
		},
		{
			Name:  "normalize_pubspec",
			Apply: normalizePubspec,
		},
		{
			Name:  "fix_pubspec_assets_indentation",
			Apply: fixPubspecAssetsIndent,
		},
		{
			Name:    "add_flame_import_to_main",
			Matches: func(log string) bool { return strings.Contains(log, "flame") && strings.Contains(log, "lib/main.dart") },
			Apply:   ensureImport("lib/main.dart", "import 'package:flame/game.dart';"),
		},
		{
			Name:    "add_material_import_to_main",
			Matches: func(log string) bool { return strings.Contains(log, "material") && strings.Contains(log, "lib/main.dart") },
			Apply:   ensureImport("lib/main.dart", "import 'package:flutter/material.dart';"),
		},
		{
			Name: "add_services_import_to_main",
			Matches: func(log string) bool {
				return strings.Contains(log, "SystemChrome") || strings.Contains(log, "DeviceOrientation")
			},
			Apply: ensureImport("lib/main.dart", "import 'package:flutter/services.dart';"),
		},
		{
			Name:    "remove_unused_import",
			Matches: func(log string) bool { return strings.Contains(strings.ToLower(log), "unused import") },
			Apply:   removeUnusedImport,
		},
		{
			Name:    "replace_raw_key_events",
			Matches: func(log string) bool { return strings.Contains(log, "RawKey") },
			Apply:   replaceRawKeyEvents,
		},
	}
}

// ApplyRules runs every matching rule against t in declaration order and
// returns the names of the rules that changed a file.
func ApplyRules(rules []PatchRule, t tree.FileTree, toolLog string) ([]string, error) {
	var applied []string
	for _, r := range rules {
		if r.Matches != nil && !r.Matches(toolLog) {
			continue
		}
		changed, err := r.Apply(t, toolLog)
		if err != nil {
			return applied, fmt.Errorf("patch rule %s: %w", r.Name, err)
		}
		if changed {
			applied = append(applied, r.Name)
		}
	}
	return applied, nil
}

func ensureAnalysisOptions(t tree.FileTree, _ string) (bool, error) {
	if _, ok := t.Get("analysis_options.yaml"); ok {
		return false, nil
	}
	return true, t.AddString("analysis_options.yaml", analysisOptionsYAML)
}

// normalizePubspec pins the flame constraint and makes sure flutter_test is
// declared as a dev dependency so injected smoke tests can run. The document
// is edited as a yaml.Node tree so key order and scalar styles survive the
// round trip; the file is only rewritten when a value actually changed.
func normalizePubspec(t tree.FileTree, _ string) (bool, error) {
	raw, ok := t.Get("pubspec.yaml")
	if !ok {
		return false, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return false, fmt.Errorf("parse pubspec.yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return false, nil
	}
	root := doc.Content[0]

	changed := false
	if deps := mapValue(root, "dependencies"); deps != nil {
		if flame := mapValue(deps, "flame"); flame != nil && flame.Value != flameConstraint {
			flame.SetString(flameConstraint)
			changed = true
		}
	}
	if ensureFlutterTestDep(root) {
		changed = true
	}
	if !changed {
		return false, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return false, fmt.Errorf("re-encode pubspec.yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return false, fmt.Errorf("re-encode pubspec.yaml: %w", err)
	}
	return true, t.Set("pubspec.yaml", buf.Bytes())
}

func ensureFlutterTestDep(root *yaml.Node) bool {
	dev := mapValue(root, "dev_dependencies")
	if dev == nil {
		dev = &yaml.Node{Kind: yaml.MappingNode}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "dev_dependencies"},
			dev,
		)
	}
	if mapValue(dev, "flutter_test") != nil {
		return false
	}
	dev.Content = append(dev.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "flutter_test"},
		&yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "sdk"},
			{Kind: yaml.ScalarNode, Value: "flutter"},
		}},
	)
	return true
}

func mapValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// fixPubspecAssetsIndent re-indents the flutter/assets block to the layout
// the Flutter tool expects: "assets:" at two spaces, entries at four. Only
// the assets block is touched so the rest of the file stays byte-identical.
func fixPubspecAssetsIndent(t tree.FileTree, _ string) (bool, error) {
	raw, ok := t.Get("pubspec.yaml")
	if !ok {
		return false, nil
	}

	lines := strings.SplitAfter(string(raw), "\n")
	changed := false
	inFlutter := false
	inAssets := false

	for i, line := range lines {
		stripped := strings.TrimLeft(line, " ")
		indent := len(line) - len(stripped)
		trimmed := strings.TrimRight(stripped, "\n")

		if trimmed == "flutter:" && indent == 0 {
			inFlutter = true
			inAssets = false
			continue
		}
		if !inFlutter {
			continue
		}
		switch {
		case indent == 0 && strings.TrimSpace(trimmed) != "" && !strings.HasPrefix(trimmed, "#"):
			inFlutter = false
			inAssets = false
		case strings.HasPrefix(trimmed, "assets:") && indent < 4:
			inAssets = true
			if line != "  assets:\n" {
				lines[i] = "  assets:\n"
				changed = true
			}
		case inAssets && strings.HasPrefix(trimmed, "- "):
			correct := "    " + trimmed + "\n"
			if line != correct {
				lines[i] = correct
				changed = true
			}
		}
	}

	if !changed {
		return false, nil
	}
	return true, t.Set("pubspec.yaml", []byte(strings.Join(lines, "")))
}

// ensureImport returns a rule body that inserts importLine after the last
// existing import (or leading comment) of the given Dart file.
func ensureImport(dartFile, importLine string) func(tree.FileTree, string) (bool, error) {
	return func(t tree.FileTree, _ string) (bool, error) {
		raw, ok := t.Get(dartFile)
		if !ok {
			return false, nil
		}
		content := string(raw)
		if strings.Contains(content, importLine) {
			return false, nil
		}
		lines := strings.SplitAfter(content, "\n")
		idx := 0
		for i, line := range lines {
			if strings.HasPrefix(line, "import ") || strings.HasPrefix(line, "//") {
				idx = i + 1
			}
		}
		lines = slices.Insert(lines, idx, importLine+"\n")
		return true, t.Set(dartFile, []byte(strings.Join(lines, "")))
	}
}

// Both analyzer output shapes are recognized: the machine-ish
// "lib/x.dart:3:8: ... unused import" and the human bullet form
// "info - Unused import: '...' - lib/x.dart:3:8 - unused_import".
var (
	unusedImportPrefixRe = regexp.MustCompile(`(lib/[^\s:]+\.dart):(\d+):\d+.*[Uu]nused import`)
	unusedImportSuffixRe = regexp.MustCompile(`[Uu]nused import[^\n]*?(lib/[^\s:]+\.dart):(\d+):\d+`)
)

// removeUnusedImport deletes the first unused import the analyzer reported.
// One import per pass; the next validation run reports the next one.
func removeUnusedImport(t tree.FileTree, toolLog string) (bool, error) {
	m := unusedImportPrefixRe.FindStringSubmatch(toolLog)
	if m == nil {
		m = unusedImportSuffixRe.FindStringSubmatch(toolLog)
	}
	if m == nil {
		return false, nil
	}
	file := m[1]
	lineNo, err := strconv.Atoi(m[2])
	if err != nil {
		return false, nil
	}
	raw, ok := t.Get(file)
	if !ok {
		return false, nil
	}
	lines := strings.SplitAfter(string(raw), "\n")
	idx := lineNo - 1
	if idx < 0 || idx >= len(lines) || !strings.HasPrefix(strings.TrimSpace(lines[idx]), "import ") {
		return false, nil
	}
	lines = slices.Delete(lines, idx, idx+1)
	return true, t.Set(file, []byte(strings.Join(lines, "")))
}

var rawKeyReplacer = strings.NewReplacer(
	"RawKeyDownEvent", "KeyDownEvent",
	"RawKeyUpEvent", "KeyUpEvent",
	"RawKeyEventData", "KeyEventData",
	"RawKeyEvent", "KeyEvent",
	"RawKeyboardListener", "KeyboardListener",
)

// replaceRawKeyEvents migrates the removed RawKeyEvent API to the KeyEvent
// API across every Dart source file.
func replaceRawKeyEvents(t tree.FileTree, _ string) (bool, error) {
	changed := false
	for _, p := range t.Paths() {
		if !strings.HasPrefix(p, "lib/") || !strings.HasSuffix(p, ".dart") {
			continue
		}
		raw, _ := t.Get(p)
		fixed := rawKeyReplacer.Replace(string(raw))
		if fixed != string(raw) {
			if err := t.Set(p, []byte(fixed)); err != nil {
				return changed, err
			}
			changed = true
		}
	}
	return changed, nil
}
