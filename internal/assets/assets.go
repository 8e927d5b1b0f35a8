// Package assets scans a user-supplied media directory and maps files to
// the spec's required asset roles with a deterministic filename heuristic.
// Matching never fails a run: roles without a plausible file stay
// unmatched and the generated code falls back to placeholder rendering.
package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/gameforge/internal/tree"
)

// Allow-listed media extensions, lowercase with the leading dot.
var (
	ImageExtensions = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	}
	AudioExtensions = map[string]bool{
		".wav": true, ".mp3": true, ".ogg": true,
	}
)

// roleTags maps an asset role to the filename fragments that count as a
// tag hit. Roles absent from the table fall back to the role string itself.
var roleTags = map[string][]string{
	"player":     {"player", "hero", "soldier", "character", "protagonist"},
	"enemy":      {"enemy", "orc", "monster", "foe", "villain", "mob"},
	"bullet":     {"bullet", "projectile", "shot", "laser", "arrow"},
	"background": {"background", "bg", "map", "tileset", "floor", "ground"},
	"explosion":  {"explosion", "blast", "boom", "effect", "fx"},
	"icon":       {"icon", "ui", "hud", "button"},
	"skill_icon": {"skill", "ability", "spell", "power"},
	"hero":       {"hero", "player", "soldier", "character"},
}

// Match records the winning candidate for one role.
type Match struct {
	Role  string `json:"role"`
	Path  string `json:"path"`
	Score int    `json:"score"`
	Kind  string `json:"kind"` // "image" or "audio"
}

// Scan recursively collects every allow-listed media file under dir,
// sorted lexicographically so downstream tie-breaks are deterministic.
// A missing directory yields an empty slice, not an error.
func Scan(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ImageExtensions[ext] || AudioExtensions[ext] {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(found)
	return found, nil
}

// MatchRoles picks the best candidate per role. Scoring per pair:
// +100 when the role equals the file stem (case-insensitive, separators
// ignored), +50 on the first tag fragment found in the stem, +10 extra for
// image files but only on top of an existing hit. Strictly-greater
// comparison over the sorted candidate list keeps the lexicographically
// first path on ties. Roles scoring zero are omitted.
func MatchRoles(roles, candidates []string) map[string]Match {
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	matches := make(map[string]Match, len(roles))
	for _, role := range roles {
		best, ok := bestMatch(role, sorted)
		if ok {
			matches[role] = best
		}
	}
	return matches
}

func bestMatch(role string, candidates []string) (Match, bool) {
	tags, ok := roleTags[role]
	if !ok {
		tags = []string{role}
	}
	normRole := normalizeStem(role)

	var best Match
	for _, path := range candidates {
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		ext := strings.ToLower(filepath.Ext(path))
		score := 0

		if normalizeStem(stem) == normRole {
			score += 100
		}
		for _, tag := range tags {
			if strings.Contains(stem, tag) {
				score += 50
				break
			}
		}
		if score > 0 && ImageExtensions[ext] {
			score += 10
		}

		if score > best.Score {
			kind := "audio"
			if ImageExtensions[ext] {
				kind = "image"
			}
			best = Match{Role: role, Path: path, Score: score, Kind: kind}
		}
	}
	return best, best.Score > 0
}

// normalizeStem lowercases and drops separator characters so "skill-icon",
// "skill_icon" and "Skill Icon" all compare equal.
func normalizeStem(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case '-', '_', ' ', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Import reads every matched file and mounts it at
// assets/imported/<role><ext> in a fresh file tree for the scaffolder to
// merge. Filenames are normalized to the role so generated code can refer
// to assets without knowing the source layout.
func Import(matches map[string]Match) (tree.FileTree, error) {
	out := tree.New()
	roles := make([]string, 0, len(matches))
	for role := range matches {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	for _, role := range roles {
		m := matches[role]
		data, err := os.ReadFile(m.Path)
		if err != nil {
			return nil, fmt.Errorf("import asset for role %q: %w", role, err)
		}
		dest := fmt.Sprintf("assets/imported/%s%s", role, strings.ToLower(filepath.Ext(m.Path)))
		if err := out.Add(dest, data); err != nil {
			return nil, err
		}
	}
	return out, nil
}
