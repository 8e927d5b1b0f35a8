// Package genre holds the genre plugin registry, the extensibility seam of
// the generator. A plugin is a pure function from a GameSpec (plus the
// optional design document) to file trees: same spec in, same files out,
// no I/O. Adding a genre means registering one more Plugin here; no other
// component changes.
package genre

import (
	"fmt"

	"github.com/roach88/gameforge/internal/gamespec"
	"github.com/roach88/gameforge/internal/tree"
)

// EntryFile is the file every plugin must emit at the root of its code
// tree. The scaffolder refuses trees without it.
const EntryFile = "game.dart"

// AppFile is the root widget file every plugin must emit; the generated
// lib/main.dart delegates to it so plugins control the whole UI shell
// without ever colliding with boilerplate paths.
const AppFile = "app.dart"

// Output is what a plugin produces. Code paths are relative to the
// namespaced game-logic subtree (lib/game/); Data paths are relative to
// assets/data/. The scaffolder owns the mounting, which is what guarantees
// plugin output can never collide with platform boilerplate.
type Output struct {
	Code tree.FileTree
	Data tree.FileTree
}

// GenerateFunc builds the genre-specific files for a spec. doc is nil
// unless a design document was generated for this run.
type GenerateFunc func(spec *gamespec.GameSpec, doc *gamespec.DesignDoc) (Output, error)

// Plugin describes one registered genre.
type Plugin struct {
	// ID is the genre identifier used in GameSpec.Genre.
	ID string

	// Keywords feed prompt inference: each case-insensitive substring hit
	// scores one point for this genre.
	Keywords []string

	// Orientation is the preferred screen orientation for the genre.
	Orientation string

	Generate GenerateFunc
}

// Registry is an immutable mapping from genre ID to plugin. It is
// constructed once at process start and passed explicitly into the
// generator and orchestrator; registration order doubles as the
// tie-break order for genre inference.
type Registry struct {
	order   []string
	plugins map[string]Plugin
}

// NewRegistry returns the standard registry with every built-in genre,
// in declaration order: top_down_shooter first, idle_rpg second.
func NewRegistry() *Registry {
	r := &Registry{plugins: map[string]Plugin{}}
	// Declaration order is load-bearing: it breaks inference ties.
	mustRegister(r, TopDownShooter())
	mustRegister(r, IdleRPG())
	return r
}

// NewEmptyRegistry returns a registry with no plugins, for tests that
// inject fakes.
func NewEmptyRegistry() *Registry {
	return &Registry{plugins: map[string]Plugin{}}
}

// Register adds a plugin. Returns an error on a duplicate or empty ID.
func (r *Registry) Register(p Plugin) error {
	if p.ID == "" {
		return fmt.Errorf("genre: plugin ID must not be empty")
	}
	if _, ok := r.plugins[p.ID]; ok {
		return fmt.Errorf("genre: duplicate plugin %q", p.ID)
	}
	if p.Generate == nil {
		return fmt.Errorf("genre: plugin %q has no generate function", p.ID)
	}
	r.order = append(r.order, p.ID)
	r.plugins[p.ID] = p
	return nil
}

// Lookup returns the plugin registered under id.
func (r *Registry) Lookup(id string) (Plugin, bool) {
	p, ok := r.plugins[id]
	return p, ok
}

// Genres returns every registered genre ID in declaration order.
func (r *Registry) Genres() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Infos projects the registry into the metadata slice the spec generator
// consumes, preserving declaration order.
func (r *Registry) Infos() []gamespec.GenreInfo {
	out := make([]gamespec.GenreInfo, 0, len(r.order))
	for _, id := range r.order {
		p := r.plugins[id]
		out = append(out, gamespec.GenreInfo{
			ID:          p.ID,
			Keywords:    append([]string(nil), p.Keywords...),
			Orientation: p.Orientation,
		})
	}
	return out
}

func mustRegister(r *Registry, p Plugin) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}
