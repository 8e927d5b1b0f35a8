// Package gamespec provides the canonical types flowing through the
// generation pipeline: the GameSpec produced by the spec generator, the
// resolved generation Constraints, and the optional DesignDoc enrichment
// payload.
//
// This package contains type definitions and constraint resolution only.
// All other internal packages import gamespec; gamespec imports nothing
// internal. Specs are created once per run and never mutated afterwards;
// downstream stages consume them read-only.
package gamespec

import "encoding/json"

// Schema version constants. Bump MAJOR.MINOR when making breaking changes
// to required fields or their types.
const (
	GameSpecSchemaVersion  = "1.0"
	DesignDocSchemaVersion = "1.0"
)

// Entity describes one game object the genre plugins emit code for.
// Role is a small open vocabulary (player, enemy, projectile, pickup, ...)
// consumed by plugins as a contract; the schema validates shape only.
type Entity struct {
	Name       string         `json:"name"`
	Role       string         `json:"role"`
	Attributes map[string]any `json:"attributes"`
}

// Controls maps an input surface ("keyboard", "mobile") to its ordered
// control identifiers. Both keys are required by the schema.
type Controls map[string][]string

// GameSpec is the canonical, versioned description of the game to generate.
//
// The required core fields are Title, Genre, Mechanics, RequiredAssets,
// Screens, Controls and Progression; everything else is optional. Unknown
// JSON keys survive an unmarshal/marshal round trip through the Extra bag,
// keeping the schema forward-compatible without losing type safety on the
// known fields.
type GameSpec struct {
	SchemaVersion string `json:"schema_version"`

	Title          string         `json:"title"`
	Genre          string         `json:"genre"`
	Mechanics      []string       `json:"mechanics"`
	Entities       []Entity       `json:"entities,omitempty"`
	RequiredAssets []string       `json:"required_assets"`
	Screens        []string       `json:"screens"`
	Controls       Controls       `json:"controls"`
	Progression    map[string]any `json:"progression"`

	CoreLoop         string   `json:"core_loop,omitempty"`
	PerformanceHints []string `json:"performance_hints,omitempty"`
	ArtStyle         string   `json:"art_style,omitempty"`
	Platform         string   `json:"platform,omitempty"`
	Scope            string   `json:"scope,omitempty"`
	Dimension        string   `json:"dimension,omitempty"`
	Orientation      string   `json:"orientation,omitempty"`
	Online           bool     `json:"online,omitempty"`
	AssetsDir        string   `json:"assets_dir,omitempty"`

	// Extra holds unknown keys from enrichment responses. Preserved, never
	// interpreted.
	Extra map[string]json.RawMessage `json:"-"`
}

// knownSpecKeys lists every JSON key mapped to a typed GameSpec field.
// Keys not in this list land in Extra on unmarshal.
var knownSpecKeys = []string{
	"schema_version", "title", "genre", "mechanics", "entities",
	"required_assets", "screens", "controls", "progression",
	"core_loop", "performance_hints", "art_style", "platform", "scope",
	"dimension", "orientation", "online", "assets_dir",
}

// UnmarshalJSON decodes the typed fields and collects unknown keys into
// the Extra bag.
func (s *GameSpec) UnmarshalJSON(data []byte) error {
	type plain GameSpec
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownSpecKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		p.Extra = raw
	}
	*s = GameSpec(p)
	return nil
}

// MarshalJSON emits the typed fields plus any preserved unknown keys.
// Output keys are sorted by encoding/json, so serialization is stable.
func (s GameSpec) MarshalJSON() ([]byte, error) {
	type plain GameSpec
	data, err := json.Marshal(plain(s))
	if err != nil {
		return nil, err
	}
	if len(s.Extra) == 0 {
		return data, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range s.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// Clone returns a deep copy so callers can layer changes without touching
// the original spec.
func (s *GameSpec) Clone() *GameSpec {
	out := *s
	out.Mechanics = append([]string(nil), s.Mechanics...)
	out.RequiredAssets = append([]string(nil), s.RequiredAssets...)
	out.Screens = append([]string(nil), s.Screens...)
	out.PerformanceHints = append([]string(nil), s.PerformanceHints...)
	if s.Entities != nil {
		out.Entities = make([]Entity, len(s.Entities))
		for i, e := range s.Entities {
			ec := e
			if e.Attributes != nil {
				ec.Attributes = make(map[string]any, len(e.Attributes))
				for k, v := range e.Attributes {
					ec.Attributes[k] = v
				}
			}
			out.Entities[i] = ec
		}
	}
	if s.Controls != nil {
		out.Controls = make(Controls, len(s.Controls))
		for k, v := range s.Controls {
			out.Controls[k] = append([]string(nil), v...)
		}
	}
	if s.Progression != nil {
		out.Progression = make(map[string]any, len(s.Progression))
		for k, v := range s.Progression {
			out.Progression[k] = v
		}
	}
	if s.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = v
		}
	}
	return &out
}

// DesignDoc is the optional enrichment payload for the idle RPG genre.
// Produced by the external design-content generator (or the seeded template
// fallback), validated, then merged as static data into the output tree.
// It influences content only, never code structure.
type DesignDoc struct {
	SchemaVersion string `json:"schema_version"`

	World          string           `json:"world"`
	Premise        string           `json:"premise"`
	MainStoryBeats []string         `json:"main_story_beats"`
	Quests         []map[string]any `json:"quests"`
	Characters     []map[string]any `json:"characters"`
	Factions       []map[string]any `json:"factions"`
	Locations      []map[string]any `json:"locations"`
	Items          []map[string]any `json:"items"`
	Enemies        []map[string]any `json:"enemies"`

	DialogueSamples []map[string]any `json:"dialogue_samples,omitempty"`
	UpgradeTree     map[string]any   `json:"upgrade_tree,omitempty"`
	IdleLoops       []map[string]any `json:"idle_loops,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var knownDocKeys = []string{
	"schema_version", "world", "premise", "main_story_beats", "quests",
	"characters", "factions", "locations", "items", "enemies",
	"dialogue_samples", "upgrade_tree", "idle_loops",
}

// UnmarshalJSON decodes the typed fields and collects unknown keys into
// the Extra bag.
func (d *DesignDoc) UnmarshalJSON(data []byte) error {
	type plain DesignDoc
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownDocKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		p.Extra = raw
	}
	*d = DesignDoc(p)
	return nil
}

// MarshalJSON emits the typed fields plus any preserved unknown keys.
func (d DesignDoc) MarshalJSON() ([]byte, error) {
	type plain DesignDoc
	data, err := json.Marshal(plain(d))
	if err != nil {
		return nil, err
	}
	if len(d.Extra) == 0 {
		return data, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range d.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}
