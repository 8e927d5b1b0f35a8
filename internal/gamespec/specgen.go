package gamespec

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Completer is the text-completion surface the generator needs for
// optional enrichment. A nil Completer means heuristic-only generation.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// GenreInfo is the genre metadata the generator consumes: identifier,
// inference keywords, and preferred orientation. The slice order is the
// tie-break order for keyword scoring.
type GenreInfo struct {
	ID          string
	Keywords    []string
	Orientation string
}

// Generator turns a free-text prompt plus resolved constraints into a
// validated GameSpec. Enrichment is best-effort: any completion failure,
// parse failure, or schema violation discards the enriched spec and keeps
// the deterministic heuristic one.
type Generator struct {
	Genres    []GenreInfo
	Completer Completer
	Validate  func(*GameSpec) FieldErrors
	Logger    *slog.Logger
}

var quotedTitle = regexp.MustCompile(`"([^"]+)"`)

// Generate builds the spec. The returned spec always passes Validate;
// a validation failure here is an internal bug, not a user error.
func (g *Generator) Generate(ctx context.Context, prompt string, c Constraints) (*GameSpec, error) {
	info, err := g.pickGenre(prompt, c)
	if err != nil {
		return nil, err
	}

	spec := g.heuristicSpec(prompt, info, c)

	if g.Completer != nil {
		if enriched := g.enrich(ctx, prompt, spec, info, c); enriched != nil {
			spec = enriched
		}
	}

	if g.Validate != nil {
		if errs := g.Validate(spec); len(errs) > 0 {
			return nil, fmt.Errorf("generated spec failed validation: %w", errs)
		}
	}
	return spec, nil
}

// pickGenre honours an explicit constraint override, otherwise infers the
// genre from prompt keywords.
func (g *Generator) pickGenre(prompt string, c Constraints) (GenreInfo, error) {
	if len(g.Genres) == 0 {
		return GenreInfo{}, fmt.Errorf("no genres registered")
	}
	if c.Genre != "" {
		for _, info := range g.Genres {
			if info.ID == c.Genre {
				return info, nil
			}
		}
		return GenreInfo{}, FieldErrors{{
			Field:   "genre",
			Message: fmt.Sprintf("unknown genre %q, valid genres: %s", c.Genre, g.genreIDs()),
			Code:    ErrUnknownGenre,
		}}
	}
	return g.inferGenre(prompt), nil
}

func (g *Generator) genreIDs() string {
	ids := make([]string, len(g.Genres))
	for i, info := range g.Genres {
		ids[i] = info.ID
	}
	return strings.Join(ids, ", ")
}

// inferGenre scores each genre by counting keyword hits in the prompt.
// Ties keep the earlier genre; a zero score across the board falls back
// to the first registered genre.
func (g *Generator) inferGenre(prompt string) GenreInfo {
	lower := strings.ToLower(prompt)
	best := g.Genres[0]
	bestScore := 0
	for _, info := range g.Genres {
		score := 0
		for _, kw := range info.Keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best = info
			bestScore = score
		}
	}
	if bestScore == 0 && g.Logger != nil {
		g.Logger.Info("no genre keywords found in prompt, using default",
			"genre", best.ID)
	}
	return best
}

// extractTitle returns the first double-quoted phrase, or the first four
// words of the prompt title-cased.
func extractTitle(prompt string) string {
	if m := quotedTitle.FindStringSubmatch(prompt); m != nil {
		return m[1]
	}
	words := strings.Fields(prompt)
	if len(words) == 0 {
		return "My Game"
	}
	if len(words) > 4 {
		words = words[:4]
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}

func (g *Generator) heuristicSpec(prompt string, info GenreInfo, c Constraints) *GameSpec {
	spec := &GameSpec{
		SchemaVersion:    GameSpecSchemaVersion,
		Title:            extractTitle(prompt),
		Genre:            info.ID,
		CoreLoop:         defaultCoreLoop(info.ID),
		Mechanics:        defaultMechanics(info.ID),
		Entities:         defaultEntities(info.ID),
		RequiredAssets:   defaultAssets(info.ID),
		Screens:          []string{"main_menu", "game", "game_over"},
		Controls:         defaultControls(info.ID),
		Progression:      defaultProgression(info.ID),
		PerformanceHints: defaultPerformanceHints(info.ID),
		Orientation:      info.Orientation,
	}
	applyConstraints(spec, c)
	return spec
}

// applyConstraints stamps the resolved constraints onto the spec.
// Constraints always win, including over enrichment output.
func applyConstraints(spec *GameSpec, c Constraints) {
	spec.Dimension = c.Dimension
	spec.ArtStyle = c.ArtStyle
	spec.Platform = c.Platform
	spec.Scope = c.Scope
	spec.Online = c.Online
}

const enrichSystemPrompt = "You are a game design assistant. Given a game description, produce a JSON object " +
	"with EXACTLY these keys: title, genre, mechanics (list), required_assets (list), " +
	"screens (list), controls (object), progression (object). " +
	"Output only valid JSON, no extra text."

// enrich asks the completer for a richer spec and merges it over the
// heuristic base. Returns nil when enrichment is unusable; the caller
// keeps the heuristic spec and the run continues.
func (g *Generator) enrich(ctx context.Context, prompt string, base *GameSpec, info GenreInfo, c Constraints) *GameSpec {
	system := enrichSystemPrompt +
		fmt.Sprintf(" genre must be one of: %s.", g.genreIDs())
	raw, err := g.Completer.Complete(ctx, system, fmt.Sprintf("Game description: %s\n\nJSON:", prompt))
	if err != nil {
		g.logDiscard("completion failed", err)
		return nil
	}

	var enriched GameSpec
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &enriched); err != nil {
		g.logDiscard("response is not valid JSON", err)
		return nil
	}

	merged := base.Clone()
	mergeEnriched(merged, &enriched)

	// Unknown genres from the model are coerced back to the inferred one.
	if _, ok := g.lookupGenre(merged.Genre); !ok {
		merged.Genre = info.ID
	}
	applyConstraints(merged, c)
	merged.SchemaVersion = GameSpecSchemaVersion

	if g.Validate != nil {
		if errs := g.Validate(merged); len(errs) > 0 {
			g.logDiscard("enriched spec failed validation", errs)
			return nil
		}
	}
	return merged
}

func (g *Generator) lookupGenre(id string) (GenreInfo, bool) {
	for _, info := range g.Genres {
		if info.ID == id {
			return info, true
		}
	}
	return GenreInfo{}, false
}

func (g *Generator) logDiscard(reason string, err error) {
	if g.Logger != nil {
		g.Logger.Warn("discarding enrichment, keeping heuristic spec",
			"reason", reason, "error", err)
	}
}

// mergeEnriched overlays the non-empty enrichment fields onto dst.
func mergeEnriched(dst, src *GameSpec) {
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.Genre != "" {
		dst.Genre = src.Genre
	}
	if len(src.Mechanics) > 0 {
		dst.Mechanics = src.Mechanics
	}
	if len(src.Entities) > 0 {
		dst.Entities = src.Entities
	}
	if len(src.RequiredAssets) > 0 {
		dst.RequiredAssets = src.RequiredAssets
	}
	if len(src.Screens) > 0 {
		dst.Screens = src.Screens
	}
	if len(src.Controls) > 0 {
		dst.Controls = src.Controls
	}
	if len(src.Progression) > 0 {
		dst.Progression = src.Progression
	}
	if src.CoreLoop != "" {
		dst.CoreLoop = src.CoreLoop
	}
	if len(src.PerformanceHints) > 0 {
		dst.PerformanceHints = src.PerformanceHints
	}
	if src.Orientation != "" {
		dst.Orientation = src.Orientation
	}
}

// StripCodeFences removes a leading and trailing markdown code fence so
// model output like ```json ... ``` parses as plain JSON.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func defaultMechanics(genre string) []string {
	switch genre {
	case "top_down_shooter":
		return []string{"move", "shoot", "dodge", "collect_powerups"}
	case "idle_rpg":
		return []string{"auto_battle", "level_up", "upgrade_skills", "collect_resources"}
	}
	return []string{"move"}
}

func defaultCoreLoop(genre string) string {
	switch genre {
	case "top_down_shooter":
		return "Move ship -> shoot enemies -> survive waves -> earn score"
	case "idle_rpg":
		return "Idle auto-battle -> earn gold -> upgrade hero -> face harder waves"
	}
	return "Play -> earn rewards -> progress"
}

func defaultEntities(genre string) []Entity {
	switch genre {
	case "top_down_shooter":
		return []Entity{
			{Name: "Player", Role: "player", Attributes: map[string]any{"speed": 200, "hp": 1}},
			{Name: "Enemy", Role: "enemy", Attributes: map[string]any{"speed": 100, "hp": 1}},
			{Name: "Bullet", Role: "projectile", Attributes: map[string]any{"speed": 400}},
		}
	case "idle_rpg":
		return []Entity{
			{Name: "Hero", Role: "player", Attributes: map[string]any{"attack": 10, "level": 1}},
			{Name: "Enemy", Role: "enemy", Attributes: map[string]any{"hp": 50}},
			{Name: "Gold", Role: "pickup", Attributes: map[string]any{}},
		}
	}
	return []Entity{{Name: "Player", Role: "player", Attributes: map[string]any{}}}
}

func defaultAssets(genre string) []string {
	switch genre {
	case "top_down_shooter":
		return []string{"player", "enemy", "bullet", "background", "explosion"}
	case "idle_rpg":
		return []string{"hero", "enemy", "background", "icon", "skill_icon"}
	}
	return []string{"player", "background"}
}

func defaultControls(genre string) Controls {
	switch genre {
	case "top_down_shooter":
		return Controls{
			"keyboard": {"WASD", "arrows", "space"},
			"mobile":   {"joystick", "fire_button"},
		}
	case "idle_rpg":
		return Controls{
			"keyboard": {"click"},
			"mobile":   {"tap"},
		}
	}
	return Controls{"keyboard": {"arrows"}, "mobile": {"tap"}}
}

func defaultProgression(genre string) map[string]any {
	switch genre {
	case "top_down_shooter":
		return map[string]any{"scoring": "points", "levels": 5, "difficulty_ramp": "wave"}
	case "idle_rpg":
		return map[string]any{"scoring": "experience", "levels": 20, "prestige": false}
	}
	return map[string]any{"scoring": "points", "levels": 5}
}

func defaultPerformanceHints(genre string) []string {
	base := []string{
		"Preload all sprites in onLoad() using await loadSprite()",
		"Avoid Vector2/Paint allocations inside update(double dt)",
		"Use cached TextPaint objects for HUD text",
		"Prefer RectangleHitbox for collision shapes",
	}
	switch genre {
	case "top_down_shooter":
		return append(base,
			"Use BulletPool to avoid per-shot allocations",
			"Consider broad-phase collision pruning for large enemy counts",
		)
	case "idle_rpg":
		return append(base,
			"Batch UI updates; only redraw HUD when values change",
		)
	}
	return base
}
