package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/roach88/gameforge/internal/gamespec"
)

const designSystemPrompt = `You are an expert Idle RPG game designer. Given a game concept prompt, produce a comprehensive design document as a strict JSON object with EXACTLY these keys:

  world          (string) - setting/world description
  premise        (string) - core narrative premise
  main_story_beats (list of strings) - 5-8 major story milestones
  quests         (list of objects) - each with: title, summary, objectives (list), rewards (list), giver, level_range (list of 2 ints)
  characters     (list of objects) - each with: name, role, backstory, motivations (list), relationships (object mapping name -> relationship description)
  factions       (list of objects) - each with: name, description, alignment, goals (list)
  locations      (list of objects) - each with: name, description, type, notable_features (list)
  items          (list of objects) - each with: name, type, rarity, description, stats (object)
  enemies        (list of objects) - each with: name, type, description, abilities (list), loot (list)

Optional additional keys you MAY include:
  dialogue_samples (list of objects with: character, lines (list))
  upgrade_tree     (object with category keys mapping to lists of upgrade objects)
  idle_loops       (list of objects with: name, description, resource, tick_rate_seconds)

Output ONLY the JSON object. No markdown, no code fences, no extra text.`

// DesignGenerator produces validated design documents. The model path is
// best-effort; any failure falls back to the deterministic seeded template
// so a design-doc request never fails a run.
type DesignGenerator struct {
	// Completer is the model backend; nil forces the template path.
	Completer gamespec.Completer

	// Validate rejects malformed documents before they reach plugins.
	Validate func(*gamespec.DesignDoc) gamespec.FieldErrors

	Logger *slog.Logger
}

// Generate returns a design document for the prompt. seed pins the
// template fallback; a nil seed derives one from the prompt so identical
// prompts still produce identical documents.
func (g *DesignGenerator) Generate(ctx context.Context, prompt string, seed *int64) (*gamespec.DesignDoc, error) {
	if g.Completer != nil {
		doc, err := g.fromModel(ctx, prompt)
		if err == nil {
			return doc, nil
		}
		if g.Logger != nil {
			g.Logger.Warn("design document generation via model failed, using template",
				"error", err)
		}
	}
	return g.fromTemplate(prompt, seed)
}

func (g *DesignGenerator) fromModel(ctx context.Context, prompt string) (*gamespec.DesignDoc, error) {
	raw, err := g.Completer.Complete(ctx, designSystemPrompt,
		fmt.Sprintf("Game concept: %s\n\nJSON:", prompt))
	if err != nil {
		return nil, err
	}

	var doc gamespec.DesignDoc
	if err := json.Unmarshal([]byte(gamespec.StripCodeFences(raw)), &doc); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}
	doc.SchemaVersion = gamespec.DesignDocSchemaVersion

	if g.Validate != nil {
		if errs := g.Validate(&doc); len(errs) > 0 {
			return nil, fmt.Errorf("model document failed validation: %w", errs)
		}
	}
	return &doc, nil
}

func (g *DesignGenerator) fromTemplate(prompt string, seed *int64) (*gamespec.DesignDoc, error) {
	doc := TemplateDoc(prompt, seed)
	if g.Validate != nil {
		if errs := g.Validate(doc); len(errs) > 0 {
			// The templates are static and schema-conformant; failing here
			// is a bug, not an input problem.
			return nil, fmt.Errorf("template document failed validation: %w", errs)
		}
	}
	return doc, nil
}
