package enrich

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/gameforge/internal/gamespec"
)

// Markdown renders a design document as human-readable markdown. Map keys
// are emitted in sorted order so the rendering is deterministic.
func Markdown(doc *gamespec.DesignDoc) string {
	var b strings.Builder

	section := func(title string) {
		fmt.Fprintf(&b, "\n## %s\n\n", title)
	}
	subsection := func(title string) {
		fmt.Fprintf(&b, "\n### %s\n\n", title)
	}

	b.WriteString("# Idle RPG Design Document\n")

	section("World")
	b.WriteString(doc.World + "\n")

	section("Premise")
	b.WriteString(doc.Premise + "\n")

	section("Main Story Beats")
	for i, beat := range doc.MainStoryBeats {
		fmt.Fprintf(&b, "%d. %s\n", i+1, beat)
	}

	section("Quests")
	for _, q := range doc.Quests {
		subsection(str(q, "title", "Untitled Quest"))
		fmt.Fprintf(&b, "**Summary:** %s\n", str(q, "summary", ""))
		fmt.Fprintf(&b, "\n**Giver:** %s\n", str(q, "giver", ""))
		if lr, ok := q["level_range"].([]any); ok && len(lr) == 2 {
			fmt.Fprintf(&b, "\n**Level Range:** %v-%v\n", lr[0], lr[1])
		}
		writeList(&b, "Objectives", q["objectives"])
		writeList(&b, "Rewards", q["rewards"])
	}

	section("Characters")
	for _, c := range doc.Characters {
		subsection(str(c, "name", "Unknown"))
		fmt.Fprintf(&b, "**Role:** %s\n", str(c, "role", ""))
		fmt.Fprintf(&b, "\n**Backstory:** %s\n", str(c, "backstory", ""))
		writeList(&b, "Motivations", c["motivations"])
		if rels, ok := c["relationships"].(map[string]any); ok && len(rels) > 0 {
			b.WriteString("\n**Relationships:**\n")
			for _, name := range sortedKeys(rels) {
				fmt.Fprintf(&b, "- *%s*: %v\n", name, rels[name])
			}
		}
	}

	section("Factions")
	for _, f := range doc.Factions {
		subsection(str(f, "name", "Unknown"))
		fmt.Fprintf(&b, "**Alignment:** %s\n", str(f, "alignment", ""))
		fmt.Fprintf(&b, "\n%s\n", str(f, "description", ""))
		writeList(&b, "Goals", f["goals"])
	}

	section("Locations")
	for _, l := range doc.Locations {
		subsection(str(l, "name", "Unknown"))
		fmt.Fprintf(&b, "**Type:** %s\n", str(l, "type", ""))
		fmt.Fprintf(&b, "\n%s\n", str(l, "description", ""))
		writeList(&b, "Notable Features", l["notable_features"])
	}

	section("Items")
	for _, it := range doc.Items {
		subsection(str(it, "name", "Unknown"))
		fmt.Fprintf(&b, "**Type:** %s | **Rarity:** %s\n", str(it, "type", ""), str(it, "rarity", ""))
		fmt.Fprintf(&b, "\n%s\n", str(it, "description", ""))
		if stats, ok := it["stats"].(map[string]any); ok && len(stats) > 0 {
			parts := make([]string, 0, len(stats))
			for _, k := range sortedKeys(stats) {
				parts = append(parts, fmt.Sprintf("%s: %v", k, stats[k]))
			}
			fmt.Fprintf(&b, "\n**Stats:** %s\n", strings.Join(parts, ", "))
		}
	}

	section("Enemies")
	for _, e := range doc.Enemies {
		subsection(str(e, "name", "Unknown"))
		fmt.Fprintf(&b, "**Type:** %s\n", str(e, "type", ""))
		fmt.Fprintf(&b, "\n%s\n", str(e, "description", ""))
		writeList(&b, "Abilities", e["abilities"])
		writeList(&b, "Loot", e["loot"])
	}

	if len(doc.DialogueSamples) > 0 {
		section("Dialogue Samples")
		for _, s := range doc.DialogueSamples {
			subsection(str(s, "character", "Unknown"))
			if lines, ok := s["lines"].([]any); ok {
				for _, line := range lines {
					fmt.Fprintf(&b, "> %q\n", fmt.Sprint(line))
				}
			}
		}
	}

	if len(doc.UpgradeTree) > 0 {
		section("Upgrade Tree")
		for _, category := range sortedKeys(doc.UpgradeTree) {
			subsection(category)
			upgrades, _ := doc.UpgradeTree[category].([]any)
			for _, u := range upgrades {
				if m, ok := u.(map[string]any); ok {
					fmt.Fprintf(&b, "- **%s**: %s\n", str(m, "name", ""), str(m, "description", ""))
				} else {
					fmt.Fprintf(&b, "- %v\n", u)
				}
			}
		}
	}

	if len(doc.IdleLoops) > 0 {
		section("Idle Loops")
		for _, loop := range doc.IdleLoops {
			subsection(str(loop, "name", "Unknown"))
			fmt.Fprintf(&b, "**Resource:** %s | **Tick Rate:** %vs\n",
				str(loop, "resource", ""), loop["tick_rate_seconds"])
			fmt.Fprintf(&b, "\n%s\n", str(loop, "description", ""))
		}
	}

	return b.String()
}

func str(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func writeList(b *strings.Builder, title string, v any) {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n**%s:**\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %v\n", it)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
