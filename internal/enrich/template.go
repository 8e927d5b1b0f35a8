package enrich

import (
	"hash/fnv"
	"math/rand"

	"github.com/roach88/gameforge/internal/gamespec"
)

// TemplateDoc builds a deterministic design document from the built-in
// template pools. It needs no network and is the offline fallback for the
// model path. A nil seed derives one from the prompt text, so the same
// prompt always yields the same document.
func TemplateDoc(prompt string, seed *int64) *gamespec.DesignDoc {
	var s int64
	if seed != nil {
		s = *seed
	} else {
		h := fnv.New64a()
		h.Write([]byte(prompt))
		s = int64(h.Sum64() & 0xFFFFFFFF)
	}
	rng := rand.New(rand.NewSource(s))

	return &gamespec.DesignDoc{
		SchemaVersion:  gamespec.DesignDocSchemaVersion,
		World:          templateWorlds[rng.Intn(len(templateWorlds))],
		Premise:        templatePremises[rng.Intn(len(templatePremises))],
		MainStoryBeats: sampleStrings(rng, templateStoryBeats, 6),
		Quests:         sampleMaps(rng, templateQuests, 3),
		Characters:     cloneMaps(templateCharacters),
		Factions:       cloneMaps(templateFactions),
		Locations:      sampleMaps(rng, templateLocations, 3),
		Items:          sampleMaps(rng, templateItems, 4),
		Enemies:        sampleMaps(rng, templateEnemies, 3),
		UpgradeTree:    cloneMap(templateUpgradeTree),
		IdleLoops:      cloneMaps(templateIdleLoops),
	}
}

// sampleIndices returns k distinct indices from [0, n) in selection order.
func sampleIndices(rng *rand.Rand, n, k int) []int {
	if k > n {
		k = n
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	out := make([]int, 0, k)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(n-i)
		pool[i], pool[j] = pool[j], pool[i]
		out = append(out, pool[i])
	}
	return out
}

func sampleStrings(rng *rand.Rand, pool []string, k int) []string {
	idx := sampleIndices(rng, len(pool), k)
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}

func sampleMaps(rng *rand.Rand, pool []map[string]any, k int) []map[string]any {
	idx := sampleIndices(rng, len(pool), k)
	out := make([]map[string]any, len(idx))
	for i, j := range idx {
		out[i] = cloneMap(pool[j])
	}
	return out
}

func cloneMaps(pool []map[string]any) []map[string]any {
	out := make([]map[string]any, len(pool))
	for i, m := range pool {
		out[i] = cloneMap(m)
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var templateWorlds = []string{
	"A cursed kingdom frozen in eternal twilight where the undead roam freely.",
	"A sprawling space colony fighting for survival on a hostile alien world.",
	"An ancient empire crumbling under the weight of dark sorcery and betrayal.",
	"A steampunk city powered by stolen magic where guilds wage shadow wars.",
	"A post-apocalyptic wasteland where survivors rebuild civilisation shard by shard.",
}

var templatePremises = []string{
	"A lone hero must rally allies and grow powerful enough to defeat the dark overlord.",
	"Scattered survivors unite under a visionary leader to reclaim their lost homeland.",
	"An unlikely champion rises from obscurity to challenge an immortal tyrant.",
	"Ancient prophecy drives a reluctant hero toward a destiny they cannot escape.",
	"An alliance of outcasts builds an empire from nothing, overcoming impossible odds.",
}

var templateStoryBeats = []string{
	"The hero awakens to a world in chaos and takes their first steps.",
	"A mentor figure reveals the true scope of the threat.",
	"First major victory: the hero defeats a champion of the enemy.",
	"A devastating betrayal forces the hero to rethink their alliances.",
	"The hero discovers a hidden power that changes everything.",
	"Mid-game crisis: all seems lost as the enemy strikes at the heart.",
	"The tide turns as old enemies become unlikely allies.",
	"Final preparations: the hero gathers strength for the ultimate battle.",
	"The climactic confrontation with the main antagonist.",
	"Epilogue: a fragile peace settles over the land.",
}

var templateQuests = []map[string]any{
	{
		"title":       "First Blood",
		"summary":     "Defeat your first enemies to prove your worth.",
		"giver":       "Village Elder",
		"level_range": []any{1, 3},
		"objectives":  []any{"Defeat 5 enemies", "Return alive"},
		"rewards":     []any{"50 gold", "5 XP"},
	},
	{
		"title":       "The Gathering Storm",
		"summary":     "Collect resources before the enemy reinforcements arrive.",
		"giver":       "Scout Captain",
		"level_range": []any{3, 6},
		"objectives":  []any{"Collect 100 iron", "Defeat 10 scouts"},
		"rewards":     []any{"150 gold", "Iron Shield"},
	},
	{
		"title":       "Trial by Fire",
		"summary":     "Survive a deadly gauntlet to earn the guild's trust.",
		"giver":       "Guild Master",
		"level_range": []any{5, 10},
		"objectives":  []any{"Survive 10 waves", "Don't use potions"},
		"rewards":     []any{"300 gold", "Guild Badge", "30 XP"},
	},
	{
		"title":       "Into the Depths",
		"summary":     "Explore the forbidden zone and return with ancient secrets.",
		"giver":       "Archivist Mira",
		"level_range": []any{8, 15},
		"objectives":  []any{"Reach the inner sanctum", "Defeat the guardian"},
		"rewards":     []any{"500 gold", "Ancient Tome"},
	},
	{
		"title":       "The Final Stand",
		"summary":     "Lead the last army against the darkness itself.",
		"giver":       "High Commander",
		"level_range": []any{15, 20},
		"objectives":  []any{"Destroy the dark beacon", "Protect the fortress"},
		"rewards":     []any{"1000 gold", "Legendary Sword", "100 XP"},
	},
}

var templateCharacters = []map[string]any{
	{
		"name":          "Aela the Brave",
		"role":          "Hero",
		"backstory":     "A former soldier who lost everything to the darkness.",
		"motivations":   []any{"Protect the innocent", "Reclaim lost honour"},
		"relationships": map[string]any{"Elder Mira": "mentor", "Raven": "rival"},
	},
	{
		"name":          "Elder Mira",
		"role":          "Mentor NPC",
		"backstory":     "Ancient keeper of knowledge who foresaw the coming darkness.",
		"motivations":   []any{"Guide the chosen hero", "Preserve ancient wisdom"},
		"relationships": map[string]any{"Aela the Brave": "student"},
	},
	{
		"name":          "Raven",
		"role":          "Antagonist",
		"backstory":     "Once a hero, now consumed by power and bitterness.",
		"motivations":   []any{"Rule through fear", "Prove superiority"},
		"relationships": map[string]any{"Aela the Brave": "nemesis"},
	},
}

var templateFactions = []map[string]any{
	{
		"name":        "The Silver Order",
		"description": "A knightly order sworn to protect the realm.",
		"alignment":   "lawful good",
		"goals":       []any{"Defeat the darkness", "Restore the old kingdom"},
	},
	{
		"name":        "The Shadow Syndicate",
		"description": "A ruthless criminal network thriving in the chaos.",
		"alignment":   "neutral evil",
		"goals":       []any{"Control the black market", "Undermine the heroes"},
	},
	{
		"name":        "The Free Cities Alliance",
		"description": "Independent city-states united by mutual self-interest.",
		"alignment":   "true neutral",
		"goals":       []any{"Maintain independence", "Profit from the conflict"},
	},
}

var templateLocations = []map[string]any{
	{
		"name":             "Ironhold Citadel",
		"type":             "fortress",
		"description":      "The last bastion of civilisation against the tide of darkness.",
		"notable_features": []any{"Great Hall", "Armoury", "Training Grounds"},
	},
	{
		"name":             "The Whispering Wood",
		"type":             "forest",
		"description":      "An ancient forest where spirits dwell and dark things lurk.",
		"notable_features": []any{"Hidden shrine", "Bandit camp", "Spirit grove"},
	},
	{
		"name":             "Ashfall Crater",
		"type":             "dungeon",
		"description":      "A vast crater left by a catastrophic ancient explosion.",
		"notable_features": []any{"Lava pools", "Treasure vault", "Boss lair"},
	},
	{
		"name":             "Market Haven",
		"type":             "town",
		"description":      "A bustling trading hub where merchants and adventurers meet.",
		"notable_features": []any{"Blacksmith", "Alchemist shop", "Tavern"},
	},
}

var templateItems = []map[string]any{
	{
		"name":        "Iron Sword",
		"type":        "weapon",
		"rarity":      "common",
		"description": "A reliable blade for any aspiring hero.",
		"stats":       map[string]any{"attack": 5},
	},
	{
		"name":        "Leather Armour",
		"type":        "armour",
		"rarity":      "common",
		"description": "Basic protection against light attacks.",
		"stats":       map[string]any{"defence": 3},
	},
	{
		"name":        "Silver Blade",
		"type":        "weapon",
		"rarity":      "uncommon",
		"description": "Effective against undead and dark creatures.",
		"stats":       map[string]any{"attack": 15, "dark_bonus": 10},
	},
	{
		"name":        "Amulet of Might",
		"type":        "accessory",
		"rarity":      "rare",
		"description": "Channels ancient power into the wearer.",
		"stats":       map[string]any{"attack": 10, "hp_bonus": 20},
	},
	{
		"name":        "Legendary Heartstone",
		"type":        "accessory",
		"rarity":      "legendary",
		"description": "A gem said to be the crystallised heart of a fallen god.",
		"stats":       map[string]any{"attack": 30, "defence": 20, "hp_bonus": 50},
	},
}

var templateEnemies = []map[string]any{
	{
		"name":        "Shadow Wraith",
		"type":        "undead",
		"description": "A wisp of pure darkness that drains the will to fight.",
		"abilities":   []any{"Life Drain", "Phase Shift"},
		"loot":        []any{"Shadow Essence", "10 gold"},
	},
	{
		"name":        "Iron Golem",
		"type":        "construct",
		"description": "A hulking automaton built to guard ancient treasure.",
		"abilities":   []any{"Slam", "Iron Skin"},
		"loot":        []any{"Iron Ingot", "50 gold"},
	},
	{
		"name":        "Forest Troll",
		"type":        "beast",
		"description": "A regenerating brute that haunts the deep woods.",
		"abilities":   []any{"Regeneration", "Boulder Throw"},
		"loot":        []any{"Troll Hide", "25 gold"},
	},
	{
		"name":        "Dark Sorcerer",
		"type":        "humanoid",
		"description": "A mage who sold their soul for forbidden power.",
		"abilities":   []any{"Fireball", "Curse", "Teleport"},
		"loot":        []any{"Spell Scroll", "80 gold", "Dark Crystal"},
	},
}

var templateUpgradeTree = map[string]any{
	"Combat": []any{
		map[string]any{"name": "Sharpened Blade", "description": "Increase attack damage by 20%.", "cost": 100},
		map[string]any{"name": "Battle Frenzy", "description": "Auto-attack speed increased by 15%.", "cost": 250},
		map[string]any{"name": "Crushing Blow", "description": "Chance to deal double damage.", "cost": 500},
	},
	"Defence": []any{
		map[string]any{"name": "Reinforced Armour", "description": "Reduce incoming damage by 10%.", "cost": 100},
		map[string]any{"name": "Iron Will", "description": "Increase max HP by 25%.", "cost": 250},
		map[string]any{"name": "Last Stand", "description": "Survive a killing blow once per battle.", "cost": 500},
	},
	"Economy": []any{
		map[string]any{"name": "Gold Rush", "description": "Enemies drop 25% more gold.", "cost": 150},
		map[string]any{"name": "Merchant's Eye", "description": "Shop items cost 15% less.", "cost": 300},
		map[string]any{"name": "Treasure Hunter", "description": "Chance to find bonus loot on kills.", "cost": 600},
	},
}

var templateIdleLoops = []map[string]any{
	{
		"name":              "Gold Mine",
		"description":       "Passive gold generation from your mines.",
		"resource":          "gold",
		"tick_rate_seconds": 5,
	},
	{
		"name":              "Experience Training",
		"description":       "Heroes train automatically, gaining XP over time.",
		"resource":          "experience",
		"tick_rate_seconds": 10,
	},
	{
		"name":              "Auto Battle",
		"description":       "Your hero fights enemies automatically.",
		"resource":          "combat_progress",
		"tick_rate_seconds": 1,
	},
}
