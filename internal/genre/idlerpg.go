package genre

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/gameforge/internal/gamespec"
	"github.com/roach88/gameforge/internal/tree"
)

// IdleRPG returns the idle RPG plugin. Besides the Flame game loop it
// emits Flutter screens (quest log, character roster, shop) backed by
// JSON data files. When a design document is available its quests,
// characters, items and locations populate the data files; otherwise
// built-in defaults keep the screens functional.
func IdleRPG() Plugin {
	return Plugin{
		ID: "idle_rpg",
		Keywords: []string{
			"idle", "rpg", "clicker", "upgrade", "hero", "quest", "adventure",
			"level up", "experience", "skill", "passive", "resource",
		},
		Orientation: "portrait",
		Generate:    generateIdleRPG,
	}
}

func generateIdleRPG(spec *gamespec.GameSpec, doc *gamespec.DesignDoc) (Output, error) {
	name := ClassName(spec.Title)

	code := tree.New()
	files := map[string]string{
		EntryFile:                        idleGameDart(name),
		AppFile:                          idleAppDart(name, spec.Title),
		"hero.dart":                      idleHeroDart(name),
		"enemy.dart":                     idleEnemyDart(name),
		"idle_manager.dart":              idleManagerDart(name),
		"hud.dart":                       idleHudDart(name),
		"upgrade_overlay.dart":           idleUpgradeOverlayDart(name),
		"screens/quest_log_screen.dart":  idleQuestLogScreenDart(),
		"screens/characters_screen.dart": idleCharactersScreenDart(),
		"screens/shop_screen.dart":       idleShopScreenDart(),
	}
	for path, content := range files {
		if err := code.AddString(path, content); err != nil {
			return Output{}, err
		}
	}

	data := tree.New()
	if err := addDocJSON(data, "quests.json", docQuests(doc), defaultQuests); err != nil {
		return Output{}, err
	}
	if err := addDocJSON(data, "characters.json", docCharacters(doc), defaultCharacters); err != nil {
		return Output{}, err
	}
	if doc == nil || len(doc.Items) > 0 {
		if err := addDocJSON(data, "items.json", docItems(doc), defaultItems); err != nil {
			return Output{}, err
		}
	}
	if doc == nil || len(doc.Locations) > 0 {
		if err := addDocJSON(data, "locations.json", docLocations(doc), defaultLocations); err != nil {
			return Output{}, err
		}
	}

	return Output{Code: code, Data: data}, nil
}

func docQuests(doc *gamespec.DesignDoc) []map[string]any {
	if doc == nil {
		return nil
	}
	return doc.Quests
}

func docCharacters(doc *gamespec.DesignDoc) []map[string]any {
	if doc == nil {
		return nil
	}
	return doc.Characters
}

func docItems(doc *gamespec.DesignDoc) []map[string]any {
	if doc == nil {
		return nil
	}
	return doc.Items
}

func docLocations(doc *gamespec.DesignDoc) []map[string]any {
	if doc == nil {
		return nil
	}
	return doc.Locations
}

// addDocJSON writes entries as indented JSON under path, falling back to
// the defaults when the design document has nothing for this section.
func addDocJSON(data tree.FileTree, path string, entries, defaults []map[string]any) error {
	if len(entries) == 0 {
		entries = defaults
	}
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	return data.Add(path, append(raw, '\n'))
}

var defaultQuests = []map[string]any{
	{
		"title":       "First Steps",
		"summary":     "Begin your adventure by defeating your first enemies.",
		"giver":       "Village Elder",
		"level_range": []any{1, 3},
		"objectives":  []any{"Defeat 5 enemies", "Collect 50 gold"},
		"rewards":     []any{"50 gold", "10 XP"},
	},
	{
		"title":       "The Iron Trial",
		"summary":     "Prove your worth against stronger foes.",
		"giver":       "Guild Master",
		"level_range": []any{4, 8},
		"objectives":  []any{"Defeat 10 elite enemies", "Survive 5 waves"},
		"rewards":     []any{"200 gold", "50 XP", "Iron Amulet"},
	},
}

var defaultCharacters = []map[string]any{
	{
		"name":        "Aela",
		"role":        "Hero",
		"backstory":   "A determined warrior seeking redemption.",
		"motivations": []any{"Protect the innocent", "Grow stronger"},
	},
	{
		"name":        "Elder Mira",
		"role":        "NPC",
		"backstory":   "The wise keeper of ancient knowledge.",
		"motivations": []any{"Guide young heroes", "Preserve history"},
	},
}

var defaultItems = []map[string]any{
	{
		"name":        "Iron Sword",
		"type":        "weapon",
		"rarity":      "common",
		"description": "A reliable iron sword for beginners.",
		"stats":       map[string]any{"attack": 5},
	},
	{
		"name":        "Leather Armor",
		"type":        "armor",
		"rarity":      "common",
		"description": "Basic protection against attacks.",
		"stats":       map[string]any{"defense": 3},
	},
}

var defaultLocations = []map[string]any{
	{
		"name":             "Starter Village",
		"type":             "town",
		"description":      "A peaceful village to begin your adventure.",
		"notable_features": []any{"Blacksmith", "Inn", "Quest Board"},
	},
	{
		"name":             "Dark Forest",
		"type":             "dungeon",
		"description":      "A dangerous forest filled with lurking monsters.",
		"notable_features": []any{"Hidden Shrine", "Bandit Camp"},
	},
}

func idleGameDart(name string) string {
	return fmt.Sprintf(`import 'package:flame/events.dart';
import 'package:flame/game.dart';
import 'package:flame/components.dart';
import 'package:flutter/material.dart';
import 'hero.dart';
import 'enemy.dart';
import 'idle_manager.dart';
import 'hud.dart';
import 'upgrade_overlay.dart';

class %[1]sGame extends FlameGame with TapCallbacks {
  int gold = 0;
  int wave = 1;

  late final GameHero hero;
  late GameEnemy enemy;
  late final IdleManager idleManager;

  @override
  Future<void> onLoad() async {
    await super.onLoad();

    final bgSprite = await loadSprite('imported/background.png');
    add(SpriteComponent(sprite: bgSprite, size: size));

    hero = GameHero(game: this);
    await hero.onLoad();
    add(hero);

    enemy = GameEnemy(game: this, wave: wave);
    await enemy.onLoad();
    add(enemy);

    idleManager = IdleManager(game: this);
    add(idleManager);

    add(Hud(game: this));

    overlays.addEntry(
      'Upgrade',
      (context, game) => UpgradeOverlay(game: game as %[1]sGame),
    );
  }

  /// Tapping anywhere deals bonus damage on top of the auto-battle.
  @override
  void onTapDown(TapDownEvent event) {
    hero.attack(enemy, bonus: hero.tapDamage);
    checkEnemyDead();
  }

  void checkEnemyDead() {
    if (enemy.hp <= 0) {
      gold += wave * 10;
      wave++;
      _respawnEnemy();
      overlays.add('Upgrade');
    }
  }

  void _respawnEnemy() {
    enemy.removeFromParent();
    enemy = GameEnemy(game: this, wave: wave);
    enemy.onLoad().then((_) => add(enemy));
  }
}
`, name)
}

func idleAppDart(name, title string) string {
	return fmt.Sprintf(`import 'package:flame/game.dart';
import 'package:flutter/material.dart';
import 'game.dart';
import 'screens/quest_log_screen.dart';
import 'screens/characters_screen.dart';
import 'screens/shop_screen.dart';

class GameApp extends StatefulWidget {
  const GameApp({super.key});

  @override
  State<GameApp> createState() => _GameAppState();
}

class _GameAppState extends State<GameApp> {
  int _selectedIndex = 0;

  late final List<Widget> _screens;

  @override
  void initState() {
    super.initState();
    _screens = [
      GameWidget<%[1]sGame>(
        game: %[1]sGame(),
        loadingBuilder: (context) =>
            const Center(child: CircularProgressIndicator(color: Colors.amber)),
      ),
      const QuestLogScreen(),
      const CharactersScreen(),
      const ShopScreen(),
    ];
  }

  @override
  Widget build(BuildContext context) {
    return MaterialApp(
      title: '%[2]s',
      debugShowCheckedModeBanner: false,
      theme: ThemeData.dark(),
      home: Scaffold(
        backgroundColor: Colors.black,
        body: IndexedStack(
          index: _selectedIndex,
          children: _screens,
        ),
        bottomNavigationBar: BottomNavigationBar(
          backgroundColor: Colors.black,
          selectedItemColor: Colors.amber,
          unselectedItemColor: Colors.white38,
          currentIndex: _selectedIndex,
          onTap: (i) => setState(() => _selectedIndex = i),
          items: const [
            BottomNavigationBarItem(
                icon: Icon(Icons.videogame_asset), label: 'Battle'),
            BottomNavigationBarItem(
                icon: Icon(Icons.assignment), label: 'Quests'),
            BottomNavigationBarItem(
                icon: Icon(Icons.people), label: 'Heroes'),
            BottomNavigationBarItem(
                icon: Icon(Icons.store), label: 'Shop'),
          ],
        ),
      ),
    );
  }
}
`, name, escapeDartString(title))
}

func idleHeroDart(name string) string {
	return fmt.Sprintf(`import 'package:flame/components.dart';
import 'enemy.dart';
import 'game.dart';

class GameHero extends SpriteComponent {
  final %[1]sGame game;

  int level = 1;
  int attackPower = 10;
  int tapDamage = 5;

  GameHero({required this.game}) : super(size: Vector2(64, 64));

  @override
  Future<void> onLoad() async {
    sprite = await game.loadSprite('imported/hero.png');
    position = Vector2(game.size.x * 0.25 - 32, game.size.y * 0.5 - 32);
  }

  void attack(GameEnemy target, {int bonus = 0}) {
    target.takeDamage(attackPower + bonus);
  }

  void levelUp() {
    level++;
    attackPower = (attackPower * 1.5).round();
    tapDamage = (tapDamage * 1.3).round();
  }
}
`, name)
}

func idleEnemyDart(name string) string {
	return fmt.Sprintf(`import 'package:flame/components.dart';
import 'game.dart';

class GameEnemy extends SpriteComponent {
  final %[1]sGame game;
  final int wave;

  late int maxHp;
  late int hp;

  GameEnemy({required this.game, required this.wave})
      : super(size: Vector2(64, 64));

  @override
  Future<void> onLoad() async {
    sprite = await game.loadSprite('imported/enemy.png');
    position = Vector2(game.size.x * 0.65 - 32, game.size.y * 0.5 - 32);
    maxHp = 50 + wave * 20;
    hp = maxHp;
  }

  void takeDamage(int amount) {
    hp = (hp - amount).clamp(0, maxHp);
  }
}
`, name)
}

func idleManagerDart(name string) string {
	return fmt.Sprintf(`import 'package:flame/components.dart';
import 'game.dart';

/// Automatically attacks the current enemy on a fixed interval.
class IdleManager extends Component {
  final %[1]sGame game;

  static const double _attackInterval = 1.0;
  double _timer = 0;

  IdleManager({required this.game});

  @override
  void update(double dt) {
    _timer += dt;
    if (_timer >= _attackInterval) {
      _timer = 0;
      _autoAttack();
    }
  }

  void _autoAttack() {
    game.hero.attack(game.enemy);
    game.checkEnemyDead();
  }
}
`, name)
}

func idleHudDart(name string) string {
	return fmt.Sprintf(`import 'package:flame/components.dart';
import 'package:flutter/material.dart';
import 'game.dart';

class Hud extends TextComponent with HasGameRef<%[1]sGame> {
  Hud({required %[1]sGame game})
      : super(
          text: 'Gold: 0  Wave: 1',
          textRenderer: TextPaint(
            style: const TextStyle(
              color: Colors.amber,
              fontSize: 20,
            ),
          ),
        );

  int _lastGold = 0;
  int _lastWave = 1;

  @override
  void update(double dt) {
    super.update(dt);
    if (gameRef.gold != _lastGold || gameRef.wave != _lastWave) {
      _lastGold = gameRef.gold;
      _lastWave = gameRef.wave;
      text = 'Gold: $_lastGold  Wave: $_lastWave';
    }
  }
}
`, name)
}

func idleUpgradeOverlayDart(name string) string {
	return fmt.Sprintf(`import 'package:flutter/material.dart';
import 'game.dart';

class UpgradeOverlay extends StatelessWidget {
  final %[1]sGame game;

  const UpgradeOverlay({required this.game, super.key});

  @override
  Widget build(BuildContext context) {
    return Center(
      child: Container(
        padding: const EdgeInsets.all(24),
        decoration: BoxDecoration(
          color: Colors.black87,
          borderRadius: BorderRadius.circular(16),
        ),
        child: Column(
          mainAxisSize: MainAxisSize.min,
          children: [
            Text(
              'Wave ${game.wave - 1} Complete!',
              style: const TextStyle(
                color: Colors.amber,
                fontSize: 28,
                fontWeight: FontWeight.bold,
              ),
            ),
            const SizedBox(height: 12),
            Text(
              'Gold: ${game.gold}',
              style: const TextStyle(color: Colors.white, fontSize: 20),
            ),
            const SizedBox(height: 20),
            ElevatedButton(
              onPressed: () {
                game.hero.levelUp();
                game.overlays.remove('Upgrade');
              },
              child: Text(
                'Level Up Hero (Lv.${game.hero.level + 1})',
              ),
            ),
            const SizedBox(height: 8),
            TextButton(
              onPressed: () => game.overlays.remove('Upgrade'),
              child: const Text(
                'Continue',
                style: TextStyle(color: Colors.white70),
              ),
            ),
          ],
        ),
      ),
    );
  }
}
`, name)
}

func idleQuestLogScreenDart() string {
	return `import 'dart:convert';
import 'package:flutter/material.dart';
import 'package:flutter/services.dart';

/// Displays the quest log loaded from assets/data/quests.json.
class QuestLogScreen extends StatefulWidget {
  const QuestLogScreen({super.key});

  @override
  State<QuestLogScreen> createState() => _QuestLogScreenState();
}

class _QuestLogScreenState extends State<QuestLogScreen> {
  List<Map<String, dynamic>> _quests = [];
  bool _loading = true;

  @override
  void initState() {
    super.initState();
    _loadQuests();
  }

  Future<void> _loadQuests() async {
    final str = await rootBundle.loadString('assets/data/quests.json');
    final list = jsonDecode(str) as List;
    setState(() {
      _quests = list.cast<Map<String, dynamic>>();
      _loading = false;
    });
  }

  @override
  Widget build(BuildContext context) {
    return Scaffold(
      appBar: AppBar(
        title: const Text('Quest Log'),
        backgroundColor: Colors.black,
        foregroundColor: Colors.amber,
      ),
      backgroundColor: Colors.grey[900],
      body: _loading
          ? const Center(child: CircularProgressIndicator(color: Colors.amber))
          : _quests.isEmpty
              ? const Center(
                  child: Text('No quests found.',
                      style: TextStyle(color: Colors.white54)))
              : ListView.builder(
                  itemCount: _quests.length,
                  padding: const EdgeInsets.symmetric(vertical: 8),
                  itemBuilder: (context, index) {
                    final q = _quests[index];
                    final lr = (q['level_range'] as List?)
                        ?.map((e) => e.toString())
                        .join('-');
                    return Card(
                      color: Colors.grey[800],
                      margin: const EdgeInsets.symmetric(
                          horizontal: 12, vertical: 6),
                      child: ListTile(
                        title: Text(
                          q['title'] as String? ?? '',
                          style: const TextStyle(
                              color: Colors.amber,
                              fontWeight: FontWeight.bold),
                        ),
                        subtitle: Column(
                          crossAxisAlignment: CrossAxisAlignment.start,
                          children: [
                            Text(
                              q['summary'] as String? ?? '',
                              style:
                                  const TextStyle(color: Colors.white70),
                            ),
                            if (q['giver'] != null)
                              Text('Giver: ${q['giver']}',
                                  style: const TextStyle(
                                      color: Colors.white38,
                                      fontSize: 12)),
                          ],
                        ),
                        trailing: lr != null
                            ? Text('Lv. $lr',
                                style: const TextStyle(
                                    color: Colors.white54))
                            : null,
                        isThreeLine: q['giver'] != null,
                      ),
                    );
                  },
                ),
    );
  }
}
`
}

func idleCharactersScreenDart() string {
	return `import 'dart:convert';
import 'package:flutter/material.dart';
import 'package:flutter/services.dart';

/// Displays the character roster loaded from assets/data/characters.json.
class CharactersScreen extends StatefulWidget {
  const CharactersScreen({super.key});

  @override
  State<CharactersScreen> createState() => _CharactersScreenState();
}

class _CharactersScreenState extends State<CharactersScreen> {
  List<Map<String, dynamic>> _characters = [];
  bool _loading = true;

  @override
  void initState() {
    super.initState();
    _loadCharacters();
  }

  Future<void> _loadCharacters() async {
    final str = await rootBundle.loadString('assets/data/characters.json');
    final list = jsonDecode(str) as List;
    setState(() {
      _characters = list.cast<Map<String, dynamic>>();
      _loading = false;
    });
  }

  @override
  Widget build(BuildContext context) {
    return Scaffold(
      appBar: AppBar(
        title: const Text('Characters'),
        backgroundColor: Colors.black,
        foregroundColor: Colors.amber,
      ),
      backgroundColor: Colors.grey[900],
      body: _loading
          ? const Center(child: CircularProgressIndicator(color: Colors.amber))
          : _characters.isEmpty
              ? const Center(
                  child: Text('No characters found.',
                      style: TextStyle(color: Colors.white54)))
              : ListView.builder(
                  itemCount: _characters.length,
                  padding: const EdgeInsets.symmetric(vertical: 8),
                  itemBuilder: (context, index) {
                    final c = _characters[index];
                    final motivations =
                        (c['motivations'] as List?)?.join(', ') ?? '';
                    return Card(
                      color: Colors.grey[800],
                      margin: const EdgeInsets.symmetric(
                          horizontal: 12, vertical: 6),
                      child: ListTile(
                        leading: CircleAvatar(
                          backgroundColor: Colors.amber,
                          child: Text(
                            (c['name'] as String? ?? '?')[0],
                            style: const TextStyle(
                                color: Colors.black,
                                fontWeight: FontWeight.bold),
                          ),
                        ),
                        title: Text(
                          c['name'] as String? ?? '',
                          style: const TextStyle(
                              color: Colors.amber,
                              fontWeight: FontWeight.bold),
                        ),
                        subtitle: Column(
                          crossAxisAlignment: CrossAxisAlignment.start,
                          children: [
                            Text(
                              'Role: ${c['role'] ?? ''}',
                              style: const TextStyle(color: Colors.white70),
                            ),
                            if (c['backstory'] != null)
                              Text(
                                c['backstory'] as String,
                                style: const TextStyle(
                                    color: Colors.white54,
                                    fontSize: 12),
                                maxLines: 2,
                                overflow: TextOverflow.ellipsis,
                              ),
                            if (motivations.isNotEmpty)
                              Text(
                                'Motivations: $motivations',
                                style: const TextStyle(
                                    color: Colors.white38,
                                    fontSize: 11),
                              ),
                          ],
                        ),
                        isThreeLine: true,
                      ),
                    );
                  },
                ),
    );
  }
}
`
}

func idleShopScreenDart() string {
	return `import 'dart:convert';
import 'package:flutter/material.dart';
import 'package:flutter/services.dart';

/// Displays the item shop loaded from assets/data/items.json.
class ShopScreen extends StatefulWidget {
  const ShopScreen({super.key});

  @override
  State<ShopScreen> createState() => _ShopScreenState();
}

class _ShopScreenState extends State<ShopScreen> {
  List<Map<String, dynamic>> _items = [];
  bool _loading = true;

  @override
  void initState() {
    super.initState();
    _loadItems();
  }

  Future<void> _loadItems() async {
    final str = await rootBundle.loadString('assets/data/items.json');
    final list = jsonDecode(str) as List;
    setState(() {
      _items = list.cast<Map<String, dynamic>>();
      _loading = false;
    });
  }

  Color _rarityColor(String? rarity) {
    switch (rarity?.toLowerCase()) {
      case 'rare':
        return Colors.blue;
      case 'epic':
        return Colors.purple;
      case 'legendary':
        return Colors.orange;
      default:
        return Colors.white54;
    }
  }

  @override
  Widget build(BuildContext context) {
    return Scaffold(
      appBar: AppBar(
        title: const Text('Shop'),
        backgroundColor: Colors.black,
        foregroundColor: Colors.amber,
      ),
      backgroundColor: Colors.grey[900],
      body: _loading
          ? const Center(child: CircularProgressIndicator(color: Colors.amber))
          : _items.isEmpty
              ? const Center(
                  child: Text('No items available.',
                      style: TextStyle(color: Colors.white54)))
              : ListView.builder(
                  itemCount: _items.length,
                  padding: const EdgeInsets.symmetric(vertical: 8),
                  itemBuilder: (context, index) {
                    final item = _items[index];
                    final rarity = item['rarity'] as String?;
                    final stats = item['stats'] as Map<String, dynamic>?;
                    final statsStr = stats?.entries
                            .map((e) => '${e.key}: ${e.value}')
                            .join(', ') ??
                        '';
                    return Card(
                      color: Colors.grey[800],
                      margin: const EdgeInsets.symmetric(
                          horizontal: 12, vertical: 6),
                      child: ListTile(
                        leading: Icon(
                          item['type'] == 'weapon'
                              ? Icons.security
                              : Icons.shield,
                          color: Colors.amber,
                        ),
                        title: Text(
                          item['name'] as String? ?? '',
                          style: const TextStyle(
                              color: Colors.amber,
                              fontWeight: FontWeight.bold),
                        ),
                        subtitle: Column(
                          crossAxisAlignment: CrossAxisAlignment.start,
                          children: [
                            Text(
                              item['description'] as String? ?? '',
                              style: const TextStyle(color: Colors.white70),
                            ),
                            if (statsStr.isNotEmpty)
                              Text('Stats: $statsStr',
                                  style: const TextStyle(
                                      color: Colors.white54,
                                      fontSize: 12)),
                          ],
                        ),
                        trailing: rarity != null
                            ? Text(
                                rarity,
                                style: TextStyle(
                                    color: _rarityColor(rarity),
                                    fontWeight: FontWeight.bold),
                              )
                            : null,
                        isThreeLine: statsStr.isNotEmpty,
                      ),
                    );
                  },
                ),
    );
  }
}
`
}
