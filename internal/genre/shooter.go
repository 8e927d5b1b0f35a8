package genre

import (
	"fmt"

	"github.com/roach88/gameforge/internal/gamespec"
	"github.com/roach88/gameforge/internal/tree"
)

// TopDownShooter returns the top-down shooter plugin. The emitted Dart
// follows the Flame performance checklist: sprites preloaded in onLoad,
// no allocations inside update bodies, and a pre-allocated bullet pool
// for the projectile entity.
func TopDownShooter() Plugin {
	return Plugin{
		ID: "top_down_shooter",
		Keywords: []string{
			"shoot", "shooter", "bullet", "enemy", "space", "gun", "blast",
			"missile", "asteroid", "galaga", "shmup", "top down",
		},
		Orientation: "landscape",
		Generate:    generateShooter,
	}
}

func generateShooter(spec *gamespec.GameSpec, _ *gamespec.DesignDoc) (Output, error) {
	name := ClassName(spec.Title)

	code := tree.New()
	files := map[string]string{
		EntryFile:                shooterGameDart(name),
		AppFile:                  shooterAppDart(name, spec.Title),
		"player.dart":            shooterPlayerDart(name),
		"enemy.dart":             shooterEnemyDart(name),
		"bullet.dart":            shooterBulletDart(name),
		"bullet_pool.dart":       shooterBulletPoolDart(name),
		"hud.dart":               shooterHudDart(name),
		"mobile_controls.dart":   shooterMobileControlsDart(name),
		"game_over_overlay.dart": shooterGameOverOverlayDart(name),
	}
	for path, content := range files {
		if err := code.AddString(path, content); err != nil {
			return Output{}, err
		}
	}
	return Output{Code: code, Data: tree.New()}, nil
}

func shooterGameDart(name string) string {
	return fmt.Sprintf(`import 'dart:math';
import 'package:flame/game.dart';
import 'package:flame/input.dart';
import 'package:flutter/material.dart';
import 'package:flutter/services.dart';
import 'player.dart';
import 'enemy.dart';
import 'bullet_pool.dart';
import 'hud.dart';
import 'mobile_controls.dart';
import 'game_over_overlay.dart';

class %[1]sGame extends FlameGame
    with HasCollisionDetection, KeyboardEvents {
  late final SpriteComponent _background;

  late final Player player;
  late final BulletPool bulletPool;

  late final JoystickComponent joystick;

  int score = 0;
  bool _gameOver = false;

  static const double _spawnInterval = 2.0;
  double _spawnTimer = 0;

  final Random _rng = Random();

  @override
  Future<void> onLoad() async {
    await super.onLoad();

    final bgSprite = await loadSprite('imported/background.png');
    _background = SpriteComponent(
      sprite: bgSprite,
      size: size,
    );
    add(_background);

    // Pre-allocate the pool so firing never allocates.
    bulletPool = BulletPool(20);
    add(bulletPool);

    player = Player(game: this);
    await player.onLoad();
    add(player);

    final controls = MobileControls(game: this);
    joystick = controls.joystick;
    add(controls);

    add(Hud(game: this));

    overlays.addEntry(
      'GameOver',
      (context, game) => GameOverOverlay(game: game as %[1]sGame),
    );
  }

  @override
  void update(double dt) {
    if (_gameOver) return;
    super.update(dt);

    _spawnTimer += dt;
    if (_spawnTimer >= _spawnInterval) {
      _spawnTimer = 0;
      _spawnEnemy();
    }
  }

  void _spawnEnemy() {
    final x = _rng.nextDouble() * (size.x - 48);
    add(Enemy(game: this, position: Vector2(x, -48)));
  }

  void addScore(int points) {
    score += points;
  }

  void triggerGameOver() {
    if (_gameOver) return;
    _gameOver = true;
    pauseEngine();
    overlays.add('GameOver');
  }

  @override
  KeyEventResult onKeyEvent(
    KeyEvent event,
    Set<LogicalKeyboardKey> keysPressed,
  ) {
    player.handleKeys(keysPressed);
    if (keysPressed.contains(LogicalKeyboardKey.space)) {
      player.shoot();
    }
    return KeyEventResult.handled;
  }
}
`, name)
}

func shooterAppDart(name, title string) string {
	return fmt.Sprintf(`import 'package:flame/game.dart';
import 'package:flutter/material.dart';
import 'game.dart';

class GameApp extends StatelessWidget {
  const GameApp({super.key});

  @override
  Widget build(BuildContext context) {
    return MaterialApp(
      title: '%[2]s',
      debugShowCheckedModeBanner: false,
      home: Scaffold(
        backgroundColor: Colors.black,
        body: GameWidget<%[1]sGame>(
          game: %[1]sGame(),
          loadingBuilder: (context) => const Center(
            child: CircularProgressIndicator(),
          ),
        ),
      ),
    );
  }
}
`, name, escapeDartString(title))
}

func shooterPlayerDart(name string) string {
	return fmt.Sprintf(`import 'package:flame/collisions.dart';
import 'package:flame/components.dart';
import 'package:flutter/services.dart';
import 'game.dart';
import 'enemy.dart';

class Player extends SpriteComponent with CollisionCallbacks {
  final %[1]sGame game;

  static const double _speed = 200;

  static const double _shootCooldown = 0.25;
  double _shootTimer = 0;

  // Reused direction vectors, updated in place to avoid per-frame allocation.
  final Vector2 _keyDir = Vector2.zero();
  static final Vector2 _fireDir = Vector2(0, -1);

  Player({required this.game}) : super(size: Vector2(48, 48));

  @override
  Future<void> onLoad() async {
    sprite = await game.loadSprite('imported/player.png');
    position = Vector2(game.size.x / 2 - 24, game.size.y - 80);
    add(RectangleHitbox());
  }

  void handleKeys(Set<LogicalKeyboardKey> keys) {
    _keyDir.setZero();
    if (keys.contains(LogicalKeyboardKey.arrowLeft) ||
        keys.contains(LogicalKeyboardKey.keyA)) {
      _keyDir.x -= 1;
    }
    if (keys.contains(LogicalKeyboardKey.arrowRight) ||
        keys.contains(LogicalKeyboardKey.keyD)) {
      _keyDir.x += 1;
    }
    if (keys.contains(LogicalKeyboardKey.arrowUp) ||
        keys.contains(LogicalKeyboardKey.keyW)) {
      _keyDir.y -= 1;
    }
    if (keys.contains(LogicalKeyboardKey.arrowDown) ||
        keys.contains(LogicalKeyboardKey.keyS)) {
      _keyDir.y += 1;
    }
  }

  void shoot() {
    if (_shootTimer <= 0) {
      game.bulletPool.fire(
        x: position.x + size.x / 2 - 4,
        y: position.y,
        direction: _fireDir,
      );
      _shootTimer = _shootCooldown;
    }
  }

  @override
  void update(double dt) {
    super.update(dt);
    if (_shootTimer > 0) _shootTimer -= dt;

    // Prefer keyboard; fall back to joystick on mobile.
    final joystickDelta = game.joystick.relativeDelta;
    if (_keyDir.length2 > 0) {
      _keyDir.normalize();
      position.addScaled(_keyDir, _speed * dt);
    } else if (joystickDelta.length2 > 0) {
      position.addScaled(joystickDelta, _speed * dt);
    }

    position.x = position.x.clamp(0, game.size.x - size.x);
    position.y = position.y.clamp(0, game.size.y - size.y);
  }

  @override
  void onCollisionStart(
    Set<Vector2> intersectionPoints,
    PositionComponent other,
  ) {
    super.onCollisionStart(intersectionPoints, other);
    if (other is Enemy) {
      game.triggerGameOver();
    }
  }
}
`, name)
}

func shooterEnemyDart(name string) string {
	return fmt.Sprintf(`import 'package:flame/collisions.dart';
import 'package:flame/components.dart';
import 'game.dart';

class Enemy extends SpriteComponent with CollisionCallbacks {
  final %[1]sGame game;

  static const double _speed = 100;

  Enemy({required this.game, required Vector2 position})
      : super(size: Vector2(48, 48), position: position);

  @override
  Future<void> onLoad() async {
    sprite = await game.loadSprite('imported/enemy.png');
    add(RectangleHitbox());
  }

  @override
  void update(double dt) {
    super.update(dt);
    position.y += _speed * dt;

    if (position.y > game.size.y + size.y) {
      removeFromParent();
    }
  }
}
`, name)
}

func shooterBulletDart(name string) string {
	return fmt.Sprintf(`import 'package:flame/collisions.dart';
import 'package:flame/components.dart';
import 'enemy.dart';
import 'game.dart';

class Bullet extends SpriteComponent with CollisionCallbacks {
  final %[1]sGame game;
  final Vector2 direction;

  static const double _speed = 400;

  // Pool state: inactive bullets are parked off-screen.
  bool active = false;

  Bullet({required this.game})
      : direction = Vector2(0, -1),
        super(size: Vector2(8, 16));

  @override
  Future<void> onLoad() async {
    sprite = await game.loadSprite('imported/bullet.png');
    add(RectangleHitbox());
  }

  @override
  void update(double dt) {
    if (!active) return;
    super.update(dt);
    position.addScaled(direction, _speed * dt);

    if (position.y < -size.y) {
      deactivate();
    }
  }

  void activate(double x, double y, Vector2 dir) {
    position.setValues(x, y);
    direction.setFrom(dir);
    direction.normalize();
    active = true;
  }

  void deactivate() {
    active = false;
    position.setValues(-1000, -1000);
  }

  @override
  void onCollisionStart(
    Set<Vector2> intersectionPoints,
    PositionComponent other,
  ) {
    super.onCollisionStart(intersectionPoints, other);
    if (other is Enemy) {
      other.removeFromParent();
      game.addScore(10);
      deactivate();
    }
  }
}
`, name)
}

func shooterBulletPoolDart(name string) string {
	return fmt.Sprintf(`import 'package:flame/components.dart';
import 'bullet.dart';
import 'game.dart';

/// Fixed-size object pool for bullets. Every bullet is allocated once in
/// onLoad; firing only flips pool state, so the hot path never allocates.
class BulletPool extends Component {
  final int poolSize;
  final List<Bullet> _pool = [];
  late final %[1]sGame _game;

  BulletPool(this.poolSize);

  @override
  Future<void> onLoad() async {
    _game = findGame()! as %[1]sGame;
    for (int i = 0; i < poolSize; i++) {
      final b = Bullet(game: _game);
      await b.onLoad();
      b.deactivate();
      _pool.add(b);
      add(b);
    }
  }

  /// Activate an available bullet at (x, y) moving in [direction].
  void fire({required double x, required double y, required Vector2 direction}) {
    for (final b in _pool) {
      if (!b.active) {
        b.activate(x, y, direction);
        return;
      }
    }
    // Pool exhausted: drop the shot rather than allocate.
  }
}
`, name)
}

func shooterHudDart(name string) string {
	return fmt.Sprintf(`import 'package:flame/components.dart';
import 'package:flutter/material.dart';
import 'game.dart';

class Hud extends TextComponent with HasGameRef<%[1]sGame> {
  Hud({required %[1]sGame game})
      : super(
          text: 'Score: 0',
          textRenderer: TextPaint(
            style: const TextStyle(
              color: Colors.white,
              fontSize: 20,
            ),
          ),
        );

  int _lastScore = 0;

  @override
  void update(double dt) {
    super.update(dt);
    if (gameRef.score != _lastScore) {
      _lastScore = gameRef.score;
      text = 'Score: $_lastScore';
    }
  }
}
`, name)
}

func shooterMobileControlsDart(name string) string {
	return fmt.Sprintf(`import 'package:flame/components.dart';
import 'package:flame/input.dart';
import 'package:flutter/material.dart';
import 'game.dart';

/// Mobile on-screen controls: virtual joystick (left) plus fire button
/// (right). Both stay fixed on the viewport; on desktop the keyboard takes
/// priority (see Player.update).
class MobileControls extends Component {
  final %[1]sGame game;
  late final JoystickComponent joystick;

  MobileControls({required this.game});

  @override
  Future<void> onLoad() async {
    joystick = JoystickComponent(
      knob: CircleComponent(
        radius: 20,
        paint: Paint()..color = const Color(0xBBFFFFFF),
      ),
      background: CircleComponent(
        radius: 55,
        paint: Paint()..color = const Color(0x44FFFFFF),
      ),
      margin: const EdgeInsets.only(left: 48, bottom: 48),
    );
    add(joystick);

    final fireButton = HudButtonComponent(
      button: CircleComponent(
        radius: 36,
        paint: Paint()..color = const Color(0xAAFF3333),
      ),
      buttonDown: CircleComponent(
        radius: 36,
        paint: Paint()..color = const Color(0xFFFF0000),
      ),
      margin: const EdgeInsets.only(right: 48, bottom: 48),
      onPressed: game.player.shoot,
    );
    add(fireButton);
  }
}
`, name)
}

func shooterGameOverOverlayDart(name string) string {
	return fmt.Sprintf(`import 'package:flutter/material.dart';
import 'game.dart';

class GameOverOverlay extends StatelessWidget {
  final %[1]sGame game;

  const GameOverOverlay({required this.game, super.key});

  @override
  Widget build(BuildContext context) {
    return Center(
      child: Column(
        mainAxisAlignment: MainAxisAlignment.center,
        children: [
          const Text(
            'GAME OVER',
            style: TextStyle(
              color: Colors.red,
              fontSize: 48,
              fontWeight: FontWeight.bold,
            ),
          ),
          const SizedBox(height: 16),
          Text(
            'Score: ${game.score}',
            style: const TextStyle(color: Colors.white, fontSize: 24),
          ),
          const SizedBox(height: 24),
          ElevatedButton(
            onPressed: () {
              game.overlays.remove('GameOver');
              game.resumeEngine();
            },
            child: const Text('Restart'),
          ),
        ],
      ),
    );
  }
}
`, name)
}
