// Package validator runs the generated project through the Flutter
// toolchain and optionally auto-fixes common failures with a bounded
// patch-and-retry loop.
//
// The pipeline is a small state machine: Formatting (warning on failure),
// DependencyResolving, Analyzing, and optional Testing. Any failure past
// Formatting aborts the pass. With autofix enabled, the ordered patch-rule
// set rewrites the in-memory tree and the machine restarts at Formatting;
// the loop stops when no rule changes a file, when a patch pass reproduces
// a tree already tried, or after the attempt cap.
package validator

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/roach88/gameforge/internal/tree"
)

// State is one step of the validation state machine.
type State string

const (
	StateNotRun              State = "not_run"
	StateFormatting          State = "formatting"
	StateDependencyResolving State = "dependency_resolving"
	StateAnalyzing           State = "analyzing"
	StateTesting             State = "testing"
	StatePassed              State = "passed"
	StateFailed              State = "failed"
)

// maxAttempts bounds the autofix loop regardless of whether patches keep
// changing files.
const maxAttempts = 3

// DefaultCommandTimeout bounds each external tool invocation. A hung tool
// is killed and the stage reports Failed with whatever output it produced.
const DefaultCommandTimeout = 5 * time.Minute

const smokeTestPath = "test/smoke_test.dart"

const smokeTestDart = `import 'package:flutter_test/flutter_test.dart';

void main() {
  test('project smoke test', () {
    expect(1 + 1, equals(2));
  });
}
`

// Runner executes one external tool command inside the project directory
// and returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

// CommandRunner is the production Runner backed by exec.CommandContext.
type CommandRunner struct {
	Timeout time.Duration // per command; DefaultCommandTimeout when zero
}

func (r CommandRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return string(out), fmt.Errorf("%s timed out after %s", name, timeout)
	}
	if err != nil {
		return string(out), fmt.Errorf("%s: %w", name, err)
	}
	return string(out), nil
}

// Options selects the optional stages of one validation.
type Options struct {
	Testing bool // run flutter test, injecting a smoke test when none exist
	AutoFix bool // apply patch rules and retry on failure
}

// Result is the outcome of a validation, including the (possibly patched)
// tree the caller should carry forward to export.
type Result struct {
	State    State
	FailedAt State  // stage that failed; zero value when State is passed
	Output   string // combined tool output of the last pipeline pass
	Warnings []string
	Patches  []string // names of patch rules that changed a file
	Attempts int
	Tree     tree.FileTree
}

// Validator drives the state machine over a materialized project tree.
type Validator struct {
	Runner Runner
	Rules  []PatchRule
	Logger *slog.Logger
}

func New(runner Runner, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{Runner: runner, Rules: DefaultRules(), Logger: logger}
}

// Validate writes the project under dir, runs the pipeline, and on failure
// applies the autofix loop when requested. The returned Result is never nil
// on a nil error; a failed validation is reported in Result.State, not as
// an error.
func (v *Validator) Validate(ctx context.Context, dir string, project tree.FileTree, opts Options) (*Result, error) {
	res := &Result{State: StateNotRun, Tree: project.Clone()}

	if opts.Testing && !hasTests(res.Tree) {
		if err := res.Tree.AddString(smokeTestPath, smokeTestDart); err != nil {
			return nil, fmt.Errorf("validator: inject smoke test: %w", err)
		}
		v.Logger.Info("no test files found, injecting smoke test", "path", smokeTestPath)
	}

	// Trees already attempted, by fingerprint. A patch pass that lands on
	// one of these cannot converge, so the loop stops early.
	seen := map[string]bool{res.Tree.Fingerprint(): true}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res.Attempts = attempt
		if err := res.Tree.WriteTo(dir); err != nil {
			return nil, fmt.Errorf("validator: materialize project: %w", err)
		}

		failedAt, out := v.pipeline(ctx, dir, opts, res)
		res.Output = out
		if failedAt == "" {
			res.State = StatePassed
			res.FailedAt = ""
			return res, nil
		}
		res.State = StateFailed
		res.FailedAt = failedAt
		v.Logger.Warn("validation failed", "stage", string(failedAt), "attempt", attempt)

		if !opts.AutoFix || attempt == maxAttempts {
			return res, nil
		}

		applied, err := ApplyRules(v.Rules, res.Tree, out)
		if err != nil {
			return nil, fmt.Errorf("validator: %w", err)
		}
		if len(applied) == 0 {
			v.Logger.Info("no patch rule changed anything, stopping autofix")
			return res, nil
		}
		res.Patches = append(res.Patches, applied...)
		v.Logger.Info("applied patches", "rules", strings.Join(applied, ","))

		fp := res.Tree.Fingerprint()
		if seen[fp] {
			v.Logger.Info("patches reproduced a tree already tried, stopping autofix")
			return res, nil
		}
		seen[fp] = true
	}
	return res, nil
}

// pipeline runs one full pass. It returns the failed state and the combined
// tool log; an empty state means the pass succeeded.
func (v *Validator) pipeline(ctx context.Context, dir string, opts Options, res *Result) (State, string) {
	var log strings.Builder

	out, err := v.Runner.Run(ctx, dir, "dart", "format", ".")
	logCommand(&log, "dart format .", out, err)
	if err != nil {
		// Formatting problems never block the pipeline.
		warning := "dart format failed: " + err.Error()
		res.Warnings = append(res.Warnings, warning)
		v.Logger.Warn(warning)
	}

	out, err = v.Runner.Run(ctx, dir, "flutter", "pub", "get")
	logCommand(&log, "flutter pub get", out, err)
	if err != nil {
		return StateDependencyResolving, log.String()
	}

	out, err = v.Runner.Run(ctx, dir, "flutter", "analyze")
	logCommand(&log, "flutter analyze", out, err)
	if err != nil {
		return StateAnalyzing, log.String()
	}

	if opts.Testing {
		out, err = v.Runner.Run(ctx, dir, "flutter", "test")
		logCommand(&log, "flutter test", out, err)
		if err != nil {
			return StateTesting, log.String()
		}
	}
	return "", log.String()
}

func logCommand(b *strings.Builder, cmd, out string, err error) {
	fmt.Fprintf(b, "$ %s\n", cmd)
	if out != "" {
		b.WriteString(out)
		if !strings.HasSuffix(out, "\n") {
			b.WriteString("\n")
		}
	}
	if err != nil {
		fmt.Fprintf(b, "error: %v\n", err)
	}
}

func hasTests(t tree.FileTree) bool {
	for _, p := range t.Paths() {
		if strings.HasSuffix(p, "_test.dart") {
			return true
		}
	}
	return false
}
