package gamespec

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Closed constraint enums. Platform and scope reject anything outside
// these sets; art style is free text.
var (
	ValidPlatforms = []string{"android", "android+ios"}
	ValidScopes    = []string{"prototype", "vertical-slice"}
)

// Constraint defaults applied when neither a flag nor an interactive
// answer supplies a value.
const (
	DefaultPlatform  = "android"
	DefaultScope     = "prototype"
	DefaultArtStyle  = "pixel-art"
	DefaultDimension = "2D"
)

// Constraints is the canonical resolved settings object every pipeline
// stage reads. Dimension is always "2D": the renderer plugin set supports
// nothing else, so the resolver pins it rather than exposing it.
type Constraints struct {
	Platform  string `json:"platform"`
	Scope     string `json:"scope"`
	ArtStyle  string `json:"art_style"`
	Dimension string `json:"dimension"`
	Online    bool   `json:"online"`

	// Genre forces a genre and skips keyword inference when non-empty.
	Genre string `json:"genre,omitempty"`

	// Seed drives all heuristic randomness; nil means unseeded.
	Seed *int64 `json:"seed,omitempty"`
}

// Overrides carries explicit flag values into Resolve. Zero values mean
// "not supplied"; Online and Seed use pointers so false/0 remain expressible.
type Overrides struct {
	Platform  string
	Scope     string
	ArtStyle  string
	Dimension string
	Online    *bool
	Genre     string
	Seed      *int64
}

// Resolver normalizes user-supplied and default generation constraints.
type Resolver struct {
	// Interactive prompts on In/Out for each constraint the flags left
	// unset, in the precedence flag > answer > default.
	Interactive bool
	In          io.Reader
	Out         io.Writer

	Logger *slog.Logger
}

// Resolve produces the canonical Constraints for a run.
//
// Per field the precedence is: explicit flag > interactive answer (when
// Interactive) > default. The resolver is total except for malformed
// closed-enum values, which are reported as one aggregated error naming
// every invalid field. An attempted dimension override is dropped with a
// logged notice, never an error.
func (r *Resolver) Resolve(o Overrides) (Constraints, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := Constraints{
		Platform:  DefaultPlatform,
		Scope:     DefaultScope,
		ArtStyle:  DefaultArtStyle,
		Dimension: DefaultDimension,
	}

	var errs FieldErrors

	if o.Platform != "" {
		if !contains(ValidPlatforms, o.Platform) {
			errs = append(errs, FieldError{
				Field:   "platform",
				Message: fmt.Sprintf("invalid value %q: must be one of %v", o.Platform, ValidPlatforms),
				Code:    ErrInvalidEnumValue,
			})
		} else {
			c.Platform = o.Platform
		}
	}
	if o.Scope != "" {
		if !contains(ValidScopes, o.Scope) {
			errs = append(errs, FieldError{
				Field:   "scope",
				Message: fmt.Sprintf("invalid value %q: must be one of %v", o.Scope, ValidScopes),
				Code:    ErrInvalidEnumValue,
			})
		} else {
			c.Scope = o.Scope
		}
	}
	if o.ArtStyle != "" {
		c.ArtStyle = o.ArtStyle
	}
	if o.Online != nil {
		c.Online = *o.Online
	}
	if o.Genre != "" {
		c.Genre = o.Genre
	}
	if o.Seed != nil {
		seed := *o.Seed
		c.Seed = &seed
	}
	if o.Dimension != "" && o.Dimension != DefaultDimension {
		logger.Info("only 2D is supported by the renderer plugin set; enforcing dimension=2D",
			"requested", o.Dimension)
	}

	if err := errs.OrNil(); err != nil {
		return Constraints{}, err
	}

	if r.Interactive {
		if err := r.askQuestions(&c, o); err != nil {
			return Constraints{}, err
		}
	}

	return c, nil
}

// askQuestions prompts for each constraint that no flag supplied. Empty
// answers keep the current value; answers outside a closed enum are
// silently ignored, mirroring the non-interactive leniency for defaults.
func (r *Resolver) askQuestions(c *Constraints, o Overrides) error {
	in := r.In
	out := r.Out
	if in == nil || out == nil {
		return fmt.Errorf("interactive mode requires input and output streams")
	}
	scanner := bufio.NewScanner(in)

	ask := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", nil // EOF accepts the default
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	fmt.Fprintln(out, "\n=== Game Constraints (press Enter to accept default) ===")

	if o.ArtStyle == "" {
		answer, err := ask(fmt.Sprintf("Art style [%s]: ", c.ArtStyle))
		if err != nil {
			return err
		}
		if answer != "" {
			c.ArtStyle = answer
		}
	}
	if o.Platform == "" {
		answer, err := ask(fmt.Sprintf("Target platform (android / android+ios) [%s]: ", c.Platform))
		if err != nil {
			return err
		}
		if contains(ValidPlatforms, answer) {
			c.Platform = answer
		}
	}
	if o.Online == nil {
		current := "no"
		if c.Online {
			current = "yes"
		}
		answer, err := ask(fmt.Sprintf("Online multiplayer? (yes/no) [%s]: ", current))
		if err != nil {
			return err
		}
		switch strings.ToLower(answer) {
		case "yes", "y":
			c.Online = true
		case "no", "n":
			c.Online = false
		}
	}
	if o.Scope == "" {
		answer, err := ask(fmt.Sprintf("Scope (prototype / vertical-slice) [%s]: ", c.Scope))
		if err != nil {
			return err
		}
		if contains(ValidScopes, answer) {
			c.Scope = answer
		}
	}

	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
