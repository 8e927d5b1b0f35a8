// Package schema validates GameSpec and DesignDoc values against embedded
// CUE schemas. Validation collects every violation before returning so
// callers always see one aggregated list naming each offending field.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/gameforge/internal/gamespec"
)

//go:embed gamespec.cue
var gameSpecCUE string

//go:embed designdoc.cue
var designDocCUE string

// ValidateGameSpec checks spec against the embedded #GameSpec schema.
// Returns nil when the spec is valid.
func ValidateGameSpec(spec *gamespec.GameSpec) gamespec.FieldErrors {
	data, err := json.Marshal(spec)
	if err != nil {
		return gamespec.FieldErrors{{
			Field:   "spec",
			Message: fmt.Sprintf("spec is not serializable: %v", err),
			Code:    gamespec.ErrSchemaViolation,
		}}
	}
	return validateAgainst(gameSpecCUE, "#GameSpec", data)
}

// ValidateDesignDoc checks doc against the embedded #DesignDoc schema.
// Returns nil when the doc is valid.
func ValidateDesignDoc(doc *gamespec.DesignDoc) gamespec.FieldErrors {
	data, err := json.Marshal(doc)
	if err != nil {
		return gamespec.FieldErrors{{
			Field:   "design_doc",
			Message: fmt.Sprintf("design doc is not serializable: %v", err),
			Code:    gamespec.ErrSchemaViolation,
		}}
	}
	return validateAgainst(designDocCUE, "#DesignDoc", data)
}

// validateAgainst unifies data (JSON, which is a subset of CUE) with the
// named definition and converts every CUE error into a FieldError.
func validateAgainst(schemaSrc, defName string, data []byte) gamespec.FieldErrors {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(schemaSrc)
	if err := schemaVal.Err(); err != nil {
		// The schemas are embedded constants; a compile failure is a bug,
		// not a data problem.
		panic(fmt.Sprintf("schema: embedded %s does not compile: %v", defName, err))
	}
	def := schemaVal.LookupPath(cue.ParsePath(defName))
	if !def.Exists() {
		panic(fmt.Sprintf("schema: definition %s not found", defName))
	}

	dataVal := ctx.CompileBytes(data)
	if err := dataVal.Err(); err != nil {
		return gamespec.FieldErrors{{
			Field:   strings.TrimPrefix(defName, "#"),
			Message: fmt.Sprintf("invalid JSON value: %v", err),
			Code:    gamespec.ErrSchemaViolation,
		}}
	}

	unified := def.Unify(dataVal)
	err := unified.Validate(cue.Concrete(true), cue.Final())
	if err == nil {
		return nil
	}

	var errs gamespec.FieldErrors
	for _, e := range cueerrors.Errors(err) {
		field := strings.Join(e.Path(), ".")
		if field == "" {
			field = strings.TrimPrefix(defName, "#")
		}
		format, args := e.Msg()
		errs = append(errs, gamespec.FieldError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    gamespec.ErrSchemaViolation,
		})
	}
	return errs
}
