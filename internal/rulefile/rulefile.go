// Package rulefile loads rewrite-rule catalogs from CUE files.
//
// A catalog file declares a top-level rules list:
//
//	rules: [
//		{name: "Pyridine oxide to n+O-", pattern: "[n:1]=[O:2]>>[n+:1][O-:2]"},
//	]
//
// Load checks the shape against an embedded schema and returns the
// rules in declaration order, which is the order the normalizer scans
// them in. Pattern text is not compiled here; it compiles on first use,
// or eagerly through CompileAll.
package rulefile

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/pmachta/molnorm/internal/normalize"
)

//go:embed schema.cue
var schemaCUE string

// Error code constants, reported by the check and normalize commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E002" // Catalog path unusable
	ErrCodeParseFailed = "E003" // CUE parse/eval failed
	ErrCodeSchema      = "E004" // Shape rejected by the catalog schema
	ErrCodeNoRules     = "E005" // Catalog has no rules
)

// LoadError represents an error that occurred during catalog loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads the catalog at path and returns its rules in declaration
// order. Every failure is a *LoadError carrying a code and, where CUE
// reports one, a source position.
//
// Names may repeat, matching the built-in catalog's convention of
// naming related variants identically. An empty rules list is an error:
// a catalog that normalizes nothing is a configuration mistake, not a
// choice this layer can tell apart from one.
func Load(path string) ([]*normalize.Rule, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("rule catalog not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing rule catalog: %v", err)}
	}
	if info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a file: %s", path)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading rule catalog: %v", err)}
	}

	ctx := cuecontext.New()
	file := ctx.CompileBytes(data, cue.Filename(path))
	if err := file.Err(); err != nil {
		return nil, asLoadError(err, ErrCodeParseFailed)
	}

	// Checked on the raw file value: after unification the schema
	// supplies the field and a missing list would misreport as a
	// schema violation inside schema.cue.
	if !file.LookupPath(cue.ParsePath("rules")).Exists() {
		return nil, &LoadError{Code: ErrCodeNoRules, Message: fmt.Sprintf("no rules list in %s", path)}
	}

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("compiling catalog schema: %v", err)}
	}

	// Validation is scoped to the rules list so helper fields in the
	// catalog are free to stay non-concrete.
	rulesVal := schema.Unify(file).LookupPath(cue.ParsePath("rules"))
	if err := rulesVal.Validate(cue.Concrete(true)); err != nil {
		return nil, asLoadError(err, ErrCodeSchema)
	}

	iter, err := rulesVal.List()
	if err != nil {
		return nil, asLoadError(err, ErrCodeSchema)
	}

	var rules []*normalize.Rule
	for iter.Next() {
		elem := iter.Value()
		name, err := elem.LookupPath(cue.ParsePath("name")).String()
		if err != nil {
			return nil, asLoadError(err, ErrCodeSchema)
		}
		pattern, err := elem.LookupPath(cue.ParsePath("pattern")).String()
		if err != nil {
			return nil, asLoadError(err, ErrCodeSchema)
		}
		rules = append(rules, normalize.NewRule(name, pattern))
	}
	if len(rules) == 0 {
		return nil, &LoadError{Code: ErrCodeNoRules, Message: fmt.Sprintf("rule catalog %s is empty", path)}
	}
	return rules, nil
}

// CompileAll compiles every rule against c, collecting one error per
// rule whose pattern text is rejected. A nil result means the whole
// catalog compiles. Transforms memoize against the first compiler they
// see, so rules checked here are pinned to c.
func CompileAll(rules []*normalize.Rule, c normalize.Compiler) []error {
	var errs []error
	for _, r := range rules {
		if _, err := r.Transform(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// asLoadError converts a CUE error to a LoadError with position info.
func asLoadError(err error, code string) *LoadError {
	// CUE errors may contain multiple errors; keep the first.
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}

	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
