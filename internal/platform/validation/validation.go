// Package validation implements declarative per-route request validation.
//
// A route declares a schema for any of its body, query and params sections. Every
// configured section is parsed concurrently; violations from all sections are reported
// together in one 422 response, ordered body, query, params. On success the parsed
// values are stored in the request context for the handler to read with Parsed.
package validation

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/admin-app/admin-api/internal/platform/httpx"
)

// FailureMessage is the top-level message of every validation failure.
const FailureMessage = "Kindly provide valid payload"

// Section names a part of the request.
type Section string

const (
	Body   Section = "body"
	Query  Section = "query"
	Params Section = "params"
)

var sectionOrder = []Section{Body, Query, Params}

// Issue is a single violation. Path is the first segment of the field path and is
// empty for violations that concern the section as a whole.
type Issue struct {
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// Options tunes how a section is parsed.
type Options struct {
	// AllowUnknown accepts keys the schema does not declare.
	AllowUnknown bool
	// MaxBytes caps the body size; zero means DefaultMaxBytes.
	MaxBytes int64
	// Logger records failures answered with 500. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultMaxBytes caps JSON bodies when Options.MaxBytes is unset.
const DefaultMaxBytes int64 = 1 << 20

// Rule pairs a schema with its options.
type Rule struct {
	Schema  Schema
	Options Options
}

// Rules maps each validated section to its rule.
type Rules map[Section]Rule

// Schema parses one section of a request into a typed value.
type Schema interface {
	parse(w http.ResponseWriter, r *http.Request, section Section, opts Options) (any, []Issue, error)
}

// Normalizer is implemented by schemas that clean up decoded input (trimming,
// case folding) before the validate tags run.
type Normalizer interface {
	Normalize()
}

// Refiner is implemented by schemas with cross-field rules. Refine runs only when
// the field-level tags passed.
type Refiner interface {
	Refine() []Issue
}

type parsedKey struct{ section Section }

type sectionResult struct {
	value  any
	issues []Issue
	err    error
}

// Validate returns middleware that enforces rules before calling next.
func Validate(rules Rules) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			results := make([]sectionResult, len(sectionOrder))

			var g errgroup.Group
			for i, section := range sectionOrder {
				rule, ok := rules[section]
				if !ok || rule.Schema == nil {
					continue
				}
				g.Go(func() error {
					value, issues, err := rule.Schema.parse(w, r, section, rule.Options)
					results[i] = sectionResult{value: value, issues: issues, err: err}
					return nil
				})
			}
			_ = g.Wait()

			var issues []Issue
			for i, res := range results {
				if res.err != nil {
					httpx.RespondError(w, r, rules.logger(sectionOrder[i]), res.err)
					return
				}
				issues = append(issues, res.issues...)
			}
			if len(issues) > 0 {
				httpx.FailWithDetails(w, http.StatusUnprocessableEntity, FailureMessage, issues)
				return
			}

			ctx := r.Context()
			for i, section := range sectionOrder {
				if _, ok := rules[section]; ok {
					ctx = context.WithValue(ctx, parsedKey{section}, results[i].value)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (rules Rules) logger(section Section) *slog.Logger {
	if l := rules[section].Options.Logger; l != nil {
		return l
	}
	return slog.Default()
}

// Wrap applies rules to a single handler.
func Wrap(rules Rules, h http.HandlerFunc) http.Handler {
	return Validate(rules)(h)
}

// Parsed returns the validated value of a section. It returns the zero value when the
// section was not validated as T.
func Parsed[T any](r *http.Request, section Section) T {
	v, _ := Lookup[T](r.Context(), section)
	return v
}

// Lookup is Parsed with an explicit presence flag.
func Lookup[T any](ctx context.Context, section Section) (T, bool) {
	v, ok := ctx.Value(parsedKey{section}).(T)
	return v, ok
}
