// Package normalize turns raw model output into analysis candidates ready to
// be persisted, applying defaults and derived fields.
package normalize

import (
	"fmt"
	"strings"

	"github.com/tradesnap/tradesnap/internal/models"
)

// ValidationError reports model output that is missing sections required to
// build a trading plan. It is never retried and nothing is persisted.
type ValidationError struct {
	Missing []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (missing: %s)", e.Message, strings.Join(e.Missing, ", "))
}

// Candidate is an analysis that has not been persisted yet, together with
// display-only fields derived from the same response.
type Candidate struct {
	Analysis models.Analysis
	Extras   map[string]any
}

// Result is either a list of candidates or a validation failure, never both.
type Result struct {
	candidates []Candidate
	err        *ValidationError
}

// Ok wraps successfully normalized candidates.
func Ok(candidates []Candidate) Result {
	if candidates == nil {
		candidates = []Candidate{}
	}
	return Result{candidates: candidates}
}

// Invalid wraps a validation failure.
func Invalid(err *ValidationError) Result {
	return Result{err: err}
}

// Candidates returns the candidates and true, or nil and false on failure.
func (r Result) Candidates() ([]Candidate, bool) {
	if r.err != nil {
		return nil, false
	}
	return r.candidates, true
}

// Err returns the validation failure, or nil when the result is Ok.
func (r Result) Err() *ValidationError {
	return r.err
}

// Unwrap returns the result in the usual (value, error) form.
func (r Result) Unwrap() ([]Candidate, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.candidates, nil
}
