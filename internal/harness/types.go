package harness

import (
	"github.com/roach88/napytau/internal/core"
)

// Result is the outcome of running one scenario.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Errors lists the failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// RunID is the id the computation was recorded under, empty when the
	// computation failed.
	RunID string `json:"run_id,omitempty"`

	// Lifetime is nil when the computation failed.
	Lifetime *core.Lifetime `json:"-"`

	// Err is the computation error, if any.
	Err error `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
