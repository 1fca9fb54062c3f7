/*
errors.go - Error taxonomy for the simulator

PURPOSE:
  All validation failures surface before the month loop starts. Once a
  Bundle and a SimulationInput are accepted, every step is total and the
  engine never returns a partial result.

ERROR CATEGORIES:
  1. Configuration errors - rule tables that would promote incoherently
  2. Input errors - an ordering hypothesis outside its domain

USAGE:
    result, err := engine.Run(input)
    if errors.Is(err, loyalty.ErrInvalidInput) {
        // tell the caller which field is wrong
    }

  Every violation is reported; multiple violations are joined with
  errors.Join, so errors.As finds the first *ConfigError / *InputError and
  errors.Is matches the sentinel.

SEE ALSO:
  - config.go: Bundle validation
  - engine.go: Input validation
*/
package loyalty

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidConfiguration is returned when a rule table is not strictly
	// increasing in tier order, or holds a negative threshold or bonus.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidInput is returned when the ordering hypothesis is out of range.
	ErrInvalidInput = errors.New("invalid simulation input")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigError describes one rule-table violation.
type ConfigError struct {
	Field  string // e.g. "volume_criteria[2].min_total_sales"
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// InputError describes one out-of-range input field.
type InputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid simulation input: %s=%s: %s", e.Field, e.Value, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller data.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrInvalidInput)
}

// Violations flattens a joined validation error into its individual
// *ConfigError / *InputError parts, in the order they were found.
func Violations(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, Violations(e)...)
		}
		return out
	}
	return []error{err}
}
