/*
errors.go - Error types for the calculation engine

PURPOSE:
  The engine can fail in exactly two ways. Callers must be able to tell
  them apart because they map to different faults:

    ErrInvalidInput   - a physical precondition was violated (client fault)
    ErrLookupFailure  - a region or heating source has no constant (server fault)

  Both are returned synchronously and the calculation produces no partial
  result. Retrying is pointless: the engine is deterministic.

USAGE:
  res, err := engine.FullCalculation(in, constants)
  switch {
  case engine.IsClientError(err):
      // 400
  case engine.IsConfigError(err):
      // 500
  }

SEE ALSO:
  - calculation.go: FullCalculation returns these errors
  - api/handlers.go: maps them to HTTP status codes
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned when an input violates a physical
	// precondition, e.g. a thermal resistance that is zero or negative.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLookupFailure is returned when a region or heating source has no
	// entry in the constants table. This is a configuration defect.
	ErrLookupFailure = errors.New("constant lookup failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InputError describes which input was rejected and why.
type InputError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s (%g): %s", e.Field, e.Value, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// LookupError names the table and key that had no constant.
type LookupError struct {
	Table string // "heating_degree_days", "co2_intensity", ...
	Key   string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no %s constant for %q", e.Table, e.Key)
}

func (e *LookupError) Unwrap() error {
	return ErrLookupFailure
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConfigError reports whether err points at a broken constants table.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrLookupFailure)
}
