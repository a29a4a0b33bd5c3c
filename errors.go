package fbas

import (
	"errors"
	"fmt"
	"strings"
)

// MalformedInputError is returned when a topology or grouping metadata does not
// conform to the expected schema. The request that produced it yields no result.
type MalformedInputError struct {
	// Source names the input that was rejected, e.g. "topology" or "metadata".
	Source string
	Err    error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed %s: %v", e.Source, e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// UnknownIdentifierError is returned when an exclusion list or grouping metadata
// names participants that the topology does not define, and the policy is Reject.
type UnknownIdentifierError struct {
	// Source names the input that referenced the identifiers.
	Source string
	IDs    []string
}

func (e *UnknownIdentifierError) Error() string {
	return fmt.Sprintf("%s references unknown identifiers: %s", e.Source, strings.Join(e.IDs, ", "))
}

// EngineFailure is returned when the analysis engine fails, panics or exceeds
// its time bound. Failed analyses are never cached.
type EngineFailure struct {
	Err error
}

func (e *EngineFailure) Error() string {
	return fmt.Sprintf("analysis engine failed: %v", e.Err)
}

func (e *EngineFailure) Unwrap() error {
	return e.Err
}

// Timeout returns true if the engine was stopped because it exceeded its time bound
// or because the caller's context was canceled.
func (e *EngineFailure) Timeout() bool {
	return errors.Is(e.Err, ErrEngineTimeout)
}

// ErrEngineTimeout is wrapped by an EngineFailure when the engine did not finish in time.
var ErrEngineTimeout = errors.New("engine did not finish in time")

// IsMalformed returns true if err is or wraps a MalformedInputError.
func IsMalformed(err error) bool {
	var e *MalformedInputError
	return errors.As(err, &e)
}

// IsUnknownIdentifier returns true if err is or wraps an UnknownIdentifierError.
func IsUnknownIdentifier(err error) bool {
	var e *UnknownIdentifierError
	return errors.As(err, &e)
}

// IsEngineFailure returns true if err is or wraps an EngineFailure.
func IsEngineFailure(err error) bool {
	var e *EngineFailure
	return errors.As(err, &e)
}
