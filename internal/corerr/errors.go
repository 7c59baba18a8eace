// Package corerr defines the sentinel error taxonomy shared by every stage
// of the clinical-text-to-bundle pipeline. Callers use errors.Is/errors.As
// against these values rather than matching on message text, since message
// text is deliberately categorical and carries no patient-identifying
// substrings.
package corerr

import "errors"

var (
	// ErrInputTooLarge is returned by the extractor pre-check when the
	// input text exceeds the configured maximum length.
	ErrInputTooLarge = errors.New("input exceeds configured maximum length")

	// ErrExtractionFailed is returned when every extraction tier errored.
	ErrExtractionFailed = errors.New("all extraction tiers failed")

	// ErrUnknownResourceKind is returned by the factory registry when no
	// factory is registered for a requested kind.
	ErrUnknownResourceKind = errors.New("no factory registered for resource kind")

	// ErrInvalidInput is returned by a factory when a required field is
	// missing or malformed.
	ErrInvalidInput = errors.New("invalid input for resource factory")

	// ErrCodingUnresolvable is returned when the terminology coder found
	// no code and the field mandates a coded (not text-only) form.
	ErrCodingUnresolvable = errors.New("terminology coder could not resolve a coding")

	// ErrUnresolvedReference is returned by the bundle assembler when a
	// reference does not resolve to any entry or declared external ref.
	ErrUnresolvedReference = errors.New("reference does not resolve within bundle")

	// ErrCycleDetected is returned by the bundle assembler when the
	// reference graph of a transaction bundle is not acyclic.
	ErrCycleDetected = errors.New("reference cycle detected in transaction bundle")

	// ErrValidatorUnavailable is returned by the validation loop after the
	// external validator retries are exhausted or the circuit is open.
	ErrValidatorUnavailable = errors.New("external validator unavailable")

	// ErrBackPressureReject is returned by the admission gate when the
	// configured concurrency ceiling is already in use.
	ErrBackPressureReject = errors.New("request rejected: too many concurrent requests")

	// ErrTimeout is returned when the per-request wall-clock deadline
	// elapses.
	ErrTimeout = errors.New("request timed out")

	// ErrEmptyBundle is returned when assemble is asked to emit a
	// transaction bundle with zero entries.
	ErrEmptyBundle = errors.New("refusing to emit an empty transaction bundle")
)

// CycleError carries the participants of a detected reference cycle.
// errors.As can recover it from a wrapped ErrCycleDetected.
type CycleError struct {
	Participants []string
}

func (e *CycleError) Error() string {
	return "reference cycle detected among: " + joinComma(e.Participants)
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

func joinComma(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

// BudgetHaltError records which tier the pipeline stopped before, for
// attachment as a warning issue rather than a fatal failure.
type BudgetHaltError struct {
	Tier int
}

func (e *BudgetHaltError) Error() string {
	return "cost ceiling reached before tier escalation"
}
