// Package audit emits categorical, PHI-free records of pipeline activity:
// what kind of event happened, when, and with what outcome, never the
// clinical text or resource field values themselves.
package audit

import "time"

// EventKind names the stage of the pipeline an Event was emitted from.
type EventKind string

const (
	EventExtractionCompleted EventKind = "extraction_completed"
	EventBundleAssembled     EventKind = "bundle_assembled"
	EventSafetyFindingRaised EventKind = "safety_finding_raised"
	EventValidationCompleted EventKind = "validation_completed"
	EventRequestRejected     EventKind = "request_rejected"
)

// OutcomeSeverity summarizes how an event concluded, independent of which
// Kind it was.
type OutcomeSeverity string

const (
	OutcomeSuccess  OutcomeSeverity = "success"
	OutcomeWarning  OutcomeSeverity = "warning"
	OutcomeError    OutcomeSeverity = "error"
	OutcomeDegraded OutcomeSeverity = "degraded"
)

// Event is one audit record. ResourceKindCounts and every other field are
// deliberately categorical: counts and enums, never raw extracted text,
// coded display strings, or patient identifiers.
type Event struct {
	Kind                EventKind
	Timestamp           time.Time
	CorrelationToken     string
	ResourceKindCounts  map[string]int
	OutcomeSeverity     OutcomeSeverity
	Detail              string
}
