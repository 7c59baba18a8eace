package audit

import "github.com/rs/zerolog"

// Emitter records Events. The zerolog-backed LogEmitter is the only
// implementation the core ships that records events (NopEmitter discards
// them); an embedding process can satisfy this interface itself to forward
// events into its own audit store.
type Emitter interface {
	Emit(e Event)
}

// LogEmitter writes each Event as a single structured log line, with every
// field logged categorically so no PHI reaches the log stream.
type LogEmitter struct {
	log zerolog.Logger
}

func NewLogEmitter(log zerolog.Logger) *LogEmitter {
	return &LogEmitter{log: log.With().Str("component", "audit").Logger()}
}

func (e *LogEmitter) Emit(evt Event) {
	logEvt := e.log.Info()
	if evt.OutcomeSeverity == OutcomeError {
		logEvt = e.log.Error()
	} else if evt.OutcomeSeverity == OutcomeWarning || evt.OutcomeSeverity == OutcomeDegraded {
		logEvt = e.log.Warn()
	}

	logEvt = logEvt.
		Str("event_kind", string(evt.Kind)).
		Time("timestamp", evt.Timestamp).
		Str("correlation_token", evt.CorrelationToken).
		Str("outcome_severity", string(evt.OutcomeSeverity))

	for kind, count := range evt.ResourceKindCounts {
		logEvt = logEvt.Int("count_"+kind, count)
	}
	if evt.Detail != "" {
		logEvt = logEvt.Str("detail", evt.Detail)
	}
	logEvt.Msg("pipeline event")
}

// NopEmitter discards every event; useful for tests and for callers that
// have not yet wired a real audit sink.
type NopEmitter struct{}

func (NopEmitter) Emit(Event) {}
