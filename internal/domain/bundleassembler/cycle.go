package bundleassembler

import (
	"fmt"

	"github.com/ehr/clinicaltext/internal/corerr"
	"github.com/ehr/clinicaltext/internal/domain/resourcefactory"
)

type visitState int

const (
	unvisited visitState = iota
	visiting
	done
)

// detectCycles runs a depth-first search over the declared-dependency
// graph and returns a *corerr.CycleError (wrapping ErrCycleDetected) if any
// payload depends on itself, directly or transitively. External
// dependencies are never part of a cycle since they resolve outside the
// batch being assembled.
func detectCycles(payloads []resourcefactory.Payload, byID map[string]resourcefactory.Payload) error {
	state := make(map[string]visitState, len(payloads))

	var visit func(id string, stack []string) error
	visit = func(id string, stack []string) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return &corerr.CycleError{Participants: append(append([]string{}, stack...), id)}
		}
		state[id] = visiting
		p, ok := byID[id]
		if ok {
			for _, dep := range p.DeclaredDependencies {
				if _, isInternal := byID[dep]; !isInternal {
					continue
				}
				if err := visit(dep, append(stack, id)); err != nil {
					return err
				}
			}
		}
		state[id] = done
		return nil
	}

	for _, p := range payloads {
		if state[p.ID] == done {
			continue
		}
		if err := visit(p.ID, nil); err != nil {
			return fmt.Errorf("bundleassembler: %w", err)
		}
	}
	return nil
}
