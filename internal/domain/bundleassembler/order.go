package bundleassembler

import (
	"sort"

	"github.com/ehr/clinicaltext/internal/domain/resourcefactory"
)

func priorityRank(kind resourcefactory.Kind) int {
	for i, k := range orderedPriority {
		if k == kind {
			return i
		}
	}
	return len(orderedPriority)
}

// orderedPriority is the fixed tie-break order for entries with no
// remaining dependency relationship: resources more central to the
// clinical narrative sort first, everything else falls back to
// alphabetical order by kind.
var orderedPriority = []resourcefactory.Kind{
	resourcefactory.KindPatient,
	resourcefactory.KindPractitioner,
	resourcefactory.KindLocation,
	resourcefactory.KindEncounter,
	resourcefactory.KindCondition,
	resourcefactory.KindAllergyIntolerance,
	resourcefactory.KindMedication,
	resourcefactory.KindDevice,
	resourcefactory.KindMedicationRequest,
	resourcefactory.KindMedicationAdmin,
	resourcefactory.KindDeviceUseStatement,
	resourcefactory.KindObservation,
	resourcefactory.KindDiagnosticReport,
	resourcefactory.KindCarePlan,
	resourcefactory.KindComposition,
}

// topologicalSort orders payloads so that every dependency appears before
// its dependents, using Kahn's algorithm; ties among entries with no
// remaining dependency relationship are broken by orderedPriority, then
// alphabetically by kind, then by id for full determinism.
func topologicalSort(payloads []resourcefactory.Payload, byID map[string]resourcefactory.Payload) []resourcefactory.Payload {
	inDegree := make(map[string]int, len(payloads))
	dependents := make(map[string][]string, len(payloads))

	for _, p := range payloads {
		if _, ok := inDegree[p.ID]; !ok {
			inDegree[p.ID] = 0
		}
		for _, dep := range p.DeclaredDependencies {
			if _, isInternal := byID[dep]; !isInternal {
				continue
			}
			inDegree[p.ID]++
			dependents[dep] = append(dependents[dep], p.ID)
		}
	}

	ready := make([]string, 0, len(payloads))
	for _, p := range payloads {
		if inDegree[p.ID] == 0 {
			ready = append(ready, p.ID)
		}
	}

	var out []resourcefactory.Payload
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			return lessByPriority(byID[ready[i]], byID[ready[j]])
		})
		next := ready[0]
		ready = ready[1:]
		out = append(out, byID[next])

		for _, dependent := range dependents[next] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	return out
}

func lessByPriority(a, b resourcefactory.Payload) bool {
	ra, rb := priorityRank(a.Kind), priorityRank(b.Kind)
	if ra != rb {
		return ra < rb
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.ID < b.ID
}
