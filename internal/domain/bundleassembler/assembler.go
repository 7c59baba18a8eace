// Package bundleassembler resolves internal and external references among
// a set of resource factory payloads, checks the reference graph for
// cycles, orders the entries by a fixed kind-priority tie-break, and emits
// the resulting FHIR R4 Bundle.
package bundleassembler

import (
	"fmt"

	"github.com/ehr/clinicaltext/internal/corerr"
	"github.com/ehr/clinicaltext/internal/domain/resourcefactory"
	"github.com/ehr/clinicaltext/internal/platform/fhir"
)

// Assembler turns a set of built payloads into an ordered Bundle.
type Assembler struct{}

func New() *Assembler { return &Assembler{} }

// Assemble resolves references, detects cycles, orders entries and emits a
// Bundle of the given type. payloads must have already been built by the
// Resource Factory Registry against a single shared RefAllocator so that
// DeclaredDependencies refer to each other's Payload.ID values.
func (a *Assembler) Assemble(payloads []resourcefactory.Payload, bundleKind string) (*fhir.Bundle, error) {
	if len(payloads) == 0 {
		return nil, corerr.ErrEmptyBundle
	}

	byID := make(map[string]resourcefactory.Payload, len(payloads))
	for _, p := range payloads {
		byID[p.ID] = p
	}

	if err := resolveReferences(payloads, byID); err != nil {
		return nil, err
	}
	if err := detectCycles(payloads, byID); err != nil {
		return nil, err
	}

	ordered := topologicalSort(payloads, byID)

	entries := make([]fhir.BundleEntry, 0, len(ordered))
	for _, p := range ordered {
		fullURL := fhir.URNReference(p.ID)
		entry := fhir.BundleEntry{
			FullURL:  fullURL,
			Resource: p.Wire,
		}
		if bundleKind == fhir.BundleTypeTransaction {
			entry.Request = &fhir.BundleRequest{
				Method: "POST",
				URL:    string(p.Kind),
			}
		}
		entries = append(entries, entry)
	}

	switch bundleKind {
	case fhir.BundleTypeTransaction:
		return fhir.NewTransactionBundle(entries), nil
	default:
		return &fhir.Bundle{ResourceType: "Bundle", Type: fhir.BundleTypeCollection, Entry: entries}, nil
	}
}

// resolveReferences checks that every declared dependency either names
// another payload in this batch or is listed among that payload's
// ExternalRefs (pre-existing server-side resources the caller vouched for).
func resolveReferences(payloads []resourcefactory.Payload, byID map[string]resourcefactory.Payload) error {
	for _, p := range payloads {
		for _, dep := range p.DeclaredDependencies {
			if _, ok := byID[dep]; ok {
				continue
			}
			if containsString(p.ExternalRefs, dep) {
				continue
			}
			return fmt.Errorf("%w: %s/%s declares dependency %q", corerr.ErrUnresolvedReference, p.Kind, p.ID, dep)
		}
	}
	return nil
}

func containsString(ss []string, target string) bool {
	for _, s := range ss {
		if s == target {
			return true
		}
	}
	return false
}
