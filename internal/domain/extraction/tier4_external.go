package extraction

import (
	"context"

	"github.com/ehr/clinicaltext/internal/domain/entity"
)

// Inferencer is tier 4's capability: a structured-output call to an
// external probabilistic model, gated by a cost budget. Per spec.md §9
// this is isolated behind a single narrow method so test doubles are easy
// to supply and the per-request cost ceiling can be enforced before the
// call, not after.
type Inferencer interface {
	// EstimateCost returns the projected cost of calling Infer on text,
	// evaluated before the call so escalation can be refused up front.
	EstimateCost(text string) float64
	Infer(ctx context.Context, text string, requiredKinds []entity.Kind) ([]entity.Entity, error)
}
