package resourcefactory

import "github.com/google/uuid"

// RefAllocator generates internal identifiers and remembers the mapping
// from a logical entity key to its allocated identifier, scoped to a
// single request. It is never shared across requests (spec.md §5): each
// pipeline invocation constructs a fresh allocator.
type RefAllocator struct {
	byLogicalKey map[string]string
}

func NewRefAllocator() *RefAllocator {
	return &RefAllocator{byLogicalKey: make(map[string]string)}
}

// Allocate returns a fresh UUID for logicalKey, or the identifier already
// allocated for that key within this request if one exists, so multiple
// factories referencing "the subject" or "the same medication mention"
// resolve to the same payload identifier.
func (a *RefAllocator) Allocate(logicalKey string) string {
	if id, ok := a.byLogicalKey[logicalKey]; ok {
		return id
	}
	id := uuid.NewString()
	a.byLogicalKey[logicalKey] = id
	return id
}

// Lookup returns the identifier previously allocated for logicalKey, if
// any, without allocating a new one.
func (a *RefAllocator) Lookup(logicalKey string) (string, bool) {
	id, ok := a.byLogicalKey[logicalKey]
	return id, ok
}
