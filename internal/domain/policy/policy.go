// Package policy holds the single ownership check applied to every
// host-scoped resource.
package policy

import (
	"github.com/google/uuid"
)

// Owned is implemented by every resource scoped to one user.
type Owned interface {
	OwnerID() uuid.UUID
}

// EnsureOwner returns the resource when actorID owns it, and notFound otherwise.
// A mismatch is reported as not found so that other tenants cannot learn which records exist.
func EnsureOwner[T Owned](actorID uuid.UUID, resource T, notFound error) (T, error) {
	var zero T
	if actorID == uuid.Nil || resource.OwnerID() != actorID {
		return zero, notFound
	}

	return resource, nil
}
