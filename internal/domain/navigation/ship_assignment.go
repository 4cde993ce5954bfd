package navigation

import (
	"time"

	"github.com/andrescamacho/fleetd/internal/domain/shared"
)

// ShipAssignment is an exclusive lease of a ship to a container. At most one
// active assignment may exist per (player, ship); acquiring against a live
// lease fails with ShipAssignmentError naming the holder.
type ShipAssignment struct {
	ShipSymbol    string
	ContainerID   string
	PlayerID      shared.PlayerID
	Kind          string
	AssignedAt    time.Time
	ReleasedAt    *time.Time
	ReleaseReason string
}

// NewShipAssignment creates an active assignment. Kind records the workflow
// category holding the lease (the container type).
func NewShipAssignment(shipSymbol, containerID string, playerID shared.PlayerID, kind string, now time.Time) *ShipAssignment {
	return &ShipAssignment{
		ShipSymbol:  shipSymbol,
		ContainerID: containerID,
		PlayerID:    playerID,
		Kind:        kind,
		AssignedAt:  now,
	}
}

// IsActive reports whether the lease is still held
func (a *ShipAssignment) IsActive() bool {
	return a.ReleasedAt == nil
}

// Released returns a released copy of the assignment. Releasing an already
// released assignment keeps the original release, so repeated releases are
// harmless.
func (a *ShipAssignment) Released(reason string, now time.Time) *ShipAssignment {
	if a.ReleasedAt != nil {
		return a
	}
	released := *a
	released.ReleasedAt = &now
	released.ReleaseReason = reason
	return &released
}

// HeldBy reports whether the given container holds this active lease
func (a *ShipAssignment) HeldBy(containerID string) bool {
	return a.IsActive() && a.ContainerID == containerID
}
