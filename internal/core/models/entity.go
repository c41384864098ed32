package models

import "fmt"

// EntityID is assigned by the world authority and never reused while the entity is live.
type EntityID int64

// RequestID correlates a command response with the request that caused it.
type RequestID uint64

// ComponentID names a replicated component type.
type ComponentID string

// CommandID names a command exposed by a component.
type CommandID string

const (
	ComponentPosition          ComponentID = "position"
	ComponentPersistence       ComponentID = "persistence"
	ComponentIdentification    ComponentID = "identification"
	ComponentResourceInventory ComponentID = "resource_inventory"
)

const (
	CommandGenerateResource CommandID = "harvestable.generate_resource"
	CommandExtractResource  CommandID = "harvestable.extract_resource"
)

func (id EntityID) String() string {
	return fmt.Sprintf("entity:%d", int64(id))
}

// Coordinates is a point in world space.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Position component.
type Position struct {
	Coords Coordinates `json:"coords"`
}

// Persistence is a flag component; its presence asks the authority to keep the entity
// across snapshots.
type Persistence struct{}

// Identification links an entity to its document in the persistent store.
// Once assigned it never changes.
type Identification struct {
	EntityDatabaseID string `json:"entity_database_id"`
}
