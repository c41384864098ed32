package models

import (
	"fmt"
	"strings"
)

// ResourceType is a closed enumeration. ResourceRandom is a sentinel resolved at
// generation time and never stored in an inventory.
type ResourceType uint8

const (
	ResourceRandom ResourceType = iota
	ResourceIron
	ResourceCopper
	ResourceNickel
	ResourceCobalt
	ResourceTitanium
	ResourcePlatinum
	ResourceIce

	// ResourceTypeCount bounds the enumeration, sentinel included.
	ResourceTypeCount
)

var resourceNames = [...]string{
	ResourceRandom:   "random",
	ResourceIron:     "iron",
	ResourceCopper:   "copper",
	ResourceNickel:   "nickel",
	ResourceCobalt:   "cobalt",
	ResourceTitanium: "titanium",
	ResourcePlatinum: "platinum",
	ResourceIce:      "ice",
}

func (t ResourceType) String() string {
	if t < ResourceTypeCount {
		return resourceNames[t]
	}
	return fmt.Sprintf("resource(%d)", uint8(t))
}

func (t ResourceType) Valid() bool {
	return t < ResourceTypeCount
}

func ParseResourceType(s string) (ResourceType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range resourceNames {
		if n == name {
			return ResourceType(i), nil
		}
	}
	return ResourceRandom, fmt.Errorf("unknown resource type %q", s)
}

func (t ResourceType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid resource type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *ResourceType) UnmarshalText(text []byte) error {
	parsed, err := ParseResourceType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ResourceInfo is one inventory slot.
type ResourceInfo struct {
	DatabaseID string       `json:"database_id"`
	Type       ResourceType `json:"type"`
	Quantity   int          `json:"quantity"`
}

// ResourceInventory component: slot index to slot.
type ResourceInventory struct {
	Resources map[int]ResourceInfo `json:"resources"`
}

func (inv ResourceInventory) Clone() ResourceInventory {
	out := ResourceInventory{Resources: make(map[int]ResourceInfo, len(inv.Resources))}
	for slot, info := range inv.Resources {
		out.Resources[slot] = info
	}
	return out
}

// InventoryUpdate is the delta form of ResourceInventory sent to the authority.
// Added carries a newly created slot; QuantityDelta is applied to an existing one.
type InventoryUpdate struct {
	Slot          int           `json:"slot"`
	Added         *ResourceInfo `json:"added,omitempty"`
	QuantityDelta int           `json:"quantity_delta,omitempty"`
}

// Scanner describes the requester's scanning equipment.
type Scanner struct {
	Speciality  ResourceType `json:"speciality" yaml:"speciality"`
	Sensitivity float64      `json:"sensitivity" yaml:"sensitivity"`
	MinYield    int          `json:"min_yield" yaml:"min_yield"`
	MaxYield    int          `json:"max_yield" yaml:"max_yield"`
}
