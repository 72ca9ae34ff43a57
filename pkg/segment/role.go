package segment

import (
	"github.com/matzehuels/stackwright/pkg/model"
)

// Role identifies a stack slot.
type Role int

const (
	Nose Role = iota
	Core
	Mount
)

// Roles lists all slots top to bottom.
var Roles = []Role{Nose, Core, Mount}

func (r Role) String() string {
	switch r {
	case Nose:
		return "nose"
	case Mount:
		return "mount"
	default:
		return "core"
	}
}

// Section returns the recolor section name.
func (r Role) Section() string {
	switch r {
	case Nose:
		return "Nose"
	case Mount:
		return "Mount"
	default:
		return "Core"
	}
}

// Block returns the config block type listing this slot's models.
func (r Role) Block() string {
	switch r {
	case Nose:
		return "NOSE"
	case Mount:
		return "MOUNT"
	default:
		return "CORE"
	}
}

// Root returns the name of the slot's root transform.
func (r Role) Root() string { return "ModularPart-" + r.Block() }

// Slot returns the orientation models in this slot are expected to have.
func (r Role) Slot() model.Orientation {
	switch r {
	case Nose:
		return model.Top
	case Mount:
		return model.Bottom
	default:
		return model.Central
	}
}

// ParseRole accepts a role name or its section/block spelling.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "nose", "Nose", "NOSE":
		return Nose, true
	case "core", "Core", "CORE":
		return Core, true
	case "mount", "Mount", "MOUNT":
		return Mount, true
	}
	return Core, false
}
