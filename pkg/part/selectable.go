package part

import (
	"github.com/go-gl/mathgl/mgl64"
)

// selectableNodeSize is the size given to nodes created by a toggle.
const selectableNodeSize = 2

// SelectableNode is a user-toggleable attach node. Enabling creates the node
// at its default position; disabling destroys it unless something is attached.
type SelectableNode struct {
	NodeName           string     `json:"node_name"`
	StartsEnabled      bool       `json:"starts_enabled"`
	Enabled            bool       `json:"enabled"`
	Initialized        bool       `json:"initialized"`
	DefaultPosition    mgl64.Vec3 `json:"default_position"`
	DefaultOrientation mgl64.Vec3 `json:"default_orientation"`
}

// AddSelectableNode registers a toggle for nodeName.
func (p *Part) AddSelectableNode(nodeName string, startsEnabled bool, pos, orient mgl64.Vec3) *SelectableNode {
	s := &SelectableNode{
		NodeName:           nodeName,
		StartsEnabled:      startsEnabled,
		DefaultPosition:    pos,
		DefaultOrientation: orient,
	}
	p.selectable = append(p.selectable, s)
	return s
}

// SelectableNodes returns all registered toggles.
func (p *Part) SelectableNodes() []*SelectableNode {
	return append([]*SelectableNode(nil), p.selectable...)
}

// StartSelectableNodes reconciles every toggle with the node list. On first
// start the toggle takes its StartsEnabled value; afterwards the persisted
// Enabled value wins. A disabled toggle whose node has an attached part is
// forced back on.
func (p *Part) StartSelectableNodes() {
	for _, s := range p.selectable {
		node := p.FindNode(s.NodeName)
		if !s.Initialized {
			s.Enabled = s.StartsEnabled
			s.Initialized = true
		}
		switch {
		case s.Enabled && node == nil:
			p.CreateNode(s.NodeName, s.DefaultPosition, s.DefaultOrientation, selectableNodeSize)
		case !s.Enabled && node != nil && node.Attached == nil:
			_ = p.DestroyNode(s.NodeName)
		case !s.Enabled && node != nil:
			s.Enabled = true
		}
	}
}

// ToggleNode flips the named toggle. It reports the new enabled state; a node
// with an attached part cannot be disabled.
func (p *Part) ToggleNode(nodeName string) bool {
	var s *SelectableNode
	for _, x := range p.selectable {
		if x.NodeName == nodeName {
			s = x
			break
		}
	}
	node := p.FindNode(nodeName)
	switch {
	case node == nil:
		p.CreateNode(nodeName, defaultPos(s), defaultOrient(s), selectableNodeSize)
		if s != nil {
			s.Enabled = true
		}
		return true
	case node.Attached == nil:
		_ = p.DestroyNode(nodeName)
		if s != nil {
			s.Enabled = false
		}
		return false
	}
	return true
}

// UpdateSelectableNodePosition sets the default position used the next time
// any toggle for nodeName creates its node.
func (p *Part) UpdateSelectableNodePosition(nodeName string, pos mgl64.Vec3) {
	for _, s := range p.selectable {
		if s.NodeName == nodeName {
			s.DefaultPosition = pos
		}
	}
}

func defaultPos(s *SelectableNode) mgl64.Vec3 {
	if s == nil {
		return mgl64.Vec3{}
	}
	return s.DefaultPosition
}

func defaultOrient(s *SelectableNode) mgl64.Vec3 {
	if s == nil {
		return mgl64.Vec3{0, -1, 0}
	}
	return s.DefaultOrientation
}
