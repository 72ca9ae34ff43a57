package part

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/matzehuels/stackwright/pkg/errors"
)

// Child is a part attached to this one. Position is in this part's space.
type Child struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Position mgl64.Vec3 `json:"position"`
}

// AttachNode is a named attachment point.
type AttachNode struct {
	Name        string     `json:"name"`
	Position    mgl64.Vec3 `json:"position"`
	Orientation mgl64.Vec3 `json:"orientation"`
	Size        int        `json:"size"`
	Attached    *Child     `json:"attached,omitempty"`
}

// Transform is one node of the model hierarchy.
type Transform struct {
	Name     string     `json:"name"`
	Parent   string     `json:"parent,omitempty"`
	Model    string     `json:"model,omitempty"`
	Position mgl64.Vec3 `json:"position"`
	Scale    mgl64.Vec3 `json:"scale"`
	Rotation mgl64.Vec3 `json:"rotation"`
}

// Part is an in-memory host part.
type Part struct {
	ID   uuid.UUID
	Name string

	Events Events

	nodes           []*AttachNode
	surface         *AttachNode
	surfaceChildren []*Child
	transforms      map[string]*Transform
	selectable      []*SelectableNode
	fairings        []*Fairing
}

// New creates a part with a fresh ID and a surface node at the origin.
// A nil events sink is replaced with [NopEvents].
func New(name string, events Events) *Part {
	if events == nil {
		events = NopEvents{}
	}
	return &Part{
		ID:         uuid.New(),
		Name:       name,
		Events:     events,
		surface:    &AttachNode{Name: "srfAttach", Orientation: mgl64.Vec3{1, 0, 0}, Size: 1},
		transforms: make(map[string]*Transform),
	}
}

// =============================================================================
// Attach nodes
// =============================================================================

// FindNode returns the named stack node, or nil.
func (p *Part) FindNode(name string) *AttachNode {
	for _, n := range p.nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// Nodes returns the stack nodes in creation order.
func (p *Part) Nodes() []*AttachNode {
	return append([]*AttachNode(nil), p.nodes...)
}

// CreateNode adds a node, or returns the existing one with that name.
func (p *Part) CreateNode(name string, pos, orient mgl64.Vec3, size int) *AttachNode {
	if n := p.FindNode(name); n != nil {
		return n
	}
	n := &AttachNode{Name: name, Position: pos, Orientation: orient, Size: size}
	p.nodes = append(p.nodes, n)
	p.Events.NodeChanged(name, NodeCreated)
	return n
}

// DestroyNode removes an unattached node. A node with an attached child is
// kept and an INVALID_SELECTION error returned.
func (p *Part) DestroyNode(name string) error {
	for i, n := range p.nodes {
		if n.Name != name {
			continue
		}
		if n.Attached != nil {
			return errors.New(errors.ErrCodeInvalidSelection, "node %s has an attached part", name)
		}
		p.nodes = append(p.nodes[:i], p.nodes[i+1:]...)
		p.Events.NodeChanged(name, NodeDestroyed)
		return nil
	}
	return errors.New(errors.ErrCodeNotFound, "no attach node %s", name)
}

// MoveNode repositions n. When userInitiated is true an attached child moves
// by the same delta; otherwise the child is left where it is.
func (p *Part) MoveNode(n *AttachNode, pos, orient mgl64.Vec3, size int, userInitiated bool) {
	delta := pos.Sub(n.Position)
	n.Position = pos
	n.Orientation = orient
	n.Size = size
	if userInitiated && n.Attached != nil {
		n.Attached.Position = n.Attached.Position.Add(delta)
	}
	p.Events.NodeChanged(n.Name, NodeMoved)
}

// Attach connects child to the named node.
func (p *Part) Attach(node string, child *Child) error {
	n := p.FindNode(node)
	if n == nil {
		return errors.New(errors.ErrCodeNotFound, "no attach node %s", node)
	}
	if n.Attached != nil {
		return errors.New(errors.ErrCodeInvalidSelection, "node %s already occupied by %s", node, n.Attached.Name)
	}
	n.Attached = child
	return nil
}

// Detach removes and returns whatever is attached at node.
func (p *Part) Detach(node string) *Child {
	n := p.FindNode(node)
	if n == nil {
		return nil
	}
	c := n.Attached
	n.Attached = nil
	return c
}

// SurfaceNode returns the surface-attachment node.
func (p *Part) SurfaceNode() *AttachNode { return p.surface }

// AttachSurface surface-attaches child at its current position.
func (p *Part) AttachSurface(child *Child) {
	p.surfaceChildren = append(p.surfaceChildren, child)
}

// SurfaceChildren returns the surface-attached children.
func (p *Part) SurfaceChildren() []*Child {
	return append([]*Child(nil), p.surfaceChildren...)
}

// =============================================================================
// Transforms
// =============================================================================

// RootTransform recreates the named root transform, dropping any children
// previously parented to it.
func (p *Part) RootTransform(name string) *Transform {
	p.removeSubtree(name)
	t := &Transform{Name: name, Scale: mgl64.Vec3{1, 1, 1}}
	p.transforms[name] = t
	return t
}

func (p *Part) removeSubtree(name string) {
	if _, ok := p.transforms[name]; !ok {
		return
	}
	delete(p.transforms, name)
	for childName, t := range p.transforms {
		if t.Parent == name {
			p.removeSubtree(childName)
		}
	}
}

// SetTransform inserts or replaces a transform.
func (p *Part) SetTransform(t *Transform) {
	p.transforms[t.Name] = t
}

// Transform returns the named transform, or nil.
func (p *Part) Transform(name string) *Transform {
	return p.transforms[name]
}

// Children returns the transforms parented to name, sorted by name.
func (p *Part) Children(name string) []*Transform {
	var out []*Transform
	for _, t := range p.transforms {
		if t.Parent == name {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ClearChildren removes every transform below name, keeping name itself.
func (p *Part) ClearChildren(name string) {
	for _, c := range p.Children(name) {
		p.removeSubtree(c.Name)
	}
}

// Transforms returns all transforms sorted by name.
func (p *Part) Transforms() []*Transform {
	out := make([]*Transform, 0, len(p.transforms))
	for _, t := range p.transforms {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// =============================================================================
// Fairings
// =============================================================================

// AddFairing appends a fairing module and returns its index.
func (p *Part) AddFairing(name string) int {
	p.fairings = append(p.fairings, &Fairing{Name: name})
	return len(p.fairings) - 1
}

// Fairing returns the fairing at index, or nil when out of range.
func (p *Part) Fairing(index int) *Fairing {
	if index < 0 || index >= len(p.fairings) {
		return nil
	}
	return p.fairings[index]
}

// Fairings returns all fairing modules.
func (p *Part) Fairings() []*Fairing {
	return append([]*Fairing(nil), p.fairings...)
}
