package part

import (
	"fmt"
	"sync"
)

// NodeChange describes what happened to an attach node.
type NodeChange int

const (
	NodeCreated NodeChange = iota
	NodeMoved
	NodeDestroyed
)

func (c NodeChange) String() string {
	switch c {
	case NodeCreated:
		return "created"
	case NodeDestroyed:
		return "destroyed"
	default:
		return "moved"
	}
}

// Events receives outbound notifications from the engine.
type Events interface {
	// MeshApplied is sent after a segment writes its transforms.
	MeshApplied(root string, models int)
	// TexturesChanged is sent after a section's texture or colors change.
	TexturesChanged(section string)
	// NodeChanged is sent for every attach node create, move or destroy.
	NodeChanged(node string, change NodeChange)
	// GeometryChanged asks the host to rebuild drag and collision data.
	GeometryChanged()
	// VolumeChanged reports the total contributed resource volume in liters.
	VolumeChanged(liters float64)
	// MassCostChanged reports the modified mass and cost totals.
	MassCostChanged(mass, cost float64)
	// FairingUpdated is sent after a fairing module is updated.
	FairingUpdated(index int, f Fairing)
	// HighlightRefresh asks the host to refresh part highlighting and menus.
	HighlightRefresh()
}

// NopEvents discards all notifications.
type NopEvents struct{}

func (NopEvents) MeshApplied(string, int)          {}
func (NopEvents) TexturesChanged(string)           {}
func (NopEvents) NodeChanged(string, NodeChange)   {}
func (NopEvents) GeometryChanged()                 {}
func (NopEvents) VolumeChanged(float64)            {}
func (NopEvents) MassCostChanged(float64, float64) {}
func (NopEvents) FairingUpdated(int, Fairing)      {}
func (NopEvents) HighlightRefresh()                {}

// Event is one recorded notification.
type Event struct {
	Kind   string  `json:"kind"`
	Target string  `json:"target,omitempty"`
	Value  float64 `json:"value,omitempty"`
	Extra  float64 `json:"extra,omitempty"`
}

func (e Event) String() string {
	if e.Target != "" {
		return fmt.Sprintf("%s(%s)", e.Kind, e.Target)
	}
	return e.Kind
}

// Recorder stores notifications in arrival order. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kinds returns the event kinds in order.
func (r *Recorder) Kinds() []string {
	evs := r.Events()
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Kind
	}
	return out
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, e := range r.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Last returns the most recent event of kind.
func (r *Recorder) Last(kind string) (Event, bool) {
	evs := r.Events()
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Kind == kind {
			return evs[i], true
		}
	}
	return Event{}, false
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

func (r *Recorder) MeshApplied(root string, models int) {
	r.add(Event{Kind: "mesh", Target: root, Value: float64(models)})
}

func (r *Recorder) TexturesChanged(section string) {
	r.add(Event{Kind: "textures", Target: section})
}

func (r *Recorder) NodeChanged(node string, change NodeChange) {
	r.add(Event{Kind: "node:" + change.String(), Target: node})
}

func (r *Recorder) GeometryChanged() { r.add(Event{Kind: "geometry"}) }

func (r *Recorder) VolumeChanged(liters float64) {
	r.add(Event{Kind: "volume", Value: liters})
}

func (r *Recorder) MassCostChanged(mass, cost float64) {
	r.add(Event{Kind: "masscost", Value: mass, Extra: cost})
}

func (r *Recorder) FairingUpdated(index int, f Fairing) {
	r.add(Event{Kind: "fairing", Target: f.Name, Value: float64(index)})
}

func (r *Recorder) HighlightRefresh() { r.add(Event{Kind: "highlight"}) }

// Multi fans notifications out to several sinks.
type Multi []Events

func (m Multi) MeshApplied(root string, models int) {
	for _, e := range m {
		e.MeshApplied(root, models)
	}
}

func (m Multi) TexturesChanged(section string) {
	for _, e := range m {
		e.TexturesChanged(section)
	}
}

func (m Multi) NodeChanged(node string, change NodeChange) {
	for _, e := range m {
		e.NodeChanged(node, change)
	}
}

func (m Multi) GeometryChanged() {
	for _, e := range m {
		e.GeometryChanged()
	}
}

func (m Multi) VolumeChanged(liters float64) {
	for _, e := range m {
		e.VolumeChanged(liters)
	}
}

func (m Multi) MassCostChanged(mass, cost float64) {
	for _, e := range m {
		e.MassCostChanged(mass, cost)
	}
}

func (m Multi) FairingUpdated(index int, f Fairing) {
	for _, e := range m {
		e.FairingUpdated(index, f)
	}
}

func (m Multi) HighlightRefresh() {
	for _, e := range m {
		e.HighlightRefresh()
	}
}

var (
	_ Events = NopEvents{}
	_ Events = (*Recorder)(nil)
	_ Events = Multi(nil)
)
