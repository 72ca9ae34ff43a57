package part

// Fairing is the host-side state of one fairing module.
type Fairing struct {
	Name         string  `json:"name"`
	Enabled      bool    `json:"enabled"`
	TopY         float64 `json:"top_y"`
	BottomY      float64 `json:"bottom_y"`
	TopRadius    float64 `json:"top_radius"`
	BottomRadius float64 `json:"bottom_radius"`
}

// FairingUpdate is a partial update; nil fields are left unchanged.
type FairingUpdate struct {
	Enabled      bool
	TopY         *float64
	BottomY      *float64
	TopRadius    *float64
	BottomRadius *float64
}

// Apply merges u into f.
func (f *Fairing) Apply(u FairingUpdate) {
	f.Enabled = u.Enabled
	if u.TopY != nil {
		f.TopY = *u.TopY
	}
	if u.BottomY != nil {
		f.BottomY = *u.BottomY
	}
	if u.TopRadius != nil {
		f.TopRadius = *u.TopRadius
	}
	if u.BottomRadius != nil {
		f.BottomRadius = *u.BottomRadius
	}
}

// Float returns a pointer to v, for building updates.
func Float(v float64) *float64 { return &v }
