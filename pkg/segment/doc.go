// Package segment implements one slot of a three-segment stack.
//
// A [Module] owns the current model selection for its [Role], the scale and
// stack position computed for it, and its texture and recolor state. All
// geometry it reports is derived on demand from the selected
// [model.Definition] and the current scales, so changing the model at a fixed
// scale immediately changes height, diameters, mass, cost and volume.
//
// # Scaling
//
// The horizontal scale h comes either from a user diameter
// ([Module.SetScaleForDiameter], used by the core) or from the touching face of
// a neighbour ([Module.SetDiameterFromBelow] for the nose,
// [Module.SetDiameterFromAbove] for the mount). The vertical scale is
// h·(1+vScale) for models that support vertical scaling and h otherwise.
//
// Mass, cost and volume scale as base·h^(p−1)·v, which reduces to base·s^p for
// a uniform scale s. Each quantity has its own exponent p.
//
// # Orientation
//
// Models are authored for a slot orientation. A top model placed in the bottom
// slot (or the reverse) is inverted: its upper and lower diameters swap and
// node and fairing offsets mirror through the segment centre.
//
// # Failure Handling
//
// Selecting a name that is not among the valid options logs an error and
// falls back to the first valid option. Nothing here panics on bad input.
package segment
