// Package assembly drives a three-segment stacked part.
//
// An [Assembly] owns a nose, core and mount [segment.Module] on one host
// [part.Part]. It decodes the part block of a config tree, groups CORE
// options into named variant sets, and recomputes the whole stack whenever
// the diameter, vertical scale, variant or a segment model changes.
//
// # Lifecycle
//
// Initialize runs once and performs the first layout pass without moving
// attached parts. Start finishes setup. From then on every edit made through
// [Assembly.SetField] is mirrored to the symmetry group and followed by
// [Assembly.UpdateAll] on each member:
//
//	a := assembly.New(p, cfg, registry, logger)
//	if err := a.Initialize(); err != nil { ... }
//	a.Start()
//	a.SetField(assembly.FieldDiameter, "5")
//
// The recompute order is fixed: positions, mass and dimensions, attach nodes,
// fairings, available variants, drag refresh, resource volume.
package assembly
