// Package pkg provides the core libraries for Stackwright part composition.
//
// # Overview
//
// Stackwright builds stacked parts from three segments (nose, core, mount)
// chosen out of HCL model catalogs. When the diameter, vertical scale, core
// variant or any segment model changes, the stack is re-derived so that the
// segments stay flush, attach nodes follow, and mass, cost, volume and
// fairings are recomputed. The pkg directory is organized into four areas:
//
//  1. Catalogs - [cfgtree], [layout], [model], [recolor]
//  2. Engine - [part], [segment], [assembly]
//  3. Persistence - [state], [cache], [settings]
//  4. Outputs - [pipeline], [geometry], [render], [api]
//
// # Architecture
//
// The typical data flow:
//
//	HCL catalog files
//	         ↓
//	    [cfgtree] package (parse into a config tree)
//	         ↓
//	    [layout], [model] packages (layouts, model definitions, variant sets)
//	         ↓
//	    [assembly] package (segments, edits, recompute)
//	         ↓
//	    [pipeline] package (state restore, cached snapshots and exports)
//	         ↓
//	State documents, STL meshes, DOT/SVG option graphs, HTTP API
//
// # Quick Start
//
// Build a part from a catalog directory and change its diameter:
//
//	r, _ := pipeline.NewRunner(pipeline.Config{
//	    Source:   cfgtree.Paths("catalog"),
//	    Settings: settings.Default(),
//	})
//	a, _ := r.Build(pipeline.BuildOptions{Part: "booster"})
//	_ = a.SetField(assembly.FieldDiameter, "3.75")
//	fmt.Println(a.TotalLength(), a.ModifiedMass())
//
// # Main Packages
//
// ## Catalogs
//
// [cfgtree] - Parses HCL files into a generic node tree with typed accessors.
// Every catalog block (layout, model, part) is decoded from it.
//
// [layout] - Named multi-position layouts that place one model several times
// inside a segment.
//
// [model] - Model definitions, layout options and core variant sets, kept in
// a registry keyed by name.
//
// ## Engine
//
// [part] - The host part: attach nodes, fairings, selectable nodes and
// transforms that segments publish into.
//
// [segment] - One stack segment. Owns the model choice, texture, scaling and
// the transforms of its layout positions.
//
// [assembly] - The controller for a full three-segment part, including
// symmetry groups and the field table used by every front end.
//
// ## Persistence
//
// [state] - The persisted per-instance state, its codecs (JSON, YAML, TOML,
// msgpack) and stores (file, Redis, MongoDB).
//
// [cache] - Byte caches (file, Redis, null) and the keyer used for states,
// snapshots and exports.
//
// ## Outputs
//
// [pipeline] - Loads catalogs, restores assemblies and caches derived outputs
// by state hash and catalog fingerprint.
//
// [geometry] - Signed distance solids of the stack and binary STL export.
//
// [render] - Option graphs of a part as DOT or SVG.
//
// [api] - The HTTP interface over [pipeline].
//
// ## Utilities
//
// [errors] - Coded errors shared by all packages.
//
// [observability] - Hook registry for metrics and tracing.
//
// [buildinfo] - Version information set at build time.
package pkg
