package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/stackwright/pkg/assembly"
	"github.com/matzehuels/stackwright/pkg/cache"
	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/geometry"
	"github.com/matzehuels/stackwright/pkg/render"
)

// Cache lifetimes for derived outputs.
const (
	TTLSnapshot = 24 * time.Hour
	TTLExport   = 7 * 24 * time.Hour
)

// =============================================================================
// Persistence
// =============================================================================

// Load restores a persisted instance and starts it.
func (r *Runner) Load(ctx context.Context, partName, instance string) (*assembly.Assembly, error) {
	if r.Store == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "no state store configured")
	}
	st, err := r.Store.Load(ctx, partName, instance)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("Loaded state", "part", partName, "instance", instance, "variant", st.Variant)
	return r.Build(BuildOptions{Part: partName, State: &st, Instance: instance})
}

// Save persists the current state of a.
func (r *Runner) Save(ctx context.Context, instance string, a *assembly.Assembly) error {
	if r.Store == nil {
		return errors.New(errors.ErrCodeUnsupported, "no state store configured")
	}
	st := a.State()
	if err := r.Store.Save(ctx, instance, st); err != nil {
		return err
	}
	r.Logger.Debug("Saved state", "part", st.Part, "instance", instance)
	return nil
}

// =============================================================================
// Derived outputs
// =============================================================================

// stateHash keys derived outputs by persisted state, catalog contents and the
// part config a was built from. It returns "" when either could not be hashed.
func (r *Runner) stateHash(a *assembly.Assembly) string {
	fp := r.Fingerprint()
	if fp == "" {
		return ""
	}
	cfg, err := json.Marshal(a.Config())
	if err != nil {
		r.Logger.Warn("Could not hash part config, caching disabled", "part", a.Config().Name, "err", err)
		return ""
	}
	return cache.Hash([]byte(a.State().Hash() + ":" + fp + ":" + cache.Hash(cfg)))
}

// Inspect returns the snapshot of a, using the cache when an identical state
// was inspected before.
func (r *Runner) Inspect(ctx context.Context, a *assembly.Assembly) (assembly.Snapshot, bool, error) {
	h := r.stateHash(a)
	key := r.Keyer.SnapshotKey(h)
	if h != "" {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var snap assembly.Snapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				return snap, true, nil
			}
		}
	}

	snap := a.Snapshot()
	if h != "" {
		if data, err := json.Marshal(snap); err == nil {
			_ = r.Cache.Set(ctx, key, data, TTLSnapshot)
		}
	}
	return snap, false, nil
}

// ExportSTL tessellates a to binary STL. Cells below 8 use the configured
// resolution.
func (r *Runner) ExportSTL(ctx context.Context, a *assembly.Assembly, cells int) ([]byte, bool, error) {
	if cells < 8 {
		cells = r.Settings.Export.Cells
	}
	return r.cached(ctx, a, cache.ExportKeyOpts{Format: "stl", Cells: cells}, func() ([]byte, error) {
		start := time.Now()
		var buf bytes.Buffer
		n, err := geometry.WriteSTL(&buf, a, cells)
		if err != nil {
			return nil, err
		}
		r.Logger.Info("Tessellated part", "part", a.Config().Name, "triangles", n, "cells", cells, "duration", time.Since(start))
		return buf.Bytes(), nil
	})
}

// ExportGraph draws the option graph of a.
func (r *Runner) ExportGraph(ctx context.Context, a *assembly.Assembly, f render.Format, opts render.Options) ([]byte, bool, error) {
	key := cache.ExportKeyOpts{Format: "graph-" + string(f)}
	if opts.Detailed {
		key.Format += "-detailed"
	}
	if opts.Horizontal {
		key.Format += "-lr"
	}
	return r.cached(ctx, a, key, func() ([]byte, error) {
		return render.Render(ctx, render.FromAssembly(a), f, opts)
	})
}

func (r *Runner) cached(ctx context.Context, a *assembly.Assembly, opts cache.ExportKeyOpts, produce func() ([]byte, error)) ([]byte, bool, error) {
	h := r.stateHash(a)
	key := r.Keyer.ExportKey(h, opts)
	if h != "" {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			return data, true, nil
		}
	}

	data, err := produce()
	if err != nil {
		return nil, false, err
	}
	if h != "" {
		_ = r.Cache.Set(ctx, key, data, TTLExport)
	}
	return data, false, nil
}
