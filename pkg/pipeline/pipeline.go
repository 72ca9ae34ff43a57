// Package pipeline wires catalogs, part configs, state stores and exporters
// into one [Runner] shared by the CLI and the HTTP server.
//
// # Stages
//
// A request moves through up to three stages:
//
//  1. Build: decode the part block, restore persisted state, start the assembly
//  2. Inspect: take a derived-output snapshot of the assembly
//  3. Export: tessellate to STL or draw the option graph
//
// Inspect and Export results are cached under the hash of the persisted state
// combined with a fingerprint of the loaded catalogs and the decoded part
// config, so editing a catalog file or a settings override never serves stale
// output.
//
// # Usage
//
//	runner, err := pipeline.NewRunner(pipeline.Config{
//	    Source:   cfgtree.Paths("catalog"),
//	    Settings: s,
//	    Store:    store,
//	    Logger:   logger,
//	})
//	a, err := runner.Build(pipeline.BuildOptions{Part: "tank"})
//	stl, hit, err := runner.ExportSTL(ctx, a, 0)
package pipeline

import (
	"encoding/json"
	"io"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackwright/pkg/assembly"
	"github.com/matzehuels/stackwright/pkg/cache"
	"github.com/matzehuels/stackwright/pkg/cfgtree"
	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/geometry"
	"github.com/matzehuels/stackwright/pkg/layout"
	"github.com/matzehuels/stackwright/pkg/model"
	"github.com/matzehuels/stackwright/pkg/part"
	"github.com/matzehuels/stackwright/pkg/settings"
	"github.com/matzehuels/stackwright/pkg/state"
)

// Config holds the runner's collaborators. Only Source is required.
type Config struct {
	// Source yields layouts, models and part blocks.
	Source cfgtree.Source

	Settings settings.Settings

	// Store persists assembly state. Nil disables Load and Save.
	Store state.Store

	// Cache holds derived outputs. Nil disables caching.
	Cache cache.Cache
	Keyer cache.Keyer

	Logger *log.Logger
}

// Runner builds assemblies from a loaded catalog. It is safe for concurrent
// use; the assemblies it returns are not.
type Runner struct {
	Registry *model.Registry
	Layouts  *layout.Catalog
	Settings settings.Settings
	Store    state.Store
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger

	src cfgtree.Source

	mu          sync.RWMutex
	root        *cfgtree.Node
	fingerprint string
}

// NewRunner creates a runner and loads its catalogs.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Source == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "pipeline: no config source")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	c := cfg.Cache
	if c == nil {
		c = cache.NewNullCache()
	}
	keyer := cfg.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if cfg.Settings.Export.Cells <= 0 {
		cfg.Settings.Export.Cells = geometry.DefaultCells
	}

	layouts := layout.NewCatalog(cfg.Source, logger)
	r := &Runner{
		Registry: model.NewRegistry(cfg.Source, layouts, logger),
		Layouts:  layouts,
		Settings: cfg.Settings,
		Store:    cfg.Store,
		Cache:    c,
		Keyer:    keyer,
		Logger:   logger,
		src:      cfg.Source,
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads every catalog and part block from the source.
func (r *Runner) Reload() error {
	root, err := r.src.Root()
	if err != nil {
		return err
	}
	if err := r.Layouts.Load(); err != nil {
		return err
	}
	if err := r.Registry.Load(); err != nil {
		return err
	}

	fp := r.computeFingerprint(root)
	r.mu.Lock()
	r.root = root
	r.fingerprint = fp
	r.mu.Unlock()

	r.Logger.Info("Loaded catalog",
		"layouts", r.Layouts.Len(),
		"models", len(r.Registry.Names()),
		"parts", len(assembly.PartNames(root)))
	return nil
}

// computeFingerprint digests every loaded layout, model definition and part
// block.
func (r *Runner) computeFingerprint(root *cfgtree.Node) string {
	type entry struct {
		Layouts []*layout.Layout
		Models  []*model.Definition
		Parts   []*cfgtree.Node
	}
	e := entry{Parts: root.Blocks("part")}
	for _, name := range r.Layouts.Names() {
		e.Layouts = append(e.Layouts, r.Layouts.Find(name))
	}
	for _, name := range r.Registry.Names() {
		e.Models = append(e.Models, r.Registry.Find(name))
	}
	data, err := json.Marshal(e)
	if err != nil {
		r.Logger.Warn("Could not fingerprint catalog, caching disabled", "err", err)
		return ""
	}
	return cache.Hash(data)
}

// Fingerprint returns the digest of the currently loaded catalog.
func (r *Runner) Fingerprint() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fingerprint
}

// PartNames returns the part blocks available in the source, sorted.
func (r *Runner) PartNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := assembly.PartNames(r.root)
	sort.Strings(names)
	return names
}

// PartConfig decodes one part block. An empty name selects the only part.
func (r *Runner) PartConfig(name string) (assembly.Config, error) {
	r.mu.RLock()
	root := r.root
	r.mu.RUnlock()

	cfg, err := assembly.LoadConfig(root, name)
	if err != nil {
		return cfg, err
	}
	if r.Settings.PersistRecolor {
		cfg.PersistRecolor = true
	}
	if r.Settings.MinNodeSize > cfg.MinNodeSize {
		cfg.MinNodeSize = r.Settings.MinNodeSize
	}
	return cfg, nil
}

// BuildOptions selects what Build constructs.
type BuildOptions struct {
	// Part names the part block. Empty uses State.Part, then the only part.
	Part string

	// State, when set, is restored before the first layout pass.
	State *state.State

	// Events receives host notifications; nil discards them.
	Events part.Events

	// Instance names the host part; empty uses the part name.
	Instance string
}

// Build creates and starts an assembly.
func (r *Runner) Build(opts BuildOptions) (*assembly.Assembly, error) {
	name := opts.Part
	if name == "" && opts.State != nil {
		name = opts.State.Part
	}
	cfg, err := r.PartConfig(name)
	if err != nil {
		return nil, err
	}

	instance := opts.Instance
	if instance == "" {
		instance = cfg.Name
	}
	a := assembly.New(part.New(instance, opts.Events), cfg, r.Registry, r.Logger)
	if opts.State != nil {
		if opts.State.Part != "" && opts.State.Part != cfg.Name {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "state belongs to part %q, not %q", opts.State.Part, cfg.Name)
		}
		a.Restore(*opts.State)
	}
	if err := a.Start(); err != nil {
		return nil, err
	}
	return a, nil
}

// Close releases the store and cache.
func (r *Runner) Close() error {
	var first error
	if r.Store != nil {
		first = r.Store.Close()
	}
	if err := r.Cache.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
