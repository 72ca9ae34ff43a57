package model

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackwright/pkg/cfgtree"
	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/layout"
	"github.com/matzehuels/stackwright/pkg/observability"
)

// Registry holds model definitions and the layout options built from them.
// It is read-mostly and safe for concurrent use.
type Registry struct {
	src     cfgtree.Source
	layouts *layout.Catalog
	logger  *log.Logger

	mu      sync.RWMutex
	defs    map[string]*Definition
	options map[string]*LayoutOptions
	loaded  bool
}

// NewRegistry creates a registry reading `model` blocks from src and resolving
// layout names against layouts. A nil layouts catalog is replaced by one that
// only knows the built-in default layout.
func NewRegistry(src cfgtree.Source, layouts *layout.Catalog, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if layouts == nil {
		layouts = layout.NewCatalog(nil, logger)
		layouts.Add(layout.Default())
	}
	return &Registry{
		src:     src,
		layouts: layouts,
		logger:  logger,
		defs:    make(map[string]*Definition),
		options: make(map[string]*LayoutOptions),
	}
}

// Layouts returns the layout catalog used for resolution.
func (r *Registry) Layouts() *layout.Catalog { return r.layouts }

// Load clears the registry and re-reads all model blocks. Invalid models are
// logged and skipped. Cached layout options are dropped.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked()
}

// Reload is Load.
func (r *Registry) Reload() error { return r.Load() }

func (r *Registry) loadLocked() (err error) {
	start := time.Now()
	defer func() {
		observability.Catalog().OnCatalogLoad(context.Background(), "model", len(r.defs), time.Since(start), err)
	}()

	r.defs = make(map[string]*Definition)
	r.options = make(map[string]*LayoutOptions)
	if r.src == nil {
		r.loaded = true
		return nil
	}

	root, err := r.src.Root()
	if err != nil {
		r.logger.Error("Could not read model config", "err", err)
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "load models")
	}
	r.loaded = true
	for _, n := range root.Blocks("model") {
		d, derr := FromNode(n)
		if derr != nil {
			r.logger.Error("Skipping model definition", "model", n.Name(), "err", derr)
			continue
		}
		if _, dup := r.defs[d.Name]; dup {
			r.logger.Warn("Duplicate model definition, replacing", "model", d.Name)
		}
		r.defs[d.Name] = d
	}
	r.logger.Debug("Loaded model definitions", "count", len(r.defs))
	return nil
}

func (r *Registry) ensureLoaded() {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		_ = r.loadLocked()
	}
}

// Add registers a definition directly.
func (r *Registry) Add(d *Definition) {
	if d == nil {
		return
	}
	r.ensureLoaded()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[d.Name] = d
	for k := range r.options {
		if strings.HasPrefix(k, d.Name+"\x00") {
			delete(r.options, k)
		}
	}
}

// Lookup returns the named definition without logging.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.ensureLoaded()
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[name]
	return d, ok
}

// Find returns the named definition; a missing name is logged and yields nil.
func (r *Registry) Find(name string) *Definition {
	d, ok := r.Lookup(name)
	if !ok {
		r.logger.Error("Could not find model definition", "model", name)
		return nil
	}
	return d
}

// Names returns all definition names sorted.
func (r *Registry) Names() []string {
	r.ensureLoaded()
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Options returns layout options for the named model. With no layoutNames the
// model's own layout list is used. Repeated calls with the same arguments
// return the same pointer.
func (r *Registry) Options(name string, layoutNames ...string) (*LayoutOptions, error) {
	d, ok := r.Lookup(name)
	if !ok {
		return nil, errors.New(errors.ErrCodeModelNotFound, "could not find model definition: %s", name)
	}
	if len(layoutNames) == 0 {
		layoutNames = d.Layouts
	}
	key := name + "\x00" + strings.Join(layoutNames, "\x00")

	r.mu.RLock()
	o, ok := r.options[key]
	r.mu.RUnlock()
	if ok {
		return o, nil
	}

	o, err := NewLayoutOptions(d, r.layouts.FindMany(layoutNames))
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.options[key]; ok {
		return cached, nil
	}
	r.options[key] = o
	return o, nil
}

// OptionsFor resolves each name with its default layouts. Failures are logged
// and skipped; duplicates are removed.
func (r *Registry) OptionsFor(names []string, layoutNames ...string) []*LayoutOptions {
	var out []*LayoutOptions
	for _, name := range names {
		o, err := r.Options(name, layoutNames...)
		if err != nil {
			r.logger.Error("Skipping model option", "model", name, "err", err)
			observability.Engine().OnSubstitution(context.Background(), "model", name, "")
			continue
		}
		out = AppendUnique(out, o)
	}
	return out
}

// OptionsFromNodes collects options from NOSE/CORE/MOUNT style blocks. Each
// block lists `model = [...]` and may override `layouts = [...]`.
func (r *Registry) OptionsFromNodes(nodes []*cfgtree.Node) []*LayoutOptions {
	var out []*LayoutOptions
	for _, n := range nodes {
		out = AppendUnique(out, r.OptionsFor(n.Strings("model"), n.Strings("layouts")...)...)
	}
	return out
}
