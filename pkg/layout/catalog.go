package layout

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackwright/pkg/cfgtree"
	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/observability"
)

// Catalog is a name-keyed registry of layouts loaded from a config source.
// It is safe for concurrent use.
type Catalog struct {
	src    cfgtree.Source
	logger *log.Logger

	mu      sync.RWMutex
	layouts map[string]*Layout
	loaded  bool
}

// NewCatalog creates an empty catalog reading `layout` blocks from src.
// A nil src yields a catalog holding only what is registered with [Catalog.Add].
// A nil logger discards output.
func NewCatalog(src cfgtree.Source, logger *log.Logger) *Catalog {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Catalog{
		src:     src,
		logger:  logger,
		layouts: make(map[string]*Layout),
	}
}

// Load clears the catalog and repopulates it from the source. Duplicate names
// are logged and the last definition wins. Invalid names are logged and skipped.
func (c *Catalog) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked()
}

// Reload is Load; it exists to make the explicit lifecycle read clearly at call sites.
func (c *Catalog) Reload() error { return c.Load() }

func (c *Catalog) loadLocked() (err error) {
	start := time.Now()
	c.logger.Info("Loading model layouts")
	defer func() {
		observability.Catalog().OnCatalogLoad(context.Background(), "layout", len(c.layouts), time.Since(start), err)
	}()

	c.layouts = make(map[string]*Layout)
	if c.src == nil {
		c.loaded = true
		return nil
	}

	root, err := c.src.Root()
	if err != nil {
		c.logger.Error("Could not read layout config", "err", err)
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "load layouts")
	}
	c.loaded = true
	for _, n := range root.Blocks("layout") {
		l := FromNode(n)
		if verr := errors.ValidateName("layout", l.Name); verr != nil {
			c.logger.Error("Skipping layout", "err", verr)
			continue
		}
		if _, dup := c.layouts[l.Name]; dup {
			c.logger.Warn("Duplicate layout definition, replacing", "layout", l.Name)
		}
		c.layouts[l.Name] = l
	}
	c.logger.Info("Finished loading model layouts", "count", len(c.layouts))
	return nil
}

// Add registers a layout directly, replacing any entry with the same name.
func (c *Catalog) Add(l *Layout) {
	if l == nil {
		return
	}
	c.ensureLoaded()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layouts[l.Name] = l
}

func (c *Catalog) ensureLoaded() {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		_ = c.loadLocked()
	}
}

// Find returns the named layout, loading the catalog on first use. A missing
// name is logged at error level and yields nil.
func (c *Catalog) Find(name string) *Layout {
	c.ensureLoaded()
	c.mu.RLock()
	l, ok := c.layouts[name]
	c.mu.RUnlock()
	if !ok {
		c.logger.Error("Could not find layout by name", "layout", name)
		observability.Engine().OnSubstitution(context.Background(), "layout", name, "")
		return nil
	}
	return l
}

// Lookup is Find without logging, reporting presence as a bool.
func (c *Catalog) Lookup(name string) (*Layout, bool) {
	c.ensureLoaded()
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.layouts[name]
	return l, ok
}

// FindMany looks up names in order. Missing names are logged and skipped, so
// the result may be shorter than names.
func (c *Catalog) FindMany(names []string) []*Layout {
	out := make([]*Layout, 0, len(names))
	for _, name := range names {
		if l := c.Find(name); l != nil {
			out = append(out, l)
		}
	}
	return out
}

// Names returns all layout names in sorted order.
func (c *Catalog) Names() []string {
	c.ensureLoaded()
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.layouts))
	for name := range c.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of loaded layouts.
func (c *Catalog) Len() int {
	c.ensureLoaded()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.layouts)
}
