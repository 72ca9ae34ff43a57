// Package cli implements the stackwright command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackwright/pkg/assembly"
	"github.com/matzehuels/stackwright/pkg/buildinfo"
	"github.com/matzehuels/stackwright/pkg/cache"
	"github.com/matzehuels/stackwright/pkg/cfgtree"
	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/pipeline"
	"github.com/matzehuels/stackwright/pkg/settings"
	"github.com/matzehuels/stackwright/pkg/state"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName names the config, cache and data directories.
	appName = "stackwright"

	settingsFile = "settings.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	settingsPath string
	catalogPaths []string
	backend      string
	noCache      bool
	verbose      bool
}

// New creates a CLI writing logs to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. A debug level also pins the level
// against the settings file.
func (c *CLI) SetLogLevel(level log.Level) {
	c.verbose = level <= log.DebugLevel
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Stackwright composes stacked parts from catalog segments",
		Long: `Stackwright builds three-segment parts (nose, core, mount) from HCL model
catalogs, keeps the stack continuous as diameter, variant and model choices
change, and exports the result as state documents, meshes and option graphs.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.settingsPath, "settings", "", "settings file (default $XDG_CONFIG_HOME/stackwright/settings.toml)")
	pf.StringSliceVarP(&c.catalogPaths, "catalog", "c", nil, "catalog files or directories (overrides settings)")
	pf.StringVar(&c.backend, "store", "", "state store backend: none, file, redis, mongo")
	pf.BoolVar(&c.noCache, "no-cache", false, "disable the export cache")

	root.AddCommand(c.partsCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.setCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.stateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.settingsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Settings and Runner Factory
// =============================================================================

// loadSettings reads the settings file and applies flag overrides. A missing
// default settings file is not an error; a missing explicit one is.
func (c *CLI) loadSettings() (settings.Settings, error) {
	s := settings.Default()
	path := c.settingsPath
	explicit := path != ""
	if !explicit {
		if dir, err := configDir(); err == nil {
			path = filepath.Join(dir, settingsFile)
		}
	}
	if path != "" {
		loaded, err := settings.Load(path)
		switch {
		case err == nil:
			s = loaded
			c.Logger.Debug("Loaded settings", "path", path)
		case explicit || !errors.Is(err, errors.ErrCodeFileNotFound):
			return s, err
		}
	}

	if len(c.catalogPaths) > 0 {
		s.Catalog.Paths = c.catalogPaths
	}
	if c.backend != "" {
		s.Store.Backend = c.backend
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	if !c.verbose {
		c.Logger.SetLevel(s.Level())
	}
	return s, nil
}

// newRunner loads settings and opens the store, cache and catalogs.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	s, err := c.loadSettings()
	if err != nil {
		return nil, err
	}

	dataDir, err := dataDir()
	if err != nil {
		dataDir = filepath.Join(os.TempDir(), appName)
	}
	store, err := state.Open(ctx, s.Store, filepath.Join(dataDir, "states"), c.Logger)
	if err != nil {
		return nil, err
	}

	r, err := pipeline.NewRunner(pipeline.Config{
		Source:   cfgtree.Paths(s.Catalog.Paths...),
		Settings: s,
		Store:    store,
		Cache:    newCache(c.noCache),
		Logger:   c.Logger,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	return r, nil
}

func newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}

// =============================================================================
// Assembly Source Flags
// =============================================================================

// sourceFlags selects where a command's assembly comes from.
type sourceFlags struct {
	instance  string
	stateFile string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.instance, "instance", "i", "", "restore a persisted instance")
	cmd.Flags().StringVar(&f.stateFile, "state", "", "restore from a state file (json, yaml, toml, msgpack)")
	cmd.MarkFlagsMutuallyExclusive("instance", "state")
}

// build resolves the assembly named by args and flags.
func (c *CLI) build(ctx context.Context, r *pipeline.Runner, args []string, f sourceFlags) (*assembly.Assembly, error) {
	part := ""
	if len(args) > 0 {
		part = args[0]
	}
	switch {
	case f.stateFile != "":
		st, err := state.ReadFile(f.stateFile)
		if err != nil {
			return nil, err
		}
		return r.Build(pipeline.BuildOptions{Part: part, State: &st})
	case f.instance != "":
		if part == "" {
			names := r.PartNames()
			if len(names) != 1 {
				return nil, errors.New(errors.ErrCodeInvalidName, "name the part of instance %q", f.instance)
			}
			part = names[0]
		}
		return r.Load(ctx, part, f.instance)
	}
	return r.Build(pipeline.BuildOptions{Part: part})
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/stackwright/).
func cacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// configDir returns ~/.config/stackwright or $XDG_CONFIG_HOME/stackwright.
func configDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// dataDir returns ~/.local/share/stackwright or $XDG_DATA_HOME/stackwright.
func dataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}
