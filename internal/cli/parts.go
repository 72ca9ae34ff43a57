package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackwright/pkg/assembly"
	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/pipeline"
)

// partsCommand lists the parts defined by the loaded catalogs.
func (c *CLI) partsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parts",
		Short: "List parts defined by the catalogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.newRunner(cmd.Context())
			if err != nil {
				return err
			}
			defer r.Close()

			t := newTable("part", "variants", "diameter", "default length")
			for _, name := range r.PartNames() {
				a, err := r.Build(pipeline.BuildOptions{Part: name})
				if err != nil {
					c.Logger.Warn("Skipping part", "part", name, "error", err)
					continue
				}
				cfg := a.Config()
				t.Row(name, strings.Join(a.Variants(), ", "),
					fmt.Sprintf("%s..%s", formatFloat(cfg.MinDiameter), formatFloat(cfg.MaxDiameter)),
					formatFloat(a.TotalLength()))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

// inspectCommand prints the derived outputs of a part.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		src    sourceFlags
		asJSON bool
		fields bool
	)
	cmd := &cobra.Command{
		Use:   "inspect [part]",
		Short: "Show dimensions, mass, cost and attach nodes of a part",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			a, err := c.build(ctx, r, args, src)
			if err != nil {
				return err
			}
			return c.printAssembly(ctx, cmd, r, a, asJSON, fields)
		},
	}
	src.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	cmd.Flags().BoolVar(&fields, "fields", false, "also list editable fields")
	return cmd
}

func (c *CLI) printAssembly(ctx context.Context, cmd *cobra.Command, r *pipeline.Runner, a *assembly.Assembly, asJSON, fields bool) error {
	snap, hit, err := r.Inspect(ctx, a)
	if err != nil {
		return err
	}
	c.Logger.Debug("Snapshot", "part", snap.Part, "cached", hit)

	w := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	writeSnapshot(w, snap)
	if fields {
		writeFields(w, a.Fields())
	}
	return nil
}

// assignment is one field=value argument.
type assignment struct {
	field assembly.Field
	value string
}

// parseAssignments splits field=value arguments. Order is preserved so that
// a variant can be selected before a model that only it offers.
func parseAssignments(args []string) ([]assignment, error) {
	out := make([]assignment, 0, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "expected field=value, got %q", arg)
		}
		f, err := assembly.ParseField(name)
		if err != nil {
			return nil, err
		}
		out = append(out, assignment{field: f, value: value})
	}
	return out, nil
}

// splitSetArgs separates an optional leading part name from assignments.
func splitSetArgs(args []string) (part []string, rest []string) {
	if len(args) > 0 && !strings.Contains(args[0], "=") {
		return args[:1], args[1:]
	}
	return nil, args
}

// setCommand applies field edits and prints the result.
func (c *CLI) setCommand() *cobra.Command {
	var (
		src      sourceFlags
		save     string
		asJSON   bool
		symmetry int
	)
	cmd := &cobra.Command{
		Use:   "set [part] field=value...",
		Short: "Edit fields of a part and show the result",
		Long: `Apply field edits in the order given. Fields are diameter, vscale, variant,
nose_model, core_model, mount_model, nose_texture, core_texture and
mount_texture.`,
		Example: `  stackwright set tank diameter=2.5 variant=Short
  stackwright set -i booster core_model=tube-long --save booster`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			partArgs, rest := splitSetArgs(args)
			edits, err := parseAssignments(rest)
			if err != nil {
				return err
			}

			r, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			a, err := c.build(ctx, r, partArgs, src)
			if err != nil {
				return err
			}
			if symmetry > 1 {
				if err := linkCounterparts(r, a, symmetry); err != nil {
					return err
				}
			}
			for _, e := range edits {
				if err := a.SetField(e.field, e.value); err != nil {
					return err
				}
			}
			if n := len(a.Counterparts()); n > 0 {
				c.Logger.Info("Mirrored edits", "part", a.Config().Name, "counterparts", n)
			}

			if save != "" {
				if err := r.Save(ctx, save, a); err != nil {
					return err
				}
				if !asJSON {
					printSuccess("Saved %s as %s", a.Config().Name, StyleHighlight.Render(save))
				}
			}
			return c.printAssembly(ctx, cmd, r, a, asJSON, false)
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&save, "save", "", "persist the result under this instance name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	cmd.Flags().IntVar(&symmetry, "symmetry", 1, "number of symmetric copies edited together")
	return cmd
}

// linkCounterparts builds n-1 copies of a from its state and joins them into
// one symmetry group.
func linkCounterparts(r *pipeline.Runner, a *assembly.Assembly, n int) error {
	st := a.State()
	members := []*assembly.Assembly{a}
	for i := 1; i < n; i++ {
		b, err := r.Build(pipeline.BuildOptions{
			Part:     a.Config().Name,
			State:    &st,
			Instance: fmt.Sprintf("%s-%d", a.Config().Name, i),
		})
		if err != nil {
			return err
		}
		members = append(members, b)
	}
	assembly.LinkSymmetry(members...)
	return nil
}
