package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackwright/pkg/errors"
	"github.com/matzehuels/stackwright/pkg/pipeline"
	"github.com/matzehuels/stackwright/pkg/state"
)

// instanceLister is implemented by stores that can enumerate instances.
type instanceLister interface {
	Instances(ctx context.Context, part string) ([]string, error)
}

// stateCommand groups persisted state operations.
func (c *CLI) stateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show, export, import and delete persisted part states",
	}
	cmd.AddCommand(c.stateShowCommand())
	cmd.AddCommand(c.stateExportCommand())
	cmd.AddCommand(c.stateImportCommand())
	cmd.AddCommand(c.stateDeleteCommand())
	cmd.AddCommand(c.stateListCommand())
	return cmd
}

func (c *CLI) stateShowCommand() *cobra.Command {
	var (
		src    sourceFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "show [part]",
		Short: "Print the persisted fields of a part",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := state.ParseFormat(format)
			if err != nil {
				return err
			}
			if f == state.FormatMsgpack {
				return errors.New(errors.ErrCodeInvalidFormat, "msgpack is binary; use state export -o")
			}
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
			data, err := state.Marshal(a.State(), f)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if _, err := w.Write(data); err != nil {
				return err
			}
			if len(data) > 0 && data[len(data)-1] != '\n' {
				fmt.Fprintln(w)
			}
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: json, yaml, toml")
	return cmd
}

func (c *CLI) stateExportCommand() *cobra.Command {
	var (
		src    sourceFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "export [part] -o FILE",
		Short: "Write the state of a part to a file",
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
			if err := state.WriteFile(output, a.State()); err != nil {
				return err
			}
			printSuccess("Exported state of %s", a.Config().Name)
			printFile(output)
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.json, .yaml, .toml, .msgpack)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (c *CLI) stateImportCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Persist a state file as an instance",
		Long: `Read a state file, check it against the catalogs and persist it. The
instance name defaults to the file name without its extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := state.ReadFile(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				base := filepath.Base(args[0])
				name = strings.TrimSuffix(base, filepath.Ext(base))
			}

			r, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			a, err := r.Build(pipeline.BuildOptions{State: &st})
			if err != nil {
				return err
			}
			if err := r.Save(ctx, name, a); err != nil {
				return err
			}
			printSuccess("Imported %s as %s", a.Config().Name, StyleHighlight.Render(name))
			printNextStep("Inspect it", fmt.Sprintf("%s inspect %s -i %s", appName, a.Config().Name, name))
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "instance name")
	return cmd
}

func (c *CLI) stateDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete PART INSTANCE",
		Short: "Delete a persisted instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			if r.Store == nil {
				return errors.New(errors.ErrCodeUnsupported, "no state store configured")
			}
			if err := r.Store.Delete(ctx, args[0], args[1]); err != nil {
				return err
			}
			printSuccess("Deleted %s/%s", args[0], args[1])
			return nil
		},
	}
}

func (c *CLI) stateListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list PART",
		Short: "List persisted instances of a part",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			lister, ok := r.Store.(instanceLister)
			if !ok {
				return errors.New(errors.ErrCodeUnsupported, "store backend %q cannot list instances", r.Settings.Store.Backend)
			}
			names, err := lister.Instances(ctx, args[0])
			if err != nil {
				return err
			}
			if len(names) == 0 {
				printInfo("No instances of %s", args[0])
				return nil
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}
