package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackwright/pkg/render"
)

// exportCommand tessellates a part to a binary STL file.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		src    sourceFlags
		output string
		cells  int
	)
	cmd := &cobra.Command{
		Use:   "export [part]",
		Short: "Export the solid of a part as binary STL",
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
			if output == "" {
				output = a.Config().Name + ".stl"
			}

			prog := newProgress(c.Logger)
			spin := newSpinnerWithContext(ctx, "Tessellating "+a.Config().Name+"...")
			spin.Start()
			data, hit, err := r.ExportSTL(ctx, a, cells)
			spin.Stop()
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			prog.done("Exported mesh")

			printSuccess("Exported %s", a.Config().Name)
			printFile(output)
			printCacheStatus(len(data), hit)
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <part>.stl)")
	cmd.Flags().IntVar(&cells, "cells", 0, "marching cubes resolution along the longest axis (default from settings)")
	return cmd
}

// graphCommand draws the option graph of a part.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		src        sourceFlags
		output     string
		format     string
		detailed   bool
		horizontal bool
	)
	cmd := &cobra.Command{
		Use:   "graph [part]",
		Short: "Draw the segments, variants and models of a part",
		Long: `Draw the option graph of a part: its segments, the variants and models each
segment can take, and the layouts of each model. The current selection is
highlighted. Writes DOT to stdout unless an output file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f := render.FormatDOT
			switch {
			case format != "":
				f = render.Format(format)
			case output != "":
				f = render.FormatFromPath(output)
			}
			if f != render.FormatDOT && f != render.FormatSVG {
				return fmt.Errorf("unsupported graph format %q", f)
			}

			r, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			a, err := c.build(ctx, r, args, src)
			if err != nil {
				return err
			}
			data, hit, err := r.ExportGraph(ctx, a, f, render.Options{Detailed: detailed, Horizontal: horizontal})
			if err != nil {
				return err
			}
			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Rendered graph of %s", a.Config().Name)
			printFile(output)
			printCacheStatus(len(data), hit)
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.dot, .gv or .svg)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: dot, svg (default from extension)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "annotate nodes with dimensions")
	cmd.Flags().BoolVar(&horizontal, "horizontal", false, "lay out left to right")
	return cmd
}
