package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/atmovis/internal/config"
	"github.com/san-kum/atmovis/internal/grib"
	"github.com/san-kum/atmovis/internal/grid"
	"github.com/san-kum/atmovis/internal/store"
)

func newInspectCmd() *cobra.Command {
	var plotPath string
	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "summarize a grid file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := grid.Read(args[0])
			if err != nil {
				return err
			}
			writeSummary(cmd.OutOrStdout(), args[0], g)
			if plotPath != "" {
				if err := plotProfile(plotPath, g); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nprofile written to %s\n", plotPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&plotPath, "plot", "", "also write the slice-mean profile as a PNG")
	return cmd
}

func writeSummary(out io.Writer, path string, g *grid.Grid) {
	s := grid.Summarize(g)
	fmt.Fprintf(out, "file:    %s\n", path)
	fmt.Fprintf(out, "array:   %s\n", g.Name)
	fmt.Fprintf(out, "dims:    %d x %d x %d\n", g.Dims[0], g.Dims[1], g.Dims[2])
	fmt.Fprintf(out, "spacing: %g %g %g\n", g.Spacing[0], g.Spacing[1], g.Spacing[2])
	fmt.Fprintf(out, "origin:  %g %g %g\n", g.Origin[0], g.Origin[1], g.Origin[2])
	fmt.Fprintf(out, "min %.4g  max %.4g  mean %.4g  stddev %.4g\n", s.Min, s.Max, s.Mean, s.StdDev)

	means := grid.SliceMeans(g)
	if len(means) > 1 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, asciigraph.Plot(means, asciigraph.Height(10), asciigraph.Width(60), asciigraph.Caption("mean per z-slice")))
	}
}

func plotProfile(path string, g *grid.Grid) error {
	p := plot.New()
	p.Title.Text = g.Name
	p.X.Label.Text = "slice"
	p.Y.Label.Text = "mean"

	means := grid.SliceMeans(g)
	pts := make(plotter.XYs, len(means))
	for k, m := range means {
		pts[k].X, pts[k].Y = float64(k), m
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line)
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [dir]",
		Short: "list grid files in viewer order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := store.New(args[0])
			entries, err := st.List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no grid files found")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "INDEX\tFILE\tARRAY\tDIMS\tSIZE")
			for i, e := range entries {
				g, err := st.Load(e.Name)
				if err != nil {
					fmt.Fprintf(w, "%d\t%s\t-\t%v\t%d\n", i, e.Name, err, e.Size)
					continue
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%dx%dx%d\t%d\n", i, e.Name, g.Name, g.Dims[0], g.Dims[1], g.Dims[2], e.Size)
			}
			w.Flush()
			if m, err := st.LoadManifest(); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s job, %s on %s, written %s\n", m.Job, m.Variable, m.Date, m.Timestamp.Format("2006-01-02 15:04"))
				if len(m.Skipped) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "skipped: %s\n", strings.Join(m.Skipped, ", "))
				}
			}
			return nil
		},
	}
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list extraction presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tNAME\tVARIABLE\tLEVELS\tOUT")
			for _, kind := range []string{"volume", "layer"} {
				for _, name := range config.ListPresets(kind) {
					j := config.GetPreset(kind, name)
					levels := fmt.Sprintf("%d-%d hPa", j.MinLevel, j.MaxLevel)
					if kind == "layer" {
						levels = fmt.Sprintf("%d hPa", j.Level)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", kind, name, j.Variable, levels, filepath.Clean(j.Out))
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "\nvariables (--variable accepts either form):")
			w = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, name := range grib.Names() {
				fmt.Fprintf(w, "  %s\t%s\n", grib.ShortName(name), name)
			}
			return w.Flush()
		},
	}
}

