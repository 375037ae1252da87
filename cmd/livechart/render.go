package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"git.sr.ht/~whereswaldon/livechart/backend"
	"git.sr.ht/~whereswaldon/livechart/chart"
	"git.sr.ht/~whereswaldon/livechart/record"
)

var renderCmd = &cobra.Command{
	Use:   "render <file.csv>",
	Short: "Lay out a CSV file once and print the resulting columns.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := setup()
		if err != nil {
			return err
		}
		color.NoColor = color.NoColor || !cfg.Color
		d, mode, err := cfg.chartDefaults()
		if err != nil {
			return err
		}
		ds, err := backend.ReadFile(args[0], log)
		if err != nil {
			return err
		}
		surface := record.New()
		binding := backend.NewBinding(surface, d, mode, log)
		if err := binding.Update(ds); err != nil {
			return err
		}
		res, err := binding.Redraw(context.Background(), chart.Viewport{UnitWidth: cfg.UnitWidth})
		if err != nil {
			return fmt.Errorf("failed laying out %q: %w", args[0], err)
		}
		if err := printLayout(res, surface, binding.Group()); err != nil {
			return err
		}
		printSummary(os.Stdout, res, surface.Live())
		if cfg.Frames != "" {
			return appendFrame(cfg.Frames, surface)
		}
		return nil
	},
}
