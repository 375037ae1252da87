package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"git.sr.ht/~whereswaldon/livechart/backend"
	"git.sr.ht/~whereswaldon/livechart/chart"
	"git.sr.ht/~whereswaldon/livechart/record"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file.csv>",
	Short: "Follow a CSV file and redraw every time it is written.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := setup()
		if err != nil {
			return err
		}
		d, mode, err := cfg.chartDefaults()
		if err != nil {
			return err
		}
		watcher, err := backend.NewWatcher(args[0], log)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		surface := record.New()
		binding := backend.NewBinding(surface, d, mode, log)
		vp := chart.Viewport{UnitWidth: cfg.UnitWidth}
		for update := range watcher.Run(ctx) {
			if update.Err != nil {
				return update.Err
			}
			if err := binding.Update(update.Data); err != nil {
				return err
			}
			res, err := binding.Redraw(ctx, vp)
			if errors.Is(err, context.Canceled) || errors.Is(err, chart.ErrSuperseded) {
				continue
			}
			if err != nil {
				return err
			}
			t := totals(res)
			log.Info().
				Uint64("seq", update.Seq).
				Int("inserted", update.Inserted).
				Int("created", t.Created).
				Int("reused", t.Reused).
				Int("removed", t.Removed).
				Int("failed", t.Failed).
				Int("live", surface.Live()).
				Msg("redrawn")
			for _, err := range res.Errors() {
				log.Warn().Err(err).Msg("redraw")
			}
			if cfg.Frames != "" {
				if err := appendFrame(cfg.Frames, surface); err != nil {
					return err
				}
			} else {
				surface.Flush()
			}
		}
		return nil
	},
}
