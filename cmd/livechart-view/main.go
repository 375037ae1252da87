// Command livechart-view draws a live stacked column chart of a CSV file
// that is being appended to.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"
	"git.sr.ht/~gioverse/skel/stream"
	"github.com/rs/zerolog"

	"git.sr.ht/~whereswaldon/livechart/chart"
	"git.sr.ht/~whereswaldon/livechart/internal/logger"
)

func main() {
	mode := flag.String("mode", "values", "stack mode: values or percentage")
	labels := flag.Bool("labels", false, "draw a data label on every column")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <file.csv>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	log := logger.New(logger.Config{Level: *logLevel, Pretty: true})
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	stackMode, err := chart.ParseStackMode(*mode)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid mode")
	}
	path := flag.Arg(0)

	go func() {
		w := app.NewWindow(app.Title("livechart: "+path), app.Size(unit.Dp(900), unit.Dp(600)))
		if err := loop(w, path, stackMode, *labels, log); err != nil {
			log.Fatal().Err(err).Msg("window closed")
		}
		os.Exit(0)
	}()
	app.Main()
}

func loop(w *app.Window, path string, mode chart.StackMode, labels bool, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	controller := stream.NewController(ctx, w.Invalidate)
	ui := NewUI(controller, path, mode, labels, w.Invalidate, log)
	var ops op.Ops
	for {
		switch ev := w.NextEvent().(type) {
		case app.DestroyEvent:
			return ev.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, ev)
			ui.Layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}
