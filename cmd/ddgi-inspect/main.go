// Command ddgi-inspect prints the probe volume layout, the variability reduction chain and
// light attenuation coefficients, and can bake a test room on a headless GPU.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-ddgi/engine/logger"
	"github.com/urfave/cli"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "ddgi-inspect"
	app.Usage = "inspect probe volume layouts and light coefficients"
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "verbose", Usage: "log engine diagnostics to stderr"},
	}
	app.Before = func(c *cli.Context) error {
		if c.GlobalBool("verbose") {
			logger.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:   "layout",
			Usage:  "print surface dimensions and memory for a probe grid",
			Flags:  append(gridFlags(), cli.Float64Flag{Name: "extent", Value: 10, Usage: "full size of the cubic scene bounds"}),
			Action: layout,
		},
		{
			Name:   "reduction",
			Usage:  "print the variability reduction dispatch chain",
			Flags:  gridFlags(),
			Action: reduction,
		},
		{
			Name:  "attenuation",
			Usage: "print punctual light attenuation coefficients",
			Flags: []cli.Flag{
				cli.Float64Flag{Name: "range", Value: 10, Usage: "light range"},
				cli.Float64Flag{Name: "outer", Value: 30, Usage: "full outer spot angle in degrees"},
				cli.Float64Flag{Name: "inner", Usage: "full inner spot angle in degrees, default falloff when unset"},
				cli.IntFlag{Name: "samples", Value: 5, Usage: "distances to evaluate between 0 and the range"},
			},
			Action: attenuation,
		},
		{
			Name:  "bake",
			Usage: "run the probe update on a headless GPU until the volume converges",
			Flags: append(gridFlags(),
				cli.IntFlag{Name: "frames", Value: 600, Usage: "frame budget"},
				cli.DurationFlag{Name: "tick", Value: 16 * time.Millisecond, Usage: "time between frames"},
				cli.Float64Flag{Name: "threshold", Value: 0.025, Usage: "variability convergence threshold"},
				cli.BoolFlag{Name: "fallback", Usage: "force the software fallback adapter"},
			),
			Action: bake,
		},
	}
	return app
}

func gridFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{Name: "x", Value: 22, Usage: "probes along x"},
		cli.IntFlag{Name: "y", Value: 22, Usage: "probes along y"},
		cli.IntFlag{Name: "z", Value: 22, Usage: "probes along z"},
		cli.IntFlag{Name: "rays", Value: 144, Usage: "rays per probe"},
	}
}
