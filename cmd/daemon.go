package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/erikh/growl/internal/daemon"
	"github.com/erikh/growl/internal/display"
	"github.com/erikh/growl/internal/lock"
	"github.com/erikh/growl/internal/metrics"
)

func daemonCommand() *cli.Command {
	return &cli.Command{
		Name:  "daemon",
		Usage: "Run a notification daemon that shows notifications on this desktop",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "metrics-addr", Usage: "serve Prometheus metrics on this address"},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}

			lk := lock.New(filepath.Join(xdg.RuntimeDir, "growl"), "daemon")
			if err := lk.Acquire(); err != nil {
				return err
			}
			defer func() {
				if err := lk.Release(); err != nil {
					e.log.Warn().Err(err).Msg("releasing daemon lock")
				}
			}()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			m := metrics.New(reg)
			if addr := c.String("metrics-addr"); addr != "" {
				serveMetrics(ctx, addr, reg, e.log)
			}

			disp, err := display.New(e.log)
			if err != nil {
				return fmt.Errorf("opening desktop display: %w", err)
			}
			defer disp.Close()

			b, err := e.openBus()
			if err != nil {
				return err
			}
			defer b.Close()

			d := daemon.New(b, disp, daemon.WithLogger(e.log), daemon.WithRecorder(m))
			return d.Run(ctx)
		},
	}
}
