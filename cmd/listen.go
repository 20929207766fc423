package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/erikh/growl/internal/config"
	"github.com/erikh/growl/internal/metrics"
	"github.com/erikh/growl/pkg/growl"
)

func listenCommand() *cli.Command {
	return &cli.Command{
		Name:  "listen",
		Usage: "Stay registered and print clicked and timed-out events",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "watch", Usage: "re-register when the profile changes on disk"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "serve Prometheus metrics on this address"},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			m := metrics.New(reg)
			if addr := c.String("metrics-addr"); addr != "" {
				serveMetrics(ctx, addr, reg, e.log)
			}

			b, err := e.openBus()
			if err != nil {
				return err
			}
			defer b.Close()

			n := e.notifier(b, m)
			defer n.Close()

			n.SetDelegate(growl.DelegateFuncs{
				Clicked: func(_ *growl.Notifier, userContext string) {
					fmt.Println(renderEvent(eventClicked, userContext, time.Now()))
				},
				TimedOut: func(_ *growl.Notifier, userContext string) {
					fmt.Println(renderEvent(eventTimedOut, userContext, time.Now()))
				},
			})

			if err := e.register(n); err != nil {
				return err
			}
			fmt.Println(renderHeader(e.cfg.Application, n.EventName(growl.ClickedSignal)))

			if !c.Bool("watch") {
				<-ctx.Done()
				return nil
			}

			return config.Watch(ctx, e.cfgPath, func(cfg *config.Config) {
				e.cfg = mergeReloaded(e.cfg, cfg)
				if err := e.register(n); err != nil {
					e.log.Warn().Err(err).Msg("re-registering after config change")
					return
				}
				e.log.Info().Str("app", e.cfg.Application).Msg("re-registered after config change")
			}, func(err error) {
				e.log.Warn().Err(err).Str("path", e.cfgPath).Msg("config reload")
			})
		},
	}
}

// mergeReloaded takes the registration fields from a reloaded profile. Bus
// and event-scoping settings only apply at startup.
func mergeReloaded(current, reloaded *config.Config) *config.Config {
	next := *current
	next.Application = reloaded.Application
	next.Icon = reloaded.Icon
	next.Notifications = reloaded.Notifications
	next.Defaults = reloaded.Defaults
	return &next
}
