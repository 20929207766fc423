// Package cmd defines the growl CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/erikh/growl/internal/config"
	"github.com/erikh/growl/internal/logx"
	"github.com/erikh/growl/internal/metrics"
	"github.com/erikh/growl/pkg/bus"
	"github.com/erikh/growl/pkg/bus/dbusbus"
	"github.com/erikh/growl/pkg/growl"
)

// NewApp creates the growl CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:  "growl",
		Usage: "Register with and send notifications through a Growl daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the application profile (default $XDG_CONFIG_HOME/growl/config.yaml)",
				EnvVars: []string{"GROWL_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "diagnostic log level (debug, info, warn, error)",
				EnvVars: []string{"GROWL_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "bus-address",
				Usage:   "D-Bus address to use instead of the session bus",
				EnvVars: []string{"GROWL_BUS_ADDRESS"},
			},
			&cli.StringFlag{
				Name:  "app",
				Usage: "application name to register as (overrides the profile)",
			},
		},
		Commands: []*cli.Command{
			registerCommand(),
			notifyCommand(),
			logCommand(),
			listenCommand(),
			daemonCommand(),
		},
	}
}

// env is the per-invocation state shared by commands.
type env struct {
	cfg     *config.Config
	cfgPath string
	log     zerolog.Logger
}

func setup(c *cli.Context) (*env, error) {
	path := c.String("config")
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v := c.String("bus-address"); v != "" {
		cfg.BusAddress = v
	}
	if v := c.String("app"); v != "" {
		cfg.Application = v
	}

	return &env{
		cfg:     cfg,
		cfgPath: path,
		log:     logx.New(os.Stderr, cfg.LogLevel),
	}, nil
}

func (e *env) openBus() (*dbusbus.Bus, error) {
	return dbusbus.Connect(e.cfg.BusAddress, dbusbus.WithLogger(e.log))
}

func (e *env) notifier(b bus.Bus, stats growl.Stats) *growl.Notifier {
	return growl.New(b,
		growl.WithLogger(e.log),
		growl.WithStats(stats),
		growl.WithAlwaysCallback(e.cfg.AlwaysCallback),
		growl.WithNamespacedEvents(!e.cfg.GlobalEvents),
	)
}

func (e *env) register(n *growl.Notifier) error {
	return n.Register(e.cfg.Application, e.cfg.Notifications, e.cfg.Defaults, e.cfg.Icon)
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Register the application profile with the daemon",
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}

			b, err := e.openBus()
			if err != nil {
				return err
			}
			defer b.Close()

			n := e.notifier(b, nil)
			defer n.Close()
			if err := e.register(n); err != nil {
				return err
			}

			fmt.Printf("Registered %s with %d notifications.\n", e.cfg.Application, len(e.cfg.Notifications))
			return nil
		},
	}
}

func notifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "notify",
		Usage:     "Send a notification",
		ArgsUsage: "[message...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "registered notification name (default: first in profile)"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "notification title"},
			&cli.StringFlag{Name: "priority", Aliases: []string{"p"}, Value: "normal", Usage: "very_low, moderate, normal, high, emergency or -2..2"},
			&cli.BoolFlag{Name: "sticky", Aliases: []string{"s"}, Usage: "keep the notification on screen"},
			&cli.StringFlag{Name: "icon", Aliases: []string{"i"}, Usage: "image file to show instead of the application icon"},
			&cli.StringFlag{Name: "context", Usage: "click context returned with clicked/timed-out events"},
			&cli.BoolFlag{Name: "wait", Aliases: []string{"w"}, Usage: "wait until the notification is clicked or times out"},
			&cli.DurationFlag{Name: "timeout", Value: 2 * time.Minute, Usage: "give up waiting after this long"},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}

			message, err := readMessage(c.Args().Slice(), os.Stdin, stdinIsTerminal())
			if err != nil {
				return err
			}

			priority, err := parsePriority(c.String("priority"))
			if err != nil {
				return err
			}

			name := c.String("name")
			if name == "" {
				name = e.cfg.Notifications[0]
			}
			title := c.String("title")
			if title == "" {
				title = e.cfg.Application
			}

			opts := []growl.NotifyOption{growl.WithPriority(priority)}
			if c.Bool("sticky") {
				opts = append(opts, growl.WithSticky())
			}
			if p := c.String("icon"); p != "" {
				icon, err := os.ReadFile(p) //nolint:gosec // user-supplied icon path
				if err != nil {
					return fmt.Errorf("reading icon: %w", err)
				}
				opts = append(opts, growl.WithIcon(icon))
			}
			if c.IsSet("context") {
				opts = append(opts, growl.WithClickContext(c.String("context")))
			}

			b, err := e.openBus()
			if err != nil {
				return err
			}
			defer b.Close()

			n := e.notifier(b, nil)
			defer n.Close()
			if err := e.register(n); err != nil {
				return err
			}

			if !c.Bool("wait") {
				n.Notify(name, title, message, opts...)
				return nil
			}

			outcome := make(chan string, 1)
			n.SetDelegate(growl.DelegateFuncs{
				TimedOut: func(*growl.Notifier, string) {
					select {
					case outcome <- "timed out":
					default:
					}
				},
			})
			opts = append(opts, growl.WithCallback(func() {
				select {
				case outcome <- "clicked":
				default:
				}
			}))
			n.Notify(name, title, message, opts...)

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
			defer cancel()

			select {
			case result := <-outcome:
				fmt.Println(result)
				return nil
			case <-ctx.Done():
				return errors.New("no response from notification daemon")
			}
		},
	}
}

func logCommand() *cli.Command {
	return &cli.Command{
		Name:      "log",
		Usage:     "Send a log line as a leveled notification",
		ArgsUsage: "<message...>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "level", Aliases: []string{"l"}, Value: "info", Usage: "debug, info, warn, error or fatal"},
			&cli.StringFlag{Name: "threshold", Usage: "lowest level that is sent (default: profile threshold)"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "notification title (default: level name)"},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}

			message, err := readMessage(c.Args().Slice(), os.Stdin, stdinIsTerminal())
			if err != nil {
				return err
			}

			level, err := growl.ParseLevel(c.String("level"))
			if err != nil {
				return err
			}
			threshold := c.String("threshold")
			if threshold == "" {
				threshold = e.cfg.Threshold
			}

			b, err := e.openBus()
			if err != nil {
				return err
			}
			defer b.Close()

			n := e.notifier(b, nil)
			defer n.Close()

			logger, err := growl.NewLogger(n, e.cfg.Application+" logger", nil, e.cfg.Icon)
			if err != nil {
				return err
			}
			if err := logger.SetLevel(threshold); err != nil {
				return err
			}

			logger.Log(level, message, c.String("title"))
			return nil
		},
	}
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// readMessage joins args, or reads the message from stdin when no args are
// given and stdin is not a terminal.
func readMessage(args []string, stdin io.Reader, terminal bool) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if terminal {
		return "", errors.New("no message given: pass it as arguments or on stdin")
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading message from stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// parsePriority accepts a priority name or an integer in -2..2.
func parsePriority(s string) (growl.Priority, error) {
	if p, ok := growl.LookupPriority(s); ok {
		return p, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < int(growl.VeryLow) || n > int(growl.Emergency) {
		return 0, fmt.Errorf("unknown priority %q", s)
	}
	return growl.Priority(n), nil
}

// serveMetrics exposes reg on addr until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()
}
