package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bluesky-social/chatmod/pkg/metrics"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "warden",
		Usage:   "chat moderation decision daemon",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL: redis://<user>:<pass>@<hostname>:6379/<db>. ledgers are kept in memory if not set",
			EnvVars: []string{"WARDEN_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			EnvVars: []string{"WARDEN_LOG_LEVEL", "GO_LOG_LEVEL", "LOG_LEVEL"},
		},
	}

	app.Commands = []*cli.Command{
		serveCmd,
	}

	return app.Run(args)
}

func configLogger(cctx *cli.Context, writer io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cctx.String("log-level")) {
	case "error":
		level = slog.LevelError
	case "warn":
		level = slog.LevelWarn
	case "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "run the moderation API daemon",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for HTTP APIs",
			Value:   ":3900",
			EnvVars: []string{"WARDEN_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3901",
			EnvVars: []string{"WARDEN_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:     "binding-url",
			Usage:    "method, hostname, and port of the chat platform binding which carries out actions",
			Required: true,
			EnvVars:  []string{"WARDEN_BINDING_URL"},
		},
		&cli.StringFlag{
			Name:    "binding-token",
			Usage:   "bearer token sent to the chat platform binding",
			EnvVars: []string{"WARDEN_BINDING_TOKEN"},
		},
		&cli.IntFlag{
			Name:    "binding-rate-limit",
			Usage:   "max requests per second to the chat platform binding",
			Value:   25,
			EnvVars: []string{"WARDEN_BINDING_RATE_LIMIT"},
		},
		&cli.StringSliceFlag{
			Name:    "admin-ids",
			Usage:   "user IDs granted admin at startup",
			EnvVars: []string{"WARDEN_ADMIN_IDS", "ADMIN_IDS"},
		},
		&cli.StringFlag{
			Name:    "roles-file",
			Usage:   "JSON file of role sets (admins, whitelist) loaded at startup",
			EnvVars: []string{"WARDEN_ROLES_FILE"},
		},
		&cli.DurationFlag{
			Name:    "context-ttl",
			Usage:   "how long an idle chat window is kept in redis",
			Value:   24 * time.Hour,
			EnvVars: []string{"WARDEN_CONTEXT_TTL"},
		},
		&cli.StringFlag{
			Name:    "slack-webhook-url",
			Usage:   "full URL of slack webhook for moderator notifications",
			EnvVars: []string{"SLACK_WEBHOOK_URL"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger := configLogger(cctx, os.Stdout)

		shutdownOTEL, err := configOTEL("warden")
		if err != nil {
			return err
		}
		defer shutdownOTEL()

		srv, err := NewServer(
			Config{
				Logger:           logger,
				Bind:             cctx.String("bind"),
				RedisURL:         cctx.String("redis-url"),
				BindingURL:       cctx.String("binding-url"),
				BindingToken:     cctx.String("binding-token"),
				BindingRateLimit: cctx.Int("binding-rate-limit"),
				AdminIDs:         cctx.StringSlice("admin-ids"),
				RolesFileJSON:    cctx.String("roles-file"),
				ContextTTL:       cctx.Duration("context-ttl"),
				SlackWebhookURL:  cctx.String("slack-webhook-url"),
			},
		)
		if err != nil {
			return fmt.Errorf("failed to construct server: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		eg, ctx := errgroup.WithContext(ctx)

		// prometheus HTTP endpoint: /metrics
		eg.Go(func() error {
			if err := metrics.RunServer(ctx, cctx.String("metrics-listen"), versioninfo.Short()); err != nil {
				return fmt.Errorf("metrics endpoint: %w", err)
			}
			return nil
		})
		eg.Go(func() error {
			return srv.RunLedgerGauges(ctx)
		})
		eg.Go(func() error {
			// stops the other tasks once the API is down
			defer cancel()
			return srv.RunAPI(ctx)
		})
		return eg.Wait()
	},
}
