// Command ota downloads, packs and inspects OTA firmware images.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"
	"hermannm.dev/devlog"
)

var level slog.LevelVar

func init() {
	slog.SetDefault(slog.New(devlog.NewHandler(os.Stderr, &devlog.Options{
		Level: &level,
	})))
}

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "TOML configuration file",
		EnvVars: []string{"OTA_CONFIG"},
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level (debug, info, warn, error)",
		Value: "info",
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "ota",
		Usage: "over-the-air firmware update client",
		Flags: []cli.Flag{configFlag, logLevelFlag},
		Commands: []*cli.Command{
			downloadCommand,
			packCommand,
			inspectCommand,
			dumpConfigCommand,
		},
		Before: setupLogging,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	l, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	level.Set(l)
	return nil
}
