package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/moffa90/go-ota/ota"
	"github.com/moffa90/go-ota/storage"
	"github.com/moffa90/go-ota/transport"
	"github.com/urfave/cli/v2"
)

var (
	noCommitFlag = &cli.BoolFlag{
		Name:  "no-commit",
		Usage: "Verify the downloaded image but do not commit it",
	}

	downloadFlags = []cli.Flag{
		urlFlag,
		magicFlag,
		slotFlag,
		caCertFlag,
		caBundleFlag,
		headerTimeoutFlag,
		byteTimeoutFlag,
		chunkSizeFlag,
	}

	downloadCommand = &cli.Command{
		Name:      "download",
		Usage:     "Download an OTA image into the update slot",
		ArgsUsage: "[url]",
		Action:    download,
		Flags:     append([]cli.Flag{noCommitFlag}, downloadFlags...),
	}
)

var (
	okColor   = color.New(color.FgGreen, color.Bold).SprintfFunc()
	failColor = color.New(color.FgHiRed, color.Bold).SprintfFunc()
)

func download(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	if ctx.NArg() > 0 {
		cfg.URL = ctx.Args().First()
	}
	if cfg.URL == "" {
		return errors.New("need image url as argument or --url")
	}

	magic, err := parseMagic(cfg.Magic)
	if err != nil {
		return err
	}

	tr, err := makeTransport(cfg)
	if err != nil {
		return err
	}

	opts := []ota.Option{
		ota.WithMagic(magic),
		ota.WithChunkSize(cfg.ChunkSize),
		ota.WithLogger(slog.Default()),
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		bar := newProgressBar(ctx.App.Writer)
		opts = append(opts, ota.WithProgressCallback(bar.Update))
	}

	slot := storage.NewFile(cfg.Slot)
	client := ota.New(slot, tr, opts...)

	n, err := client.Download(ctx.Context, cfg.URL)
	if err != nil {
		return downloadFailed(ctx, err)
	}

	hdr, _ := client.Header()
	if ctx.Bool(noCommitFlag.Name) {
		if err := client.Verify(); err != nil {
			return downloadFailed(ctx, err)
		}
		client.Cancel()
		fmt.Fprintln(ctx.App.Writer, okColor("verified"), fmt.Sprintf("%d bytes, version %s (not committed)", n, hdr.Version))
		return nil
	}

	if err := client.Update(); err != nil {
		return downloadFailed(ctx, err)
	}
	fmt.Fprintln(ctx.App.Writer, okColor("updated"), fmt.Sprintf("%d bytes, version %s written to %s", n, hdr.Version, slot.Path()))
	return nil
}

func downloadFailed(ctx *cli.Context, err error) error {
	fmt.Fprintln(ctx.App.ErrWriter, failColor("failed"), fmt.Sprintf("(code %d)", int(ota.CodeOf(err))))
	return cli.Exit(err, 1)
}

func makeTransport(cfg Config) (*transport.HTTP, error) {
	opts := []transport.Option{
		transport.WithHeaderTimeout(cfg.HeaderTimeout.Duration),
		transport.WithByteTimeout(cfg.ByteTimeout.Duration),
	}

	if cfg.CACert != "" {
		pem, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("read root certificate: %w", err)
		}
		opts = append(opts, transport.WithRootCA(pem))
	}
	if cfg.CABundle != "" {
		pem, err := os.ReadFile(cfg.CABundle)
		if err != nil {
			return nil, fmt.Errorf("read certificate bundle: %w", err)
		}
		opts = append(opts, transport.WithCABundle(pem))
	}

	return transport.New(opts...)
}
