package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/moffa90/go-ota/image"
	"github.com/urfave/cli/v2"
)

var (
	versionFlag = &cli.StringFlag{
		Name:  "version",
		Usage: "Firmware version as major.minor.patch[+build]",
		Value: "0.0.0",
	}
	targetFlag = &cli.UintFlag{
		Name:  "target",
		Usage: "Payload target field (0-15)",
	}

	packCommand = &cli.Command{
		Name:      "pack",
		Usage:     "Compress a firmware binary into an OTA image",
		ArgsUsage: "<firmware.bin> <image.ota>",
		Action:    pack,
		Flags:     []cli.Flag{magicFlag, versionFlag, targetFlag},
	}
)

func pack(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return errors.New("need firmware and output file as arguments")
	}
	in, out := ctx.Args().Get(0), ctx.Args().Get(1)

	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	magic, err := parseMagic(cfg.Magic)
	if err != nil {
		return err
	}
	version, err := parseVersion(ctx.String(versionFlag.Name))
	if err != nil {
		return err
	}
	target := ctx.Uint(targetFlag.Name)
	if target > 15 {
		return fmt.Errorf("target %d out of range 0-15", target)
	}
	version.PayloadTarget = uint8(target)

	fw, err := os.ReadFile(in)
	if err != nil {
		return err
	}

	img, err := image.Build(fw, magic, version)
	if err != nil {
		return err
	}

	data := img.Bytes()
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}

	slog.Info("Image written",
		"file", out,
		"firmware", len(fw),
		"image", len(data),
		"crc32", fmt.Sprintf("0x%08X", img.Header.CRC32))
	fmt.Fprintf(ctx.App.Writer, "%s: %d bytes -> %d bytes, version %s\n", out, len(fw), len(data), version)
	return nil
}
