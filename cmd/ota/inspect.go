package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/moffa90/go-ota/image"
	"github.com/moffa90/go-ota/protocol"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
)

var (
	extractFlag = &cli.StringFlag{
		Name:  "extract",
		Usage: "Write the decompressed firmware to this file",
	}

	inspectCommand = &cli.Command{
		Name:      "inspect",
		Usage:     "Validate an OTA image and print its header",
		ArgsUsage: "<image.ota>",
		Action:    inspect,
		Flags:     []cli.Flag{extractFlag},
	}
)

func inspect(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("need image file as argument")
	}

	img, err := image.Parse(ctx.Args().First())
	if err != nil {
		return err
	}

	h := img.Header
	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.AppendBulk([][]string{
		{"Length", strconv.FormatUint(uint64(h.Length), 10)},
		{"CRC32", fmt.Sprintf("0x%08X", h.CRC32)},
		{"Magic", fmt.Sprintf("0x%08X (%s)", h.MagicNumber, boardName(h.MagicNumber))},
		{"Header version", strconv.Itoa(int(h.Version.HeaderVersion))},
		{"Compressed", strconv.FormatBool(h.Version.Compression)},
		{"Signed", strconv.FormatBool(h.Version.Signature)},
		{"Target", strconv.Itoa(int(h.Version.PayloadTarget))},
		{"Version", h.Version.String()},
		{"Payload", fmt.Sprintf("%d bytes", len(img.Payload))},
	})
	table.Render()

	if path := ctx.String(extractFlag.Name); path != "" {
		fw := img.Firmware()
		if err := os.WriteFile(path, fw, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "%d bytes of firmware written to %s\n", len(fw), path)
	}
	return nil
}

func boardName(magic uint32) string {
	switch magic {
	case protocol.MagicESP32:
		return "esp32"
	case protocol.MagicNanoESP32:
		return "nano-esp32"
	default:
		return "unknown board"
	}
}
