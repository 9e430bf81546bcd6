package main

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/allisonChilton/meshtastic-vox/internal/codec"
	"github.com/allisonChilton/meshtastic-vox/internal/container"
)

func inspectCmd() *cli.Command {
	var (
		path   string
		asJSON bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Print the metadata and compression statistics of a container",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to container file",
				Destination: &path,
				Required:    true,
			},
			&cli.BoolFlag{Name: "json", Usage: "emit machine-readable JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			_ = ctx

			packed, meta, err := container.LoadFile(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			stats := codec.Stats(meta)

			if asJSON {
				out := map[string]any{
					"metadata":      meta,
					"stats":         stats,
					"payload_bytes": len(packed),
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			fmt.Printf("Container: %s\n", path)
			fmt.Printf("  Config:          %s (%s)\n", meta.ConfigName, codec.ModelPath(meta.ConfigName))
			fmt.Printf("  Shape:           %d batches x %d codes x %d bits\n",
				meta.Batches, meta.NumValid, meta.NBits)
			fmt.Printf("  Sample rates:    %d Hz original, %d Hz codec\n",
				meta.OriginalSampleRate, meta.CodecSampleRate)
			fmt.Printf("  Duration:        %.2fs\n", stats.DurationSeconds)
			fmt.Printf("  Payload:         %d bytes\n", len(packed))
			fmt.Printf("  Bitrate:         %.0f bps\n", stats.BitsPerSecond)
			fmt.Printf("  Compression:     %s vs PCM-16 at 8 kHz\n", stats.CompressionRatio)
			return nil
		},
	}
}
