package main

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/allisonChilton/meshtastic-vox/internal/bitpack"
	"github.com/allisonChilton/meshtastic-vox/internal/container"
)

func extractCmd() *cli.Command {
	var (
		path    string
		outPath string
		asCodes bool
	)

	return &cli.Command{
		Name:  "extract",
		Usage: "Write a container's packed payload, or its decoded codes, to a file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to container file",
				Destination: &path,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output path",
				Destination: &outPath,
				Required:    true,
			},
			&cli.BoolFlag{
				Name:        "codes",
				Usage:       "write unpacked code values as JSON instead of raw payload bytes",
				Destination: &asCodes,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			_ = ctx

			packed, meta, err := container.LoadFile(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			if !asCodes {
				if err := os.WriteFile(outPath, packed, 0o644); err != nil {
					return cli.Exit(fmt.Sprintf("error: write %s: %v", outPath, err), 1)
				}
				fmt.Printf("Wrote %d payload bytes to %s\n", len(packed), outPath)
				return nil
			}

			codes, err := bitpack.Unpack(packed, meta.NBits, meta.NumValid, meta.Batches)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			blob, err := json.Marshal(codes)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: encode codes: %v", err), 1)
			}
			if err := os.WriteFile(outPath, blob, 0o644); err != nil {
				return cli.Exit(fmt.Sprintf("error: write %s: %v", outPath, err), 1)
			}
			fmt.Printf("Wrote %d batches x %d codes x %d bits to %s\n",
				meta.Batches, meta.NumValid, meta.NBits, outPath)
			return nil
		},
	}
}
