package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisonChilton/meshtastic-vox/internal/bitpack"
	"github.com/allisonChilton/meshtastic-vox/internal/container"
)

func repackCmd() *cli.Command {
	var (
		path    string
		outPath string
	)

	return &cli.Command{
		Name:  "repack",
		Usage: "Rewrite a container through a full unpack/pack cycle, normalizing padding",
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
				Usage:       "output container path",
				Destination: &outPath,
				Required:    true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			_ = ctx

			packed, meta, err := container.LoadFile(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			codes, err := bitpack.Unpack(packed, meta.NBits, meta.NumValid, meta.Batches)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			repacked, err := bitpack.Pack(codes)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			if err := container.SaveFile(outPath, repacked.Data, meta); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			fmt.Printf("Repacked %s -> %s (%d -> %d payload bytes)\n",
				path, outPath, len(packed), len(repacked.Data))
			return nil
		},
	}
}
