package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisonChilton/meshtastic-vox/internal/bitpack"
	"github.com/allisonChilton/meshtastic-vox/internal/container"
)

func verifyCmd() *cli.Command {
	var path string

	return &cli.Command{
		Name:  "verify",
		Usage: "Check that a container's payload matches the shape its metadata declares",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to container file",
				Destination: &path,
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

			expected := meta.Batches * repacked.RowBytes()
			if !bytes.Equal(repacked.Data, packed[:expected]) {
				return cli.Exit("error: payload bits do not survive an unpack/pack cycle", 1)
			}
			if extra := len(packed) - expected; extra > 0 {
				fmt.Printf("Warning: %d trailing payload bytes beyond the declared shape\n", extra)
			}

			fmt.Printf("OK: %d batches x %d codes x %d bits (%d payload bytes)\n",
				meta.Batches, meta.NumValid, meta.NBits, len(packed))
			return nil
		},
	}
}
