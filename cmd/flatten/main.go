package main

import (
	"codetransform/internal/config"
	"codetransform/internal/source"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "flatten",
		Usage:     "print matching files of a directory as one prompt-ready blob",
		ArgsUsage: "[dir]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "pattern",
				Aliases: []string{"p"},
				Usage:   "file name glob, repeatable",
				Value:   cli.NewStringSlice(config.DefaultArchivePatterns...),
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "print statistics instead of the blob",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "log errors only",
			},
		},
		Action: flattenAction,
	}
}

func flattenAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	log := slog.New(slog.NewJSONHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: logLevel}))

	dir := c.Args().First()
	if dir == "" {
		dir = "."
	}
	patterns := c.StringSlice("pattern")

	result, err := source.FlattenDir(c.Context, dir, patterns)
	if err != nil {
		log.ErrorContext(c.Context, "Failed to flatten dir",
			"error", err,
			"dir", dir,
			"patterns", patterns)

		return fmt.Errorf("flatten %s: %w", dir, err)
	}

	log.InfoContext(c.Context, "Dir is flattened",
		append([]any{"dir", dir}, result.Stats.LogAttrs()...)...)

	if c.Bool("stats") {
		_, err = fmt.Fprintln(c.App.Writer, result.Stats.String())
	} else {
		_, err = fmt.Fprint(c.App.Writer, source.FormatEntries(result.Entries))
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}
