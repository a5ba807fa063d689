// Command modeler converts Wikipedia Special:Export dumps into per-category
// pronoun models and classifies text against them.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/whatfield-ii/WikipediaSpecialExportModeler/pkg/modeler/pipeline"
)

// exitOther is the status for failures that are not stage failures.
const exitOther = 4

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		return stageErr.ExitCode()
	}
	return exitOther
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "modeler",
		Usage: "train pronoun models from Wikipedia special exports",
		// main maps errors to exit statuses
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML or TOML configuration file",
				EnvVars: []string{"MODELER_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "trace, debug, info, warn, error or fatal",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "console, json or pretty",
			},
			&cli.BoolFlag{
				Name:  "log-source",
				Usage: "add source locations to log lines",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "convert, tag and train in one go",
				Action: runAction,
			},
			{
				Name:   "convert",
				Usage:  "convert special exports into refined XML",
				Action: convertAction,
			},
			{
				Name:   "tag",
				Usage:  "tag refined XML texts",
				Action: tagAction,
			},
			{
				Name:   "train",
				Usage:  "train and store one model per category",
				Action: trainAction,
			},
			{
				Name:  "classify",
				Usage: "score text against the stored category models",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "text", Usage: "text to classify"},
					&cli.StringFlag{Name: "file", Usage: "file holding the text to classify"},
					&cli.StringFlag{Name: "format", Value: "text", Usage: "text or yaml"},
				},
				Action: classifyAction,
			},
			{
				Name:  "inspect",
				Usage: "list stored models or dump one of them",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "model", Usage: "model name to dump"},
				},
				Action: inspectAction,
			},
			{
				Name:  "watch",
				Usage: "rerun the pipeline whenever exports change",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "debounce", Value: pipeline.DefaultDebounce, Usage: "quiet period before a rerun"},
				},
				Action: watchAction,
			},
		},
	}
}
