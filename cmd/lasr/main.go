package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lasr/internal/config"
	"github.com/standardbeagle/lasr/internal/logging"
	"github.com/standardbeagle/lasr/internal/searchcore"
	"github.com/standardbeagle/lasr/internal/tui"
	"github.com/standardbeagle/lasr/internal/walk"
)

func main() {
	app := &cli.App{
		Name:      "lasr",
		Usage:     "live, preview-driven find-and-replace across files",
		ArgsUsage: "[paths...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "ignore-case",
				Aliases: []string{"i"},
				Usage:   "start with ignore-case on",
			},
			&cli.BoolFlag{
				Name:  "dump-config",
				Usage: "write the effective default config to stdout and exit",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("dump-config") {
		out, err := config.Default().Dump()
		if err != nil {
			return cli.Exit(fmt.Sprintf("dump config: %v", err), 1)
		}
		fmt.Fprint(c.App.Writer, out)
		return nil
	}

	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return cli.Exit(fmt.Sprintf("load config: %v", err), 1)
	}
	if c.Bool("ignore-case") {
		cfg.IgnoreCaseInitial = true
	}

	logPath, err := logging.Init(logging.DefaultPath())
	if err != nil {
		return cli.Exit(fmt.Sprintf("init logging: %v", err), 1)
	}
	defer logging.Close()
	logging.Info("main", "logging to %s", logPath)

	roots := c.Args().Slice()

	enumerate := func() ([]string, error) {
		return walk.Enumerate(walk.Options{
			Roots:            roots,
			Include:          cfg.Search.Include,
			Exclude:          cfg.Search.Exclude,
			RespectGitignore: cfg.Search.RespectGitignore,
		})
	}

	engine := searchcore.NewEngine(searchcore.EngineConfig{
		Threads:           cfg.Threads,
		MaxFileBytes:      cfg.Search.MaxFileBytes,
		AutoPairs:         cfg.AutoPairs,
		IgnoreCaseInitial: cfg.IgnoreCaseInitial,
	}, enumerate)

	model := tui.NewModel(engine, cfg)
	program := tea.NewProgram(model)
	finalModel, err := program.Run()
	if err != nil {
		return cli.Exit(fmt.Sprintf("run tui: %v", err), 1)
	}

	if m, ok := finalModel.(tui.Model); ok {
		if report := m.Report(); report != nil {
			fmt.Fprintf(c.App.Writer, "changed %d file(s), skipped %d, %d error(s)\n",
				report.FilesChanged, report.FilesSkipped, len(report.Errors))
			for _, e := range report.Errors {
				fmt.Fprintln(c.App.ErrWriter, e)
			}
		}
	}
	return nil
}
