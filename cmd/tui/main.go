// Command tui plays and edits sliding block levels in the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/sliding-block-game/game/editor"
	"github.com/wricardo/sliding-block-game/game/engine"
	"github.com/wricardo/sliding-block-game/game/levels"
)

// Options collects the parsed command line
type Options struct {
	LevelsDir  string
	Level      string
	Edit       bool
	Rows       int
	Columns    int
	SolveDelay time.Duration
	LogFile    string
}

func newApp(run func(ctx context.Context, opts Options) error) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Play and edit sliding block levels in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "levels-dir",
				Value:   "levels",
				Usage:   "Directory containing level files",
				Sources: cli.EnvVars("LEVELS_DIR"),
			},
			&cli.StringFlag{
				Name:  "level",
				Usage: "Level id to open (default level when empty)",
			},
			&cli.BoolFlag{
				Name:  "edit",
				Usage: "Start in the editor",
			},
			&cli.IntFlag{
				Name:  "rows",
				Value: 6,
				Usage: "Rows of a new level when editing without --level",
			},
			&cli.IntFlag{
				Name:  "cols",
				Value: 6,
				Usage: "Columns of a new level when editing without --level",
			},
			&cli.DurationFlag{
				Name:    "solve-delay",
				Value:   engine.DefaultSolveDelay,
				Usage:   "Delay before the solved notification",
				Sources: cli.EnvVars("SOLVE_DELAY"),
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write debug logs to this file",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(ctx, Options{
				LevelsDir:  cmd.String("levels-dir"),
				Level:      cmd.String("level"),
				Edit:       cmd.Bool("edit"),
				Rows:       int(cmd.Int("rows")),
				Columns:    int(cmd.Int("cols")),
				SolveDelay: cmd.Duration("solve-delay"),
				LogFile:    cmd.String("log-file"),
			})
		},
	}
}

// buildModel loads the requested level and opens it for play or editing
func buildModel(opts Options) (Model, error) {
	lm, err := levels.NewManager(opts.LevelsDir)
	if err != nil {
		return Model{}, err
	}

	level := lm.GetDefault()
	if opts.Level != "" {
		if level, err = lm.LoadLevel(opts.Level); err != nil {
			return Model{}, err
		}
	}

	if !opts.Edit {
		return NewModel(level, lm, opts.SolveDelay)
	}

	var ed *editor.Editor
	if opts.Level != "" {
		ed, err = editor.FromLevel(level)
	} else {
		ed, err = editor.New(opts.Rows, opts.Columns)
	}
	if err != nil {
		return Model{}, err
	}
	return NewEditorModel(ed, lm, opts.SolveDelay), nil
}

// setupLogging keeps logs off the terminal the UI draws on
func setupLogging(path string) (io.Closer, error) {
	if path == "" {
		logrus.SetOutput(io.Discard)
		return io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	logrus.SetOutput(f)
	logrus.SetLevel(logrus.DebugLevel)
	return f, nil
}

func run(ctx context.Context, opts Options) error {
	closer, err := setupLogging(opts.LogFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer closer.Close()

	model, err := buildModel(opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

func main() {
	_ = godotenv.Load()

	if err := newApp(run).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
