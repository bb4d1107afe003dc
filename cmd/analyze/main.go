// Command analyze prints quick, human-readable heuristics about level files.
// It summarizes board dimensions, piece counts per axis, board occupancy and
// the pieces blocking the exit row, then runs the solver and prints a
// shortest solution.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/sliding-block-game/game/engine"
	"github.com/wricardo/sliding-block-game/game/levels"
	"github.com/wricardo/sliding-block-game/game/solver"
)

// LevelStats is the static summary of a level
type LevelStats struct {
	Name       string
	Rows       int
	Columns    int
	Vertical   int
	Horizontal int
	Occupied   int
	Blockers   []int
}

// Occupancy returns the share of covered cells, 0 to 1
func (s LevelStats) Occupancy() float64 {
	total := s.Rows * s.Columns
	if total == 0 {
		return 0
	}
	return float64(s.Occupied) / float64(total)
}

func computeStats(level *engine.Level) LevelStats {
	stats := LevelStats{
		Name:     level.Name,
		Rows:     level.Board.Rows,
		Columns:  level.Board.Columns,
		Occupied: engine.BuildOccupancy(level, engine.NoPiece).Count(),
		Blockers: engine.ExitBlockers(level),
	}
	for _, p := range level.Pieces {
		if p.Axis == engine.Vertical {
			stats.Vertical++
		} else {
			stats.Horizontal++
		}
	}
	return stats
}

func analyzeLevel(w io.Writer, path string, maxStates int, solve bool) error {
	level, err := levels.ReadLevelFile(path)
	if err != nil {
		fmt.Fprintf(w, "Error loading level: %v\n", err)
		return err
	}

	stats := computeStats(level)
	fmt.Fprintf(w, "Name: %s\n", stats.Name)
	fmt.Fprintf(w, "Board: %d x %d\n", stats.Rows, stats.Columns)
	fmt.Fprintf(w, "Pieces: %d (%d vertical, %d horizontal) plus the win piece\n",
		len(level.Pieces), stats.Vertical, stats.Horizontal)
	fmt.Fprintf(w, "Occupancy: %d/%d cells (%.1f%%)\n",
		stats.Occupied, stats.Rows*stats.Columns, stats.Occupancy()*100)

	for _, line := range engine.RenderBoard(level) {
		fmt.Fprintf(w, "   %s\n", line)
	}

	if engine.HasWon(level.WinPiece, level.Board) {
		fmt.Fprintf(w, "⚠️  WARNING: the win piece already starts at the exit\n")
		return nil
	}
	if len(stats.Blockers) == 0 {
		fmt.Fprintf(w, "✅ Exit row is clear\n")
	} else {
		fmt.Fprintf(w, "Exit row blockers: %v\n", stats.Blockers)
	}

	if !solve {
		return nil
	}

	sol, err := solver.Solve(level, maxStates)
	switch {
	case errors.Is(err, solver.ErrUnsolvable):
		fmt.Fprintf(w, "⚠️  CRITICAL: level cannot be solved (%v)\n", err)
		return nil
	case errors.Is(err, solver.ErrSearchLimit):
		fmt.Fprintf(w, "⚠️  WARNING: gave up after %d states\n", maxStates)
		return nil
	case err != nil:
		return err
	}

	fmt.Fprintf(w, "Solution: %d moves, %d cell steps (%d states explored)\n",
		len(sol.Moves), sol.Steps, sol.StatesExplored)
	for i, m := range sol.Moves {
		fmt.Fprintf(w, "   %d. piece %d (%d,%d) -> (%d,%d) [%+d]\n",
			i+1, m.PieceID, m.From.Row, m.From.Col, m.To.Row, m.To.Col, m.Cells)
	}
	return nil
}

// collectFiles resolves the level files to analyze: explicit paths win over
// the directory scan.
func collectFiles(args []string, dir string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && levels.IsLevelFile(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no level files found in %s", dir)
	}
	return files, nil
}

func newApp(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Print heuristics and shortest solutions for level files",
		ArgsUsage: "[level files...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Value:   "../../levels",
				Usage:   "Directory scanned when no files are given",
				Sources: cli.EnvVars("LEVELS_DIR"),
			},
			&cli.IntFlag{
				Name:  "max-states",
				Value: solver.DefaultMaxStates,
				Usage: "Solver state budget per level",
			},
			&cli.BoolFlag{
				Name:  "no-solve",
				Usage: "Skip the solver",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files, err := collectFiles(cmd.Args().Slice(), cmd.String("dir"))
			if err != nil {
				return err
			}

			failed := 0
			for _, file := range files {
				fmt.Fprintf(w, "\n=== Analyzing %s ===\n", filepath.Base(file))
				if err := analyzeLevel(w, file, int(cmd.Int("max-states")), !cmd.Bool("no-solve")); err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d levels failed to load", failed, len(files))
			}
			return nil
		},
	}
}

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
