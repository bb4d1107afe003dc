// Command validate provides a small CLI that validates level files
// (.json, .yaml, .yml) in a level directory. It checks:
//   - File syntax and the level schema
//   - Board dimensions within the supported range
//   - A horizontal win piece with the reserved id
//   - Unique piece ids, positive lengths, valid axes
//   - Every piece on the board and no two pieces overlapping
//   - The win piece does not already start at the exit
//   - Optionally, that the level can be solved at all
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/sliding-block-game/game/engine"
	"github.com/wricardo/sliding-block-game/game/levels"
	"github.com/wricardo/sliding-block-game/game/solver"
)

// Options selects the optional checks
type Options struct {
	RequireSolvable bool
	MaxStates       int
}

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateLevel loads and validates a single level file.
func validateLevel(filePath string, opts Options) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	level, err := levels.ParseLevel(data, filepath.Ext(filePath))
	if err != nil {
		result.fail("Invalid syntax: %v", err)
		return result
	}

	if strings.TrimSpace(level.Name) == "" {
		result.fail("Level name is empty")
	}

	if err := engine.ValidateLevel(level); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "level validation: "))
		return result
	}

	result.info("Board: %dx%d", level.Board.Rows, level.Board.Columns)
	result.info("Pieces: %d plus the win piece", len(level.Pieces))

	if engine.HasWon(level.WinPiece, level.Board) {
		result.fail("Win piece already starts at the exit")
		return result
	}

	if blockers := engine.ExitBlockers(level); len(blockers) > 0 {
		result.info("Pieces blocking the exit row: %v", blockers)
	}

	if opts.RequireSolvable {
		validateSolvable(&result, level, opts.MaxStates)
	}

	return result
}

func validateSolvable(result *ValidationResult, level *engine.Level, maxStates int) {
	sol, err := solver.Solve(level, maxStates)
	switch {
	case errors.Is(err, solver.ErrUnsolvable):
		result.fail("Level cannot be solved")
	case errors.Is(err, solver.ErrSearchLimit):
		result.fail("Solvability unknown: %v", err)
	case err != nil:
		result.fail("Solver failed: %v", err)
	default:
		result.info("Solvable in %d moves (%d states explored)", len(sol.Moves), sol.StatesExplored)
	}
}

// levelFiles returns every level file in dir, sorted by name
func levelFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !levels.IsLevelFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// validateDir validates every level file in dir, printing a concise report
// to w. It reports whether all files are valid.
func validateDir(w io.Writer, dir string, opts Options) (bool, error) {
	files, err := levelFiles(dir)
	if err != nil {
		return false, fmt.Errorf("error finding level files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no level files found in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateLevel(file, opts)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(w, "  ❌ "+err)
				}
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All levels are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some levels have errors")
	}
	return allValid, nil
}

var errInvalidLevels = errors.New("some levels have errors")

func newApp(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate level files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Value:   "../levels",
				Usage:   "Directory containing level files",
				Sources: cli.EnvVars("LEVELS_DIR"),
			},
			&cli.BoolFlag{
				Name:  "require-solvable",
				Usage: "Fail levels the solver cannot solve",
			},
			&cli.IntFlag{
				Name:  "max-states",
				Value: solver.DefaultMaxStates,
				Usage: "Solver state budget per level",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := Options{
				RequireSolvable: cmd.Bool("require-solvable"),
				MaxStates:       int(cmd.Int("max-states")),
			}
			ok, err := validateDir(w, cmd.String("dir"), opts)
			if err != nil {
				return err
			}
			if !ok {
				return errInvalidLevels
			}
			return nil
		},
	}
}

// main validates the level directory and exits with non-zero status if any
// level is invalid.
func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errInvalidLevels) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
