// Command bruteforcer plays a session on a running game server: it plans a
// solution with the solver and replays it through the REST slide endpoint,
// replanning from the server's board whenever a slide lands short.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/sliding-block-game/game/engine"
	"github.com/wricardo/sliding-block-game/game/service"
	"github.com/wricardo/sliding-block-game/game/solver"
)

type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// do sends a JSON request and decodes the response into out
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s %s failed: %s", method, path, resp.Status)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

func (c *Client) CreateSession(ctx context.Context, levelID string) (*engine.GameState, error) {
	req := map[string]string{}
	if levelID != "" {
		req["level_id"] = levelID
	}

	var info service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &info); err != nil {
		return nil, err
	}
	c.sessionID = info.ID
	return info.GameState, nil
}

func (c *Client) GetState(ctx context.Context) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) Reset(ctx context.Context) (*engine.GameState, error) {
	var resp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/reset"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (c *Client) Slide(ctx context.Context, pieceID, cells int) (*service.SlideResult, error) {
	req := map[string]int{"piece_id": pieceID, "cells": cells}
	var result service.SlideResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/slide"), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Options controls one run
type Options struct {
	LevelID     string
	SessionID   string
	MaxAttempts int
	MaxStates   int
	Delay       time.Duration
}

// Outcome summarizes a run
type Outcome struct {
	SessionID string
	Attempts  int
	Moves     int
	Solved    bool
}

var errNotSolved = errors.New("failed to solve the level")

// play resumes or creates a session, resets it and drives the win piece out
func play(ctx context.Context, client *Client, opts Options) (*Outcome, error) {
	var state *engine.GameState
	var err error

	if opts.SessionID != "" {
		client.sessionID = opts.SessionID
		logrus.WithField("session", client.sessionID).Info("Resuming session")
		if state, err = client.GetState(ctx); err != nil {
			logrus.WithError(err).Warn("Failed to resume session, creating a new one")
			client.sessionID = ""
		}
	}
	if client.sessionID == "" {
		if state, err = client.CreateSession(ctx, opts.LevelID); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		logrus.WithFields(logrus.Fields{"session": client.sessionID, "level": state.LevelName}).Info("Session created")
	}

	outcome := &Outcome{SessionID: client.sessionID}
	strategy := NewSolverStrategy(opts.MaxStates)

	for outcome.Attempts < opts.MaxAttempts {
		outcome.Attempts++

		if state, err = client.Reset(ctx); err != nil {
			return outcome, fmt.Errorf("failed to reset: %w", err)
		}
		logrus.WithField("attempt", outcome.Attempts).Info("Starting attempt")

		if err := strategy.Plan(state); err != nil {
			if errors.Is(err, solver.ErrUnsolvable) {
				return outcome, err
			}
			return outcome, fmt.Errorf("%w: %v", errNotSolved, err)
		}
		if strategy.Remaining() == 0 {
			outcome.Solved = true
			return outcome, nil
		}

		for {
			move, ok := strategy.NextMove()
			if !ok {
				break
			}

			result, err := client.Slide(ctx, move.PieceID, move.Cells)
			if err != nil {
				logrus.WithError(err).Warn("Slide failed")
				break
			}
			outcome.Moves++

			logrus.WithFields(logrus.Fields{
				"piece": move.PieceID,
				"from":  result.From,
				"to":    result.To,
			}).Debug("Slide")

			if result.Solved {
				outcome.Solved = true
				return outcome, nil
			}
			if result.MovedCells != move.Cells {
				logrus.WithFields(logrus.Fields{
					"piece":     move.PieceID,
					"planned":   move.Cells,
					"moved":     result.MovedCells,
					"remaining": strategy.Remaining(),
				}).Warn("Slide landed short of the plan")
				break
			}

			if opts.Delay > 0 {
				select {
				case <-ctx.Done():
					return outcome, ctx.Err()
				case <-time.After(opts.Delay):
				}
			}
		}
	}

	return outcome, errNotSolved
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "bruteforcer",
		Usage: "Solve a level on a running game server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL"},
			&cli.StringFlag{Name: "level", Usage: "Level id (server default when empty)"},
			&cli.StringFlag{Name: "continue", Usage: "Resume playing an existing session by ID"},
			&cli.StringFlag{Name: "session-file", Value: ".session", Usage: "File remembering the last session ID"},
			&cli.IntFlag{Name: "max-attempts", Value: 3, Usage: "Maximum attempts before giving up"},
			&cli.IntFlag{Name: "max-states", Value: solver.DefaultMaxStates, Usage: "Solver state budget"},
			&cli.DurationFlag{Name: "delay", Usage: "Delay between slides"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("v") {
				logrus.SetLevel(logrus.DebugLevel)
			}

			sessionFile := cmd.String("session-file")
			sessionID := cmd.String("continue")
			if sessionID == "" && sessionFile != "" {
				if data, err := os.ReadFile(sessionFile); err == nil {
					sessionID = string(bytes.TrimSpace(data))
				}
			}

			logrus.WithField("url", cmd.String("url")).Info("Connecting to game server")
			client := NewClient(cmd.String("url"))

			outcome, err := play(ctx, client, Options{
				LevelID:     cmd.String("level"),
				SessionID:   sessionID,
				MaxAttempts: int(cmd.Int("max-attempts")),
				MaxStates:   int(cmd.Int("max-states")),
				Delay:       cmd.Duration("delay"),
			})
			if outcome != nil && sessionFile != "" {
				if werr := os.WriteFile(sessionFile, []byte(outcome.SessionID), 0644); werr != nil {
					logrus.WithError(werr).Warn("Failed to save session ID")
				}
			}
			if err != nil {
				return err
			}

			logrus.WithFields(logrus.Fields{
				"session":  outcome.SessionID,
				"attempts": outcome.Attempts,
				"moves":    outcome.Moves,
			}).Info("🎉 Level solved")
			return nil
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		logrus.WithError(err).Error("Bruteforcer failed")
		os.Exit(1)
	}
}
