package editor

import (
	"fmt"
	"strings"

	"github.com/wricardo/sliding-block-game/game/engine"
)

// Command names accepted by Apply
const (
	CmdToggleMode  = "toggle_mode"
	CmdPlaceWin    = "place_win"
	CmdClearWin    = "clear_win"
	CmdGrowWin     = "grow_win"
	CmdShrinkWin   = "shrink_win"
	CmdPlacePiece  = "place_piece"
	CmdRemovePiece = "remove_piece"
	CmdGrowPiece   = "grow_piece"
	CmdShrinkPiece = "shrink_piece"
	CmdSelect      = "select"
	CmdResize      = "resize"
	CmdRename      = "rename"
)

// Commands lists every command name in a stable order
var Commands = []string{
	CmdToggleMode, CmdPlaceWin, CmdClearWin, CmdGrowWin, CmdShrinkWin,
	CmdPlacePiece, CmdRemovePiece, CmdGrowPiece, CmdShrinkPiece,
	CmdSelect, CmdResize, CmdRename,
}

// Command is a serialisable editor command. Row and Col address a cell;
// PieceID targets a piece and falls back to the selection when nil.
type Command struct {
	Name    string      `json:"command"`
	Row     int         `json:"row,omitempty"`
	Col     int         `json:"col,omitempty"`
	Axis    engine.Axis `json:"axis,omitempty"`
	PieceID *int        `json:"piece_id,omitempty"`
	Rows    int         `json:"rows,omitempty"`
	Columns int         `json:"columns,omitempty"`
	Text    string      `json:"text,omitempty"`
}

// Result reports the outcome of one command
type Result struct {
	Command string `json:"command"`
	Applied bool   `json:"applied"`
	PieceID *int   `json:"piece_id,omitempty"`
	Mode    Mode   `json:"mode"`
	Message string `json:"message"`
}

// Apply runs a command. A rejected command yields Applied false and leaves
// the level unchanged; only malformed input returns an error.
func (e *Editor) Apply(cmd Command) (*Result, error) {
	name := strings.ToLower(strings.TrimSpace(cmd.Name))
	cell := engine.Cell{Row: cmd.Row, Col: cmd.Col}
	res := &Result{Command: name}

	switch name {
	case CmdToggleMode:
		e.ToggleMode()
		res.Applied = true
	case CmdPlaceWin:
		res.Applied = e.PlaceWinPiece(cell)
	case CmdClearWin:
		res.Applied = e.ClearWinPiece()
	case CmdGrowWin:
		res.Applied = e.GrowWinPiece()
	case CmdShrinkWin:
		res.Applied = e.ShrinkWinPiece()
	case CmdPlacePiece:
		axis := cmd.Axis
		if axis == "" {
			axis = engine.Vertical
		}
		if !axis.Valid() {
			return nil, fmt.Errorf("%w: invalid axis %q", ErrInvalidCommand, cmd.Axis)
		}
		if id, ok := e.PlacePiece(cell, axis); ok {
			res.Applied = true
			res.PieceID = &id
		}
	case CmdRemovePiece, CmdGrowPiece, CmdShrinkPiece:
		id, ok := e.target(cmd.PieceID)
		if !ok {
			break
		}
		res.PieceID = &id
		switch name {
		case CmdRemovePiece:
			res.Applied = e.RemovePiece(id)
		case CmdGrowPiece:
			res.Applied = e.GrowPiece(id)
		default:
			res.Applied = e.ShrinkPiece(id)
		}
	case CmdSelect:
		res.Applied = e.Select(cell)
		if id, ok := e.Selected(); ok {
			res.PieceID = &id
		}
	case CmdResize:
		if err := e.Resize(cmd.Rows, cmd.Columns); err != nil {
			return nil, err
		}
		res.Applied = true
	case CmdRename:
		if strings.TrimSpace(cmd.Text) == "" {
			return nil, fmt.Errorf("%w: rename requires text", ErrInvalidCommand)
		}
		e.SetName(strings.TrimSpace(cmd.Text))
		res.Applied = true
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
	}

	res.Mode = e.mode
	if res.Applied {
		res.Message = fmt.Sprintf("%s applied", name)
	} else {
		res.Message = fmt.Sprintf("%s rejected", name)
	}
	return res, nil
}

func (e *Editor) target(id *int) (int, bool) {
	if id != nil {
		return *id, true
	}
	return e.Selected()
}

// CommandForKey maps a key press at the cursor to a command for the current
// mode. Keys without a binding in the mode report false.
func (e *Editor) CommandForKey(key string, cursor engine.Cell) (Command, bool) {
	at := func(name string) Command {
		return Command{Name: name, Row: cursor.Row, Col: cursor.Col}
	}

	key = strings.ToLower(key)
	if key == " " || key == "space" {
		return Command{Name: CmdToggleMode}, true
	}
	if key == "click" || key == "enter" {
		if e.mode == ModePieces {
			return at(CmdSelect), true
		}
		return Command{}, false
	}

	if e.mode == ModeWin {
		switch key {
		case "z":
			return at(CmdPlaceWin), true
		case "c":
			return Command{Name: CmdClearWin}, true
		case "w":
			return Command{Name: CmdGrowWin}, true
		case "s":
			return Command{Name: CmdShrinkWin}, true
		}
		return Command{}, false
	}

	switch key {
	case "z":
		cmd := at(CmdPlacePiece)
		cmd.Axis = engine.Vertical
		return cmd, true
	case "x":
		cmd := at(CmdPlacePiece)
		cmd.Axis = engine.Horizontal
		return cmd, true
	case "c":
		return Command{Name: CmdRemovePiece}, true
	case "w":
		return Command{Name: CmdGrowPiece}, true
	case "s":
		return Command{Name: CmdShrinkPiece}, true
	}
	return Command{}, false
}

// HandleKey applies the command bound to key. Unbound keys return a nil
// result.
func (e *Editor) HandleKey(key string, cursor engine.Cell) (*Result, error) {
	cmd, ok := e.CommandForKey(key, cursor)
	if !ok {
		return nil, nil
	}
	return e.Apply(cmd)
}
