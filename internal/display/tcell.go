/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package display

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"wavpod/internal/player"
)

// TcellSurface renders onto a terminal cell grid.
type TcellSurface struct {
	screen   tcell.Screen
	style    tcell.Style
	col, row int
}

// OpenTerminal takes over the controlling terminal.
func OpenTerminal() (*TcellSurface, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("new screen: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	return NewTcellSurface(s), nil
}

func NewTcellSurface(screen tcell.Screen) *TcellSurface {
	style := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	screen.SetStyle(style)
	screen.HideCursor()
	return &TcellSurface{screen: screen, style: style}
}

func (t *TcellSurface) Clear() {
	t.screen.Clear()
	t.col, t.row = 0, 0
}

func (t *TcellSurface) Locate(col, row int) {
	t.col, t.row = col, row
}

func (t *TcellSurface) Print(s string) {
	for _, r := range s {
		if r == '\n' {
			t.col = 0
			t.row++
			continue
		}
		t.screen.SetContent(t.col, t.row, r, nil, t.style)
		t.col++
	}
}

func (t *TcellSurface) Flush() {
	t.screen.Show()
}

// Close gives the terminal back. A pending Keys call returns.
func (t *TcellSurface) Close() {
	t.screen.Fini()
}

// Keys turns key presses on the terminal into control events until the
// screen is closed. q, Esc and Ctrl-C call quit.
//
//	space  play/pause   n  next   p  previous   s  shuffle
func (t *TcellSurface) Keys(ctx context.Context, events chan<- player.Event, quit func()) {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}

		switch ev := ev.(type) {
		case *tcell.EventResize:
			t.screen.Sync()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlC || ev.Key() == tcell.KeyEscape {
				quit()
				continue
			}
			if ev.Key() != tcell.KeyRune {
				continue
			}
			if ev.Rune() == 'q' {
				quit()
				continue
			}
			if op := keyOp(ev.Rune()); op != player.OpNone {
				select {
				case events <- player.Event{Op: op, Source: player.SourceKeyboard}:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func keyOp(r rune) player.Op {
	switch r {
	case ' ':
		return player.OpTogglePlay
	case 'n':
		return player.OpNext
	case 'p':
		return player.OpPrev
	case 's':
		return player.OpShuffle
	default:
		return player.OpNone
	}
}
