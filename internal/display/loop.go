/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package display

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"wavpod/internal/player"
	"wavpod/pkg/spec"
)

// Surface is a cursor-addressed text screen. Nothing reaches the glass
// until Flush.
type Surface interface {
	Clear()
	Locate(col, row int)
	Print(s string)
	Flush()
}

type Library interface {
	Name(i int) string
	Len() int
}

// LevelSource reports how many meter indicators are lit.
type LevelSource interface {
	Lit() int
}

const (
	header       = "Song List: "
	marker       = "->"
	nowPlaying   = "NOW PLAYING:"
	statusPlay   = "STATUS: PLAYING"
	statusPause  = "STATUS: PAUSED "
	entryCol     = 3
	listTop      = 1
	minLabelRow  = 12
	labelWidth   = 16
	levelPrefix  = "LEVEL: "
	openErrorMsg = "file open error!"
)

// Loop repaints only what changed in the shared state since its last
// poll. It is the only writer to its surface.
type Loop struct {
	surf     Surface
	state    *player.State
	lib      Library
	level    LevelSource
	interval time.Duration

	labelRow  int
	nameWidth int

	lastTrack   int
	lastPlaying bool
	lastLit     int

	pendingErr atomic.Pointer[string]
}

func NewLoop(surf Surface, state *player.State, lib Library, level LevelSource, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = spec.PollInterval
	}

	l := &Loop{
		surf:     surf,
		state:    state,
		lib:      lib,
		level:    level,
		interval: interval,
		labelRow: minLabelRow,
		lastLit:  -1,
	}
	if n := lib.Len(); n+listTop > l.labelRow {
		l.labelRow = n + listTop
	}
	for i := 0; i < lib.Len(); i++ {
		if w := len(spec.DisplayName(lib.Name(i))); w > l.nameWidth {
			l.nameWidth = w
		}
	}
	return l
}

func (l *Loop) nameRow() int   { return l.labelRow + 1 }
func (l *Loop) statusRow() int { return l.labelRow + 2 }
func (l *Loop) levelRow() int  { return l.labelRow + 3 }

// ReportError queues msg for the label row. Safe from any goroutine; only
// the latest message is kept.
func (l *Loop) ReportError(msg string) {
	l.pendingErr.Store(&msg)
}

// ReportOpenError shows the standard file-open failure text.
func (l *Loop) ReportOpenError() {
	l.ReportError(openErrorMsg)
}

// Init draws the static listing and the current selection.
func (l *Loop) Init() {
	l.surf.Clear()

	l.surf.Locate(0, 0)
	l.surf.Print(header)
	for i := 0; i < l.lib.Len(); i++ {
		l.surf.Locate(entryCol, listTop+i)
		l.surf.Print(spec.DisplayName(l.lib.Name(i)))
	}

	l.lastTrack = l.state.Current()
	l.lastPlaying = l.state.Playing()

	l.surf.Locate(0, listTop+l.lastTrack)
	l.surf.Print(marker)
	l.drawNowPlaying(l.lastTrack)
	l.drawStatus(l.lastPlaying)
	if l.level != nil {
		l.lastLit = l.level.Lit()
		l.drawLevel(l.lastLit)
	}

	l.surf.Flush()
}

// Run calls Init, then polls until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	l.Init()

	t := time.NewTicker(l.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Poll()
		}
	}
}

// Poll compares the shared state against what is on screen and repaints
// the regions that differ. Intermediate values between polls are never
// drawn.
func (l *Loop) Poll() {
	dirty := false

	if msg := l.pendingErr.Swap(nil); msg != nil {
		l.surf.Locate(0, l.labelRow)
		l.surf.Print(pad(*msg, labelWidth))
		dirty = true
	}

	if cur := l.state.Current(); cur != l.lastTrack {
		l.drawNowPlaying(cur)
		l.surf.Locate(0, listTop+l.lastTrack)
		l.surf.Print("  ")
		l.surf.Locate(0, listTop+cur)
		l.surf.Print(marker)
		l.lastTrack = cur
		dirty = true
	}

	if playing := l.state.Playing(); playing != l.lastPlaying {
		l.drawStatus(playing)
		l.lastPlaying = playing
		dirty = true
	}

	if l.level != nil {
		if lit := l.level.Lit(); lit != l.lastLit {
			l.drawLevel(lit)
			l.lastLit = lit
			dirty = true
		}
	}

	if dirty {
		l.surf.Flush()
	}
}

func (l *Loop) drawNowPlaying(track int) {
	l.surf.Locate(0, l.labelRow)
	l.surf.Print(pad(nowPlaying, labelWidth))
	l.surf.Locate(0, l.nameRow())
	l.surf.Print(pad(spec.DisplayName(l.lib.Name(track)), l.nameWidth))
}

func (l *Loop) drawStatus(playing bool) {
	l.surf.Locate(0, l.statusRow())
	if playing {
		l.surf.Print(statusPlay)
	} else {
		l.surf.Print(statusPause)
	}
}

func (l *Loop) drawLevel(lit int) {
	lit = max(0, min(lit, spec.Indicators))
	l.surf.Locate(0, l.levelRow())
	l.surf.Print(levelPrefix + "[" + strings.Repeat("#", lit) + strings.Repeat(" ", spec.Indicators-lit) + "]")
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
