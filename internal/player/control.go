/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package player

import (
	"context"

	"wavpod/internal/logger"
	"wavpod/internal/metrics"
	"wavpod/internal/sensor"
)

// Op is one of the four state mutations every input surface maps onto.
type Op int

const (
	OpNone Op = iota
	OpTogglePlay
	OpNext
	OpPrev
	OpShuffle
)

func (o Op) String() string {
	switch o {
	case OpTogglePlay:
		return "toggle_play"
	case OpNext:
		return "next"
	case OpPrev:
		return "prev"
	case OpShuffle:
		return "shuffle"
	default:
		return "none"
	}
}

// Input sources, used as metric labels.
const (
	SourceButton   = "button"
	SourceKeyboard = "keyboard"
	SourceRemote   = "remote"
)

// Event is an input edge waiting to be applied.
type Event struct {
	Op     Op
	Source string
}

// Control is the only mutator of State. Apply does no I/O and never
// blocks, so it is safe from any goroutine.
type Control struct {
	state   *State
	entropy sensor.Source
}

func NewControl(state *State, entropy sensor.Source) *Control {
	if entropy == nil {
		entropy = sensor.ClockNoise{}
	}
	return &Control{state: state, entropy: entropy}
}

func (c *Control) State() *State { return c.state }

func (c *Control) Advance() { c.state.advance() }

func (c *Control) Retreat() { c.state.retreat() }

func (c *Control) TogglePlay() { c.state.togglePlay() }

func (c *Control) Shuffle() {
	c.state.selectTrack(sensor.Index(c.entropy.Sample(), c.state.trackCount))
}

// Apply runs op and records where it came from.
func (c *Control) Apply(op Op, source string) {
	switch op {
	case OpTogglePlay:
		c.TogglePlay()
	case OpNext:
		c.Advance()
	case OpPrev:
		c.Retreat()
	case OpShuffle:
		c.Shuffle()
	default:
		return
	}
	metrics.ControlOps.WithLabelValues(op.String(), source).Inc()
	logger.Debug("control",
		logger.String("op", op.String()),
		logger.String("source", source),
		logger.Int("track", c.state.Current()),
		logger.Bool("playing", c.state.Playing()),
	)
}

// Run applies input edges until ctx is done or events is closed. Button
// and keyboard readers send here instead of touching State themselves.
func (c *Control) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.Apply(ev.Op, ev.Source)
		}
	}
}
