/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package remote

import (
	"wavpod/internal/player"
	"wavpod/pkg/spec"
)

// Result is what a byte did to the frame being assembled.
type Result int

const (
	Pending Result = iota // byte accepted, frame incomplete
	Dropped               // byte did not match the preamble and was discarded
	Ignored               // frame complete, but press edge or unknown code
	Command               // frame complete with an action
)

func (r Result) String() string {
	switch r {
	case Pending:
		return "pending"
	case Dropped:
		return "dropped"
	case Ignored:
		return "ignored"
	default:
		return "command"
	}
}

const (
	stageStart = iota
	stageButton
	stageCode
	stageEdge
)

// Decoder assembles control pad frames one byte at a time. Its position
// survives between polls, so a frame split across reads still decodes.
// There is no resync buffer: a preamble mismatch throws away only the
// offending byte and the scan restarts at the next one.
type Decoder struct {
	stage int
	code  byte
}

// Feed consumes b. When the result is Command, op holds the action.
func (d *Decoder) Feed(b byte) (Result, player.Op) {
	switch d.stage {
	case stageStart:
		if b != spec.FrameStart {
			return Dropped, player.OpNone
		}
		d.stage = stageButton
		return Pending, player.OpNone

	case stageButton:
		if b != spec.FrameButton {
			d.stage = stageStart
			return Dropped, player.OpNone
		}
		d.stage = stageCode
		return Pending, player.OpNone

	case stageCode:
		d.code = b
		d.stage = stageEdge
		return Pending, player.OpNone
	}

	// stageEdge
	d.stage = stageStart
	if b != spec.EdgeRelease {
		return Ignored, player.OpNone
	}
	op := codeOp(d.code)
	if op == player.OpNone {
		return Ignored, player.OpNone
	}
	return Command, op
}

// Reset drops any partially assembled frame.
func (d *Decoder) Reset() {
	d.stage = stageStart
}

func codeOp(code byte) player.Op {
	switch code {
	case spec.CodePlayPause:
		return player.OpTogglePlay
	case spec.CodeNext:
		return player.OpNext
	case spec.CodePrev:
		return player.OpPrev
	case spec.CodeShuffle:
		return player.OpShuffle
	default:
		return player.OpNone
	}
}

// Encode builds the release frame for op, as a control pad would send it.
func Encode(op player.Op) []byte {
	var code byte
	switch op {
	case player.OpTogglePlay:
		code = spec.CodePlayPause
	case player.OpNext:
		code = spec.CodeNext
	case player.OpPrev:
		code = spec.CodePrev
	case player.OpShuffle:
		code = spec.CodeShuffle
	default:
		return nil
	}
	return []byte{spec.FrameStart, spec.FrameButton, code, spec.EdgeRelease}
}
