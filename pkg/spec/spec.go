/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package spec

import "time"

const (
	// === IDENTITY & VERSIONING ===
	Version = "1.0.0"
	AppName = "WAVPOD"

	// === CONTROL PAD FRAME ===
	// '!' 'B' <code> <edge>
	FrameStart    = '!'
	FrameButton   = 'B'
	EdgeRelease   = '0'
	CodePlayPause = '1'
	CodeNext      = '2'
	CodePrev      = '3'
	CodeShuffle   = '4'

	// === STATUS PUSH ===
	StatusPrefix = "Current Song: "

	// === LIBRARY ===
	TrackExt  = ".wav"
	SuffixLen = 4

	// === TIMING ===
	PollInterval = 50 * time.Millisecond
	OpenDelay    = time.Second

	// === LEVEL METER (volts over the DAC full scale) ===
	FullScale  = 3.3
	Threshold1 = 0.825
	Threshold2 = 1.65
	Threshold3 = 2.47
	Indicators = 4
)

// DisplayName drops the fixed-width extension suffix from a track identifier.
func DisplayName(id string) string {
	if len(id) < SuffixLen {
		return id
	}
	return id[:len(id)-SuffixLen]
}
