/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package player

import (
	"errors"
	"sync/atomic"
)

// ErrEmptyLibrary is returned when the library holds no tracks. Every
// index operation is a modulo over the track count, so the player refuses
// to start.
var ErrEmptyLibrary = errors.New("library is empty: no tracks to play")

// State is the playback state shared by every loop. Fields are single
// atomic words and nothing else guards them: readers see the last store,
// and pollers converge within one poll interval. Do not add a mutex here.
type State struct {
	trackCount int
	current    atomic.Int64
	playing    atomic.Bool
}

// NewState returns a paused state selecting track 0.
func NewState(trackCount int) (*State, error) {
	if trackCount <= 0 {
		return nil, ErrEmptyLibrary
	}
	return &State{trackCount: trackCount}, nil
}

func (s *State) TrackCount() int { return s.trackCount }

func (s *State) Current() int { return int(s.current.Load()) }

func (s *State) Playing() bool { return s.playing.Load() }

func (s *State) advance() {
	n := int64(s.trackCount)
	s.current.Store((s.current.Load() + 1) % n)
}

func (s *State) retreat() {
	n := int64(s.trackCount)
	s.current.Store((s.current.Load() - 1 + n) % n)
}

func (s *State) togglePlay() {
	s.playing.Store(!s.playing.Load())
}

func (s *State) selectTrack(i int) {
	s.current.Store(int64(i))
}

// ClearPlaying is called by the playback driver when a track returns, so a
// finished track does not look like it is still running.
func (s *State) ClearPlaying() {
	s.playing.Store(false)
}
