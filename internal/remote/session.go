/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package remote

import (
	"context"
	"time"

	"wavpod/internal/logger"
	"wavpod/internal/metrics"
	"wavpod/internal/player"
	"wavpod/pkg/spec"
)

// Transport is a byte link with readiness polling and no flow control
// beyond it. A disconnected transport just never reports ready.
// Generation changes whenever a different peer takes the link.
type Transport interface {
	Readable() bool
	Writable() bool
	ReadByte() (byte, error)
	Write(p []byte) (int, error)
	Generation() uint64
}

// Library resolves a track index to its identifier.
type Library interface {
	Name(i int) string
}

const noTrack = -1

// Session drives the control surface from inbound frames and pushes a
// "now playing" line whenever the selected track changes. It owns its
// last pushed index; nothing else reads it.
type Session struct {
	tr       Transport
	ctrl     *player.Control
	lib      Library
	interval time.Duration

	dec        Decoder
	lastPushed int
	gen        uint64
}

func NewSession(tr Transport, ctrl *player.Control, lib Library, interval time.Duration) *Session {
	if interval <= 0 {
		interval = spec.PollInterval
	}
	return &Session{
		tr:         tr,
		ctrl:       ctrl,
		lib:        lib,
		interval:   interval,
		lastPushed: noTrack,
	}
}

// Run polls until ctx is done.
func (s *Session) Run(ctx context.Context) {
	s.restart(s.tr.Generation())

	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		s.Step()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Step is one poll: push status if due, then consume inbound bytes up to
// the end of one frame.
func (s *Session) Step() {
	if gen := s.tr.Generation(); gen != s.gen {
		s.restart(gen)
	}
	s.push()
	s.read()
}

// restart forgets the half-read frame and the last push so a new peer
// starts clean and is told the current track.
func (s *Session) restart(gen uint64) {
	s.gen = gen
	s.dec.Reset()
	s.lastPushed = noTrack
}

// StatusLine is the notification pushed when track id becomes current.
func StatusLine(id string) []byte {
	return []byte(spec.StatusPrefix + spec.DisplayName(id) + "\n")
}

func (s *Session) push() {
	if !s.tr.Writable() {
		return
	}
	cur := s.ctrl.State().Current()
	if cur == s.lastPushed {
		return
	}
	if _, err := s.tr.Write(StatusLine(s.lib.Name(cur))); err != nil {
		logger.Debug("status push failed", logger.ErrorField(err))
		return
	}
	s.lastPushed = cur
	metrics.StatusPushes.Inc()
}

func (s *Session) read() {
	for s.tr.Readable() {
		b, err := s.tr.ReadByte()
		if err != nil {
			return
		}

		res, op := s.dec.Feed(b)
		switch res {
		case Pending:
			continue
		case Dropped:
			metrics.RemoteFrames.WithLabelValues(res.String()).Inc()
			continue
		case Command:
			s.ctrl.Apply(op, player.SourceRemote)
		}
		metrics.RemoteFrames.WithLabelValues(res.String()).Inc()
		return
	}
}
