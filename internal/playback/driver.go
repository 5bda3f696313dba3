/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

// Package playback owns the track files: it enumerates the library, opens
// the selected track and hands it to the audio output.
package playback

import (
	"context"
	"errors"
	"io"
	"time"

	"wavpod/internal/logger"
	"wavpod/internal/metrics"
	"wavpod/internal/player"
	"wavpod/pkg/spec"
)

// Tracks is a library the driver can open tracks from.
type Tracks interface {
	Name(i int) string
	Open(i int) (io.ReadSeekCloser, error)
}

// Player performs one blocking playback of track from r.
type Player interface {
	Play(ctx context.Context, r io.ReadSeeker, track int) error
}

// Reporter surfaces an open failure to the user.
type Reporter interface {
	ReportOpenError()
}

// Driver is the main loop: open the selected track, play it, clear the
// play flag, repeat. It is the only code that opens or closes track files.
type Driver struct {
	state    *player.State
	tracks   Tracks
	player   Player
	reporter Reporter
	delay    time.Duration
}

// NewDriver builds a driver. reporter may be nil. delay is the settle time
// after every open attempt; negative means spec.OpenDelay.
func NewDriver(state *player.State, tracks Tracks, pl Player, reporter Reporter, delay time.Duration) *Driver {
	if delay < 0 {
		delay = spec.OpenDelay
	}
	return &Driver{
		state:    state,
		tracks:   tracks,
		player:   pl,
		reporter: reporter,
		delay:    delay,
	}
}

// Run steps until ctx is done.
func (d *Driver) Run(ctx context.Context) {
	for ctx.Err() == nil {
		d.Step(ctx)
	}
}

// Step is one open/play cycle for whatever track is selected now. It
// returns ctx.Err() once ctx is done and nil otherwise; failures are
// reported and logged, never returned.
func (d *Driver) Step(ctx context.Context) error {
	track := d.state.Current()
	name := d.tracks.Name(track)

	f, err := d.tracks.Open(track)
	if err != nil {
		logger.Warn("open track failed", logger.String("track", name), logger.ErrorField(err))
		metrics.OpenErrors.Inc()
		if d.reporter != nil {
			d.reporter.ReportOpenError()
		}
		return d.settle(ctx)
	}

	if err := d.settle(ctx); err != nil {
		f.Close()
		return err
	}

	logger.Info("track opened", logger.Int("index", track), logger.String("track", name))
	err = d.player.Play(ctx, f, track)
	f.Close()
	d.state.ClearPlaying()
	metrics.TracksPlayed.Inc()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("playback failed", logger.String("track", name), logger.ErrorField(err))
	}
	return ctx.Err()
}

func (d *Driver) settle(ctx context.Context) error {
	if d.delay == 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
