/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package playback

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"

	"wavpod/internal/player"
)

const (
	// how often a playing track re-reads the shared state
	liveInterval = 25 * time.Millisecond
	bufferTime   = 100 * time.Millisecond
	resampleQ    = 4
	tapSize      = 4096
)

// BeepPlayer plays wav tracks on the default sound card. The play flag
// drives a live pause; selecting another track ends the call early.
type BeepPlayer struct {
	state *player.State
	rate  beep.SampleRate
	tap   *Tap

	initOnce sync.Once
	initErr  error
}

func NewBeepPlayer(state *player.State, sampleRate int) *BeepPlayer {
	return &BeepPlayer{
		state: state,
		rate:  beep.SampleRate(sampleRate),
		tap:   NewTap(tapSize),
	}
}

// Tap is the output the level meter reads.
func (p *BeepPlayer) Tap() *Tap { return p.tap }

func (p *BeepPlayer) init() error {
	p.initOnce.Do(func() {
		if err := speaker.Init(p.rate, p.rate.N(bufferTime)); err != nil {
			p.initErr = fmt.Errorf("speaker init: %w", err)
		}
	})
	return p.initErr
}

// Play blocks until the track ends, the selection moves off track, or ctx
// is done.
func (p *BeepPlayer) Play(ctx context.Context, r io.ReadSeeker, track int) error {
	if err := p.init(); err != nil {
		return err
	}

	src, format, err := DecodeWAV(r)
	if err != nil {
		return err
	}
	if format.SampleRate != p.rate {
		src = beep.Resample(resampleQ, format.SampleRate, p.rate, src)
	}

	ctrl := &beep.Ctrl{
		Streamer: p.tap.Wrap(src),
		Paused:   !p.state.Playing(),
	}

	done := make(chan struct{})
	speaker.Clear()
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		close(done)
	})))

	finished, err := follow(ctx, p.state, track, ctrl, done, liveInterval, speakerLock{}, speaker.Clear)
	if finished {
		return src.Err()
	}
	return err
}

// speakerLock guards streamers the mixer is pulling from.
type speakerLock struct{}

func (speakerLock) Lock()   { speaker.Lock() }
func (speakerLock) Unlock() { speaker.Unlock() }

// follow keeps ctrl paused in step with the play flag, checking every
// interval under mu. It reports finished once done closes. When ctx ends
// or track stops being current it calls stop and returns early.
func follow(ctx context.Context, state *player.State, track int, ctrl *beep.Ctrl,
	done <-chan struct{}, interval time.Duration, mu sync.Locker, stop func()) (finished bool, err error) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-done:
			return true, nil
		case <-ctx.Done():
			stop()
			return false, ctx.Err()
		case <-t.C:
			if state.Current() != track {
				stop()
				return false, nil
			}
			mu.Lock()
			ctrl.Paused = !state.Playing()
			mu.Unlock()
		}
	}
}
