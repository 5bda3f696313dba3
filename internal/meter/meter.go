/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

// Package meter drives the four-step output level indicator.
package meter

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/mjibson/go-dsp/window"

	"wavpod/internal/logger"
	"wavpod/internal/metrics"
	"wavpod/internal/player"
	"wavpod/pkg/spec"
)

// DefaultWindow is how many recent output samples one reading covers.
const DefaultWindow = 1024

// Sampler hands out the most recent n mono output samples in [-1, 1].
type Sampler interface {
	Samples(n int) []float64
}

// Indicator shows a tier by lighting that many of its lamps.
type Indicator interface {
	Set(lit int) error
}

// Level is the Hann-windowed RMS of samples scaled so a full-scale sine
// reads spec.FullScale.
func Level(samples []float64) float64 {
	n := len(samples)
	if n == 0 {
		return 0
	}

	var w []float64
	if n < 2 {
		w = []float64{1}
	} else {
		w = window.Hann(n)
	}

	var sum, norm float64
	for i, s := range samples {
		v := s * w[i]
		sum += v * v
		norm += w[i] * w[i]
	}
	if norm == 0 {
		return 0
	}

	rms := math.Sqrt(sum/norm) * math.Sqrt2
	return math.Min(rms, 1) * spec.FullScale
}

// Tier maps a level onto 1..spec.Indicators. A level equal to a threshold
// belongs to the upper tier.
func Tier(level float64) int {
	switch {
	case level < spec.Threshold1:
		return 1
	case level < spec.Threshold2:
		return 2
	case level < spec.Threshold3:
		return 3
	default:
		return 4
	}
}

// Bar remembers the last tier so the display can draw it.
type Bar struct {
	lit atomic.Int32
}

func (b *Bar) Set(lit int) error {
	b.lit.Store(int32(lit))
	return nil
}

func (b *Bar) Lit() int { return int(b.lit.Load()) }

// Loop samples the output while playing and updates the indicators when
// the tier moves. While paused it leaves them as they were.
type Loop struct {
	state      *player.State
	sampler    Sampler
	indicators []Indicator
	interval   time.Duration
	window     int

	last int
}

func NewLoop(state *player.State, sampler Sampler, interval time.Duration, indicators ...Indicator) *Loop {
	if interval <= 0 {
		interval = spec.PollInterval
	}
	return &Loop{
		state:      state,
		sampler:    sampler,
		indicators: indicators,
		interval:   interval,
		window:     DefaultWindow,
	}
}

// Step takes one reading. It returns the tier shown afterwards, 0 if
// nothing has been shown yet.
func (l *Loop) Step() int {
	if !l.state.Playing() {
		return l.last
	}

	tier := Tier(Level(l.sampler.Samples(l.window)))
	if tier == l.last {
		return tier
	}

	for _, ind := range l.indicators {
		if err := ind.Set(tier); err != nil {
			logger.Warn("indicator update failed", logger.ErrorField(err))
		}
	}
	l.last = tier
	metrics.MeterTier.Set(float64(tier))
	return tier
}

// Run steps every interval until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	t := time.NewTicker(l.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Step()
		}
	}
}
