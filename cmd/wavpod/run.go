/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"wavpod/internal/buttons"
	"wavpod/internal/config"
	"wavpod/internal/display"
	"wavpod/internal/logger"
	"wavpod/internal/meter"
	"wavpod/internal/metrics"
	"wavpod/internal/playback"
	"wavpod/internal/player"
	"wavpod/internal/remote"
	"wavpod/internal/sensor"
	"wavpod/internal/transport"
	"wavpod/pkg/spec"
)

// run starts every loop and blocks in the playback driver until ctx is
// done.
func run(ctx context.Context, cfg *config.Config) error {
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.Log.Level),
		OutputPath: cfg.Log.Path,
		Console:    !cfg.Display.Enabled,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     7,
	})
	defer logger.Sync()

	lib, err := playback.Enumerate(cfg.Library.Dir, cfg.Library.Ext)
	if err != nil {
		return err
	}
	state, err := player.NewState(lib.Len())
	if err != nil {
		if errors.Is(err, player.ErrEmptyLibrary) {
			return fmt.Errorf("no %s files in %s: %w", cfg.Library.Ext, cfg.Library.Dir, err)
		}
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	spawn := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	ctrl := player.NewControl(state, entropy(cfg))
	events := make(chan player.Event, 16)
	spawn(func() { ctrl.Run(ctx, events) })

	startRemote(ctx, cfg, ctrl, lib, spawn)

	out := playback.NewBeepPlayer(state, cfg.Playback.SampleRate)

	bar := &meter.Bar{}
	indicators := []meter.Indicator{bar}
	if len(cfg.Meter.LEDs) > 0 {
		leds, err := meter.NewLEDs(cfg.Meter.LEDRoot, cfg.Meter.LEDs)
		if err != nil {
			logger.Warn("level leds disabled", logger.ErrorField(err))
		} else {
			indicators = append(indicators, leds)
		}
	}
	levels := meter.NewLoop(state, out.Tap(), cfg.Loop.PollInterval, indicators...)
	spawn(func() { levels.Run(ctx) })

	var reporter playback.Reporter
	if cfg.Display.Enabled {
		term, err := display.OpenTerminal()
		if err != nil {
			return err
		}
		defer term.Close()

		screen := display.NewLoop(term, state, lib, bar, cfg.Loop.PollInterval)
		reporter = screen
		spawn(func() { screen.Run(ctx) })
		go term.Keys(ctx, events, cancel)
	}

	if cfg.Buttons.Device != "" {
		pad, err := buttons.Open(cfg.Buttons.Device, cfg.ButtonKeys(), cfg.Buttons.Debounce)
		if err != nil {
			logger.Warn("buttons disabled", logger.ErrorField(err))
		} else {
			spawn(func() {
				if err := pad.Run(ctx, events); err != nil {
					logger.Error("button reader stopped", logger.ErrorField(err))
				}
			})
		}
	}

	if cfg.Metrics.Address != "" {
		spawn(func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Address); err != nil {
				logger.Error("metrics server stopped", logger.ErrorField(err))
			}
		})
	}

	logger.Info("player started",
		logger.String("version", spec.Version),
		logger.String("library", cfg.Library.Dir),
		logger.Int("tracks", lib.Len()),
	)

	driver := playback.NewDriver(state, lib, out, reporter, cfg.Playback.OpenDelay)
	driver.Run(ctx)

	cancel()
	wg.Wait()
	logger.Info("player stopped")
	return nil
}

func entropy(cfg *config.Config) sensor.Source {
	if cfg.Sensor.IIODir == "" {
		return sensor.ClockNoise{}
	}
	acc, err := sensor.NewAccelerometer(cfg.Sensor.IIODir)
	if err != nil {
		logger.Warn("accelerometer unavailable, shuffling from clock noise", logger.ErrorField(err))
		return sensor.ClockNoise{}
	}
	return acc
}

// startRemote brings up the socket listener and the serial link, whichever
// are configured, and the session that speaks the control-pad protocol
// over them.
func startRemote(ctx context.Context, cfg *config.Config, ctrl *player.Control, lib remote.Library, spawn func(func())) {
	link := transport.NewLink()
	context.AfterFunc(ctx, func() { link.Close() })

	if cfg.Remote.Address != "" {
		spawn(func() {
			if err := transport.Listen(ctx, link, cfg.Remote.Network, cfg.Remote.Address); err != nil {
				logger.Error("remote listener stopped", logger.ErrorField(err))
			}
		})
	}
	if cfg.Remote.Serial != "" {
		spawn(func() {
			transport.KeepSerial(ctx, link, cfg.Remote.Serial, cfg.Remote.Baud, cfg.Remote.Retry)
		})
	}

	session := remote.NewSession(link, ctrl, lib, cfg.Loop.PollInterval)
	spawn(func() { session.Run(ctx) })
}
