/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

// Package metrics exposes the player's Prometheus counters.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wavpod/internal/logger"
)

var (
	ControlOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wavpod_control_ops_total",
		Help: "Playback state mutations by operation and input source.",
	}, []string{"op", "source"})

	RemoteFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wavpod_remote_frames_total",
		Help: "Control pad frames received, by outcome.",
	}, []string{"result"})

	StatusPushes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavpod_remote_status_pushes_total",
		Help: "Now playing notifications written to the remote link.",
	})

	OpenErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavpod_playback_open_errors_total",
		Help: "Track files that failed to open.",
	})

	TracksPlayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavpod_playback_tracks_total",
		Help: "Blocking playback calls that returned.",
	})

	MeterTier = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wavpod_meter_tier",
		Help: "Last tier shown on the level indicators.",
	})
)

// Serve runs the /metrics endpoint until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
