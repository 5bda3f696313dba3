/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

// Package sensor turns accelerometer noise into shuffle entropy.
package sensor

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"wavpod/internal/logger"
)

const gravity = 9.80665

// Reading is one three-axis sample in units of g.
type Reading struct {
	X, Y, Z float64
}

// Source yields a reading on every call. Implementations never fail; a
// broken sensor degrades to clock jitter.
type Source interface {
	Sample() Reading
}

// Index maps the low-order noise of r onto [0, n). n must be positive.
func Index(r Reading, n int) int {
	// 5th decimal place of the axis sum carries the sensor noise
	noise := int64(math.Round(100000 * (r.X + r.Y + r.Z)))

	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(noise))
	sum := blake2b.Sum256(b[:])
	return int(binary.BigEndian.Uint64(sum[:8]) % uint64(n))
}

// ClockNoise reads the monotonic clock instead of a sensor.
type ClockNoise struct{}

func (ClockNoise) Sample() Reading {
	ns := time.Now().UnixNano()
	return Reading{X: float64(ns%1000003) / 100000}
}

// Accelerometer reads an IIO accelerometer through sysfs
// (in_accel_{x,y,z}_raw scaled by in_accel_scale).
type Accelerometer struct {
	dir      string
	scale    float64
	fallback Source
}

func NewAccelerometer(dir string) (*Accelerometer, error) {
	a := &Accelerometer{dir: dir, scale: 1, fallback: ClockNoise{}}

	if s, err := readFloat(filepath.Join(dir, "in_accel_scale")); err == nil {
		a.scale = s
	}
	if _, err := a.read(); err != nil {
		return nil, fmt.Errorf("open accelerometer %s: %w", dir, err)
	}
	return a, nil
}

func (a *Accelerometer) Sample() Reading {
	r, err := a.read()
	if err != nil {
		logger.Debug("accelerometer read failed", logger.ErrorField(err))
		return a.fallback.Sample()
	}
	return r
}

func (a *Accelerometer) read() (Reading, error) {
	var axes [3]float64
	for i, name := range []string{"x", "y", "z"} {
		v, err := readFloat(filepath.Join(a.dir, "in_accel_"+name+"_raw"))
		if err != nil {
			return Reading{}, err
		}
		axes[i] = v * a.scale / gravity
	}
	return Reading{X: axes[0], Y: axes[1], Z: axes[2]}, nil
}

func readFloat(path string) (float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
}
