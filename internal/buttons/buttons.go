/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

// Package buttons reads physical button releases from a Linux evdev node
// and turns them into control events.
package buttons

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"wavpod/internal/logger"
	"wavpod/internal/player"
)

const (
	evKey      = 0x01
	keyRelease = 0
)

// Default key codes from linux/input-event-codes.h.
const (
	KeyPlayPause    uint16 = 164
	KeyNextSong     uint16 = 163
	KeyPreviousSong uint16 = 165
	KeyShuffle      uint16 = 410
)

// DefaultKeys maps the media keys onto the four control operations.
func DefaultKeys() map[uint16]player.Op {
	return map[uint16]player.Op{
		KeyPlayPause:    player.OpTogglePlay,
		KeyNextSong:     player.OpNext,
		KeyPreviousSong: player.OpPrev,
		KeyShuffle:      player.OpShuffle,
	}
}

// inputEvent is struct input_event without its leading timeval.
type inputEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

// Reader decodes input events. Only releases of mapped keys count; a
// second release of the same key inside the debounce window is dropped.
type Reader struct {
	r        io.Reader
	closer   io.Closer
	keys     map[uint16]player.Op
	debounce time.Duration
	wordSize int

	last      map[uint16]time.Duration
	closeOnce sync.Once
}

// NewReader reads events from r laid out for the host word size.
func NewReader(r io.Reader, keys map[uint16]player.Op, debounce time.Duration) *Reader {
	return &Reader{
		r:        r,
		keys:     keys,
		debounce: debounce,
		wordSize: strconv.IntSize / 8,
		last:     make(map[uint16]time.Duration),
	}
}

// Open opens an evdev node such as /dev/input/event0.
func Open(path string, keys map[uint16]player.Op, debounce time.Duration) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}
	r := NewReader(f, keys, debounce)
	r.closer = f
	return r, nil
}

func (r *Reader) Close() error {
	var err error
	r.closeOnce.Do(func() {
		if r.closer != nil {
			err = r.closer.Close()
		}
	})
	return err
}

// Run forwards button releases to events until ctx is done or the device
// goes away.
func (r *Reader) Run(ctx context.Context, events chan<- player.Event) error {
	stop := context.AfterFunc(ctx, func() { r.Close() })
	defer stop()

	for {
		op, err := r.Next()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if op == player.OpNone {
			continue
		}
		select {
		case events <- player.Event{Op: op, Source: player.SourceButton}:
		case <-ctx.Done():
			return nil
		}
	}
}

// Next reads one event and returns the operation it triggers, OpNone for
// anything that is not a fresh release of a mapped key.
func (r *Reader) Next() (player.Op, error) {
	stamp, ev, err := r.read()
	if err != nil {
		return player.OpNone, err
	}
	if ev.Type != evKey || ev.Value != keyRelease {
		return player.OpNone, nil
	}
	op, ok := r.keys[ev.Code]
	if !ok {
		return player.OpNone, nil
	}

	if prev, seen := r.last[ev.Code]; seen && stamp-prev < r.debounce {
		logger.Debug("button bounce dropped", logger.Int("code", int(ev.Code)))
		return player.OpNone, nil
	}
	r.last[ev.Code] = stamp
	return op, nil
}

func (r *Reader) read() (time.Duration, inputEvent, error) {
	var tv [16]byte
	if _, err := io.ReadFull(r.r, tv[:2*r.wordSize]); err != nil {
		return 0, inputEvent{}, err
	}

	var sec, usec int64
	if r.wordSize == 8 {
		sec = int64(binary.LittleEndian.Uint64(tv[0:8]))
		usec = int64(binary.LittleEndian.Uint64(tv[8:16]))
	} else {
		sec = int64(int32(binary.LittleEndian.Uint32(tv[0:4])))
		usec = int64(int32(binary.LittleEndian.Uint32(tv[4:8])))
	}

	var ev inputEvent
	if err := binary.Read(r.r, binary.LittleEndian, &ev); err != nil {
		return 0, inputEvent{}, err
	}
	stamp := time.Duration(sec)*time.Second + time.Duration(usec)*time.Microsecond
	return stamp, ev, nil
}
