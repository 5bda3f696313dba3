/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package transport

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"wavpod/internal/logger"
)

var (
	ErrClosed        = errors.New("transport closed")
	ErrControlLocked = errors.New("another controller owns the link")
	ErrNotConnected  = errors.New("no controller attached")
	ErrNotReady      = errors.New("controller not ready")
)

const (
	inboundBuffer = 512
	writeTimeout  = 25 * time.Millisecond
)

// deadliner is the part of net.Conn used to bound writes. Serial ports
// do not have it.
type deadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Link is a byte link to a single remote controller. It looks the same
// whether the peer is a serial UART or a socket client: bytes arrive on
// an inbound queue and readiness is polled with Readable and Writable.
// A detached link is simply never readable or writable.
//
// Each attach starts a new generation. Bytes left over from a previous
// controller are discarded when it detaches.
type Link struct {
	mu    sync.Mutex
	owner io.ReadWriteCloser
	gen   uint64

	in   chan byte
	done chan struct{}
	once sync.Once
}

func NewLink() *Link {
	return &Link{
		in:   make(chan byte, inboundBuffer),
		done: make(chan struct{}),
	}
}

// Attach makes rwc the controller and starts pumping its bytes. Only one
// controller is allowed at a time.
func (l *Link) Attach(rwc io.ReadWriteCloser) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}

	l.mu.Lock()
	if l.owner != nil {
		l.mu.Unlock()
		return ErrControlLocked
	}
	l.owner = rwc
	l.gen++
	l.mu.Unlock()

	go l.pump(rwc)
	return nil
}

// Attached reports whether a controller is connected.
func (l *Link) Attached() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owner != nil
}

// Generation counts attaches. It changes whenever a new controller takes
// the link.
func (l *Link) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

func (l *Link) pump(rwc io.ReadWriteCloser) {
	defer l.detach(rwc)

	buf := make([]byte, 64)
	for {
		n, err := rwc.Read(buf)
		for _, b := range buf[:n] {
			select {
			case l.in <- b:
			case <-l.done:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warn("remote link read failed", logger.ErrorField(err))
			}
			return
		}
	}
}

// detach runs once the pump for rwc has stopped queueing, so every byte
// still in the queue belongs to rwc and is dropped with it.
func (l *Link) detach(rwc io.ReadWriteCloser) {
	l.mu.Lock()
	if l.owner == rwc {
		l.owner = nil
		l.drain()
	}
	l.mu.Unlock()
	rwc.Close()
	logger.Info("remote controller detached")
}

func (l *Link) drain() {
	for {
		select {
		case <-l.in:
		default:
			return
		}
	}
}

// Readable reports whether at least one inbound byte is queued.
func (l *Link) Readable() bool {
	return len(l.in) > 0
}

// Writable reports whether a controller is attached to receive output.
func (l *Link) Writable() bool {
	return l.Attached()
}

// ReadByte returns the next queued byte without waiting. An empty queue
// yields ErrNotReady.
func (l *Link) ReadByte() (byte, error) {
	select {
	case <-l.done:
		return 0, ErrClosed
	default:
	}
	select {
	case b := <-l.in:
		return b, nil
	default:
		return 0, ErrNotReady
	}
}

// Write sends p to the current controller. Socket writes are bounded by
// writeTimeout; a peer that is not reading gets ErrNotReady and keeps the
// link. Any other write error closes the controller, and its pump
// detaches it.
func (l *Link) Write(p []byte) (int, error) {
	l.mu.Lock()
	owner := l.owner
	l.mu.Unlock()

	if owner == nil {
		return 0, ErrNotConnected
	}
	if d, ok := owner.(deadliner); ok {
		d.SetWriteDeadline(time.Now().Add(writeTimeout))
	}
	n, err := owner.Write(p)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrDeadlineExceeded):
		return n, ErrNotReady
	default:
		owner.Close()
	}
	return n, err
}

// Close drops the controller and wakes any blocked reader.
func (l *Link) Close() error {
	l.once.Do(func() {
		close(l.done)
		l.mu.Lock()
		owner := l.owner
		l.owner = nil
		l.mu.Unlock()
		if owner != nil {
			owner.Close()
		}
	})
	return nil
}
