/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"go.bug.st/serial"

	"wavpod/internal/logger"
)

// Listen accepts socket controllers and attaches them to l. A client that
// connects while another owns the link is told so and dropped.
func Listen(ctx context.Context, l *Link, network, address string) error {
	if network == "unix" {
		_ = os.Remove(address)
	}

	ln, err := net.Listen(network, address)
	if err != nil {
		return fmt.Errorf("listen %s %s: %w", network, address, err)
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	logger.Info("remote listening", logger.String("network", network), logger.String("address", address))

	for {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("remote accept failed", logger.ErrorField(err))
			continue
		}

		if err := l.Attach(c); err != nil {
			if errors.Is(err, ErrControlLocked) {
				c.Write([]byte("ERR CONTROL_LOCKED\n"))
			}
			c.Close()
			continue
		}
		logger.Info("remote controller attached", logger.String("peer", fmt.Sprint(c.RemoteAddr())))
	}
}

// OpenSerial opens a UART, e.g. the one wired to a Bluetooth module.
func OpenSerial(name string, baud int) (serial.Port, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", name, err)
	}
	return port, nil
}

// KeepSerial keeps the UART attached to l, reopening it after a
// disconnect. It returns when ctx is done.
func KeepSerial(ctx context.Context, l *Link, name string, baud int, retry time.Duration) {
	for {
		if !l.Attached() {
			port, err := OpenSerial(name, baud)
			if err != nil {
				logger.Warn("serial unavailable", logger.ErrorField(err))
			} else if err := l.Attach(port); err != nil {
				port.Close()
			} else {
				logger.Info("serial controller attached", logger.String("device", name))
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
	}
}
