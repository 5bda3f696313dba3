/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package meter

import (
	"fmt"
	"os"
	"path/filepath"
)

// SysfsLEDRoot is where the kernel LED class lives.
const SysfsLEDRoot = "/sys/class/leds"

// LEDs lights kernel LEDs as a thermometer: lamp i is on when i < lit.
type LEDs struct {
	paths []string
}

// NewLEDs checks that every named LED exists under root.
func NewLEDs(root string, names []string) (*LEDs, error) {
	l := &LEDs{}
	for _, name := range names {
		p := filepath.Join(root, name, "brightness")
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("led %s: %w", name, err)
		}
		l.paths = append(l.paths, p)
	}
	return l, nil
}

func (l *LEDs) Set(lit int) error {
	for i, p := range l.paths {
		v := "0"
		if i < lit {
			v = "1"
		}
		if err := os.WriteFile(p, []byte(v), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", p, err)
		}
	}
	return nil
}
