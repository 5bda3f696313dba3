/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package playback

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Library is the track listing taken once at startup. Indices are stable
// for the life of the process.
type Library struct {
	dir   string
	names []string
}

// Enumerate lists the regular files in dir whose extension matches ext
// (case-insensitive; empty matches everything), sorted by name. Dot files
// are skipped.
func Enumerate(dir, ext string) (*Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read library %s: %w", dir, err)
	}

	lib := &Library{dir: dir}
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		if ext != "" && !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		lib.names = append(lib.names, name)
	}
	return lib, nil
}

func (l *Library) Len() int { return len(l.names) }

func (l *Library) Name(i int) string { return l.names[i] }

func (l *Library) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Open opens track i for reading. The caller closes it.
func (l *Library) Open(i int) (io.ReadSeekCloser, error) {
	if i < 0 || i >= len(l.names) {
		return nil, fmt.Errorf("track %d out of range", i)
	}
	f, err := os.Open(filepath.Join(l.dir, l.names[i]))
	if err != nil {
		return nil, err
	}
	return f, nil
}
