/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"

	"wavpod/internal/player"
	"wavpod/internal/remote"
)

var words = map[string]player.Op{
	"play":    player.OpTogglePlay,
	"pause":   player.OpTogglePlay,
	"1":       player.OpTogglePlay,
	"next":    player.OpNext,
	"2":       player.OpNext,
	"prev":    player.OpPrev,
	"3":       player.OpPrev,
	"shuffle": player.OpShuffle,
	"4":       player.OpShuffle,
}

// parseCommand turns a console line into the bytes to send. "raw" sends
// the rest of the line untouched so malformed frames can be tried.
func parseCommand(line string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(line, "raw "); ok {
		return []byte(rest), nil
	}
	op, ok := words[strings.ToLower(line)]
	if !ok {
		return nil, fmt.Errorf("unknown command %q", line)
	}
	return remote.Encode(op), nil
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("play"),
		readline.PcItem("next"),
		readline.PcItem("prev"),
		readline.PcItem("shuffle"),
		readline.PcItem("raw"),
		readline.PcItem("quit"),
	)
}
