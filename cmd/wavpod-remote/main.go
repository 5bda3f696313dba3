/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"wavpod/pkg/spec"
)

var (
	network string
	address string
)

var rootCmd = &cobra.Command{
	Use:           "wavpod-remote",
	Short:         "Drive a running wavpod over its control-pad protocol",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return console(network, address)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&network, "network", "n", "unix", "socket network")
	rootCmd.Flags().StringVarP(&address, "address", "a", "/tmp/wavpod.sock", "socket address")
}

func console(network, address string) error {
	conn, err := net.Dial(network, address)
	if err != nil {
		return err
	}
	defer conn.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "wavpod> ",
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "%s remote %s, connected to %s\n", spec.AppName, spec.Version, address)
	fmt.Fprintln(rl.Stdout(), "play, next, prev, shuffle (or 1-4); raw <bytes>; quit")

	go func() {
		sc := bufio.NewScanner(conn)
		for sc.Scan() {
			fmt.Fprintln(rl.Stdout(), "<", sc.Text())
		}
		fmt.Fprintln(rl.Stdout(), "link closed")
		rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}

		frame, err := parseCommand(line)
		if err != nil {
			fmt.Fprintln(rl.Stdout(), "?", err)
			continue
		}
		if _, err := conn.Write(frame); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "wavpod-remote:", err)
		os.Exit(1)
	}
}
