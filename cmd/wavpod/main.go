/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"wavpod/internal/config"
	"wavpod/internal/playback"
	"wavpod/pkg/spec"
)

var (
	v          = config.New()
	configFile string
)

var rootCmd = &cobra.Command{
	Use:           "wavpod",
	Short:         "wavpod plays a folder of wav files under button, keyboard and remote control.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the player",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v, configFile)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the track listing and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v, configFile)
		if err != nil {
			return err
		}
		lib, err := playback.Enumerate(cfg.Library.Dir, cfg.Library.Ext)
		if err != nil {
			return err
		}
		for i, name := range lib.Names() {
			fmt.Fprintf(cmd.OutOrStdout(), "%3d  %s\n", i, spec.DisplayName(name))
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", spec.AppName, spec.Version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file (default wavpod.yaml in . or /etc/wavpod)")
	pf.String("library", "", "track directory")
	pf.String("remote", "", "remote control socket address")
	pf.String("serial", "", "serial device of the remote control link")
	pf.Bool("display", true, "draw the status display on this terminal")
	pf.String("log-level", "", "debug, info, warn or error")

	bind(v, "library.dir", "library")
	bind(v, "remote.address", "remote")
	bind(v, "remote.serial", "serial")
	bind(v, "display.enabled", "display")
	bind(v, "log.level", "log-level")

	rootCmd.AddCommand(runCmd, listCmd, versionCmd)
}

func bind(v *viper.Viper, key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "wavpod:", err)
		os.Exit(1)
	}
}
