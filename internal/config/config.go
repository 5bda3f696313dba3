/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

// Package config loads wavpod settings from wavpod.yaml, a .env file and
// WAVPOD_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"wavpod/internal/buttons"
	"wavpod/internal/meter"
	"wavpod/internal/player"
	"wavpod/pkg/spec"
)

const EnvPrefix = "WAVPOD"

type Config struct {
	Library struct {
		Dir string `mapstructure:"dir"`
		Ext string `mapstructure:"ext"`
	} `mapstructure:"library"`
	Loop struct {
		PollInterval time.Duration `mapstructure:"poll_interval"`
	} `mapstructure:"loop"`
	Playback struct {
		OpenDelay  time.Duration `mapstructure:"open_delay"`
		SampleRate int           `mapstructure:"sample_rate"`
	} `mapstructure:"playback"`
	Remote struct {
		Network string        `mapstructure:"network"`
		Address string        `mapstructure:"address"`
		Serial  string        `mapstructure:"serial"`
		Baud    int           `mapstructure:"baud"`
		Retry   time.Duration `mapstructure:"retry"`
	} `mapstructure:"remote"`
	Display struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"display"`
	Buttons struct {
		Device   string        `mapstructure:"device"`
		Debounce time.Duration `mapstructure:"debounce"`
		Keys     struct {
			Play    int `mapstructure:"play"`
			Next    int `mapstructure:"next"`
			Prev    int `mapstructure:"prev"`
			Shuffle int `mapstructure:"shuffle"`
		} `mapstructure:"keys"`
	} `mapstructure:"buttons"`
	Sensor struct {
		IIODir string `mapstructure:"iio_dir"`
	} `mapstructure:"sensor"`
	Meter struct {
		LEDRoot string   `mapstructure:"led_root"`
		LEDs    []string `mapstructure:"leds"`
	} `mapstructure:"meter"`
	Log struct {
		Level string `mapstructure:"level"`
		Path  string `mapstructure:"path"`
	} `mapstructure:"log"`
	Metrics struct {
		Address string `mapstructure:"address"`
	} `mapstructure:"metrics"`
}

// New returns a viper instance with every key defaulted and environment
// lookups enabled. Callers may bind flags to it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("library.dir", "/sd/myMusic")
	v.SetDefault("library.ext", spec.TrackExt)
	v.SetDefault("loop.poll_interval", spec.PollInterval)
	v.SetDefault("playback.open_delay", spec.OpenDelay)
	v.SetDefault("playback.sample_rate", 44100)
	v.SetDefault("remote.network", "unix")
	v.SetDefault("remote.address", "/tmp/wavpod.sock")
	v.SetDefault("remote.serial", "")
	v.SetDefault("remote.baud", 9600)
	v.SetDefault("remote.retry", 2*time.Second)
	v.SetDefault("display.enabled", true)
	v.SetDefault("buttons.device", "")
	v.SetDefault("buttons.debounce", 20*time.Millisecond)
	v.SetDefault("buttons.keys.play", buttons.KeyPlayPause)
	v.SetDefault("buttons.keys.next", buttons.KeyNextSong)
	v.SetDefault("buttons.keys.prev", buttons.KeyPreviousSong)
	v.SetDefault("buttons.keys.shuffle", buttons.KeyShuffle)
	v.SetDefault("sensor.iio_dir", "")
	v.SetDefault("meter.led_root", meter.SysfsLEDRoot)
	v.SetDefault("meter.leds", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "./wavpod.log")
	v.SetDefault("metrics.address", "")

	return v
}

// Load reads an optional .env, then file (or wavpod.yaml from . and
// /etc/wavpod when file is empty), and decodes the result.
func Load(v *viper.Viper, file string) (*Config, error) {
	// a missing .env is normal
	_ = godotenv.Load()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("wavpod")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/wavpod")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Library.Dir == "" {
		return errors.New("library.dir is empty")
	}
	if c.Loop.PollInterval <= 0 {
		return fmt.Errorf("loop.poll_interval must be positive, got %s", c.Loop.PollInterval)
	}
	if c.Playback.OpenDelay < 0 {
		return fmt.Errorf("playback.open_delay must not be negative, got %s", c.Playback.OpenDelay)
	}
	if c.Playback.SampleRate <= 0 {
		return fmt.Errorf("playback.sample_rate must be positive, got %d", c.Playback.SampleRate)
	}
	if c.Remote.Serial != "" && c.Remote.Retry <= 0 {
		return fmt.Errorf("remote.retry must be positive, got %s", c.Remote.Retry)
	}
	if n := len(c.Meter.LEDs); n != 0 && n != spec.Indicators {
		return fmt.Errorf("meter.leds needs %d names, got %d", spec.Indicators, n)
	}
	return nil
}

// ButtonKeys maps the configured key codes onto control operations.
func (c *Config) ButtonKeys() map[uint16]player.Op {
	return map[uint16]player.Op{
		uint16(c.Buttons.Keys.Play):    player.OpTogglePlay,
		uint16(c.Buttons.Keys.Next):    player.OpNext,
		uint16(c.Buttons.Keys.Prev):    player.OpPrev,
		uint16(c.Buttons.Keys.Shuffle): player.OpShuffle,
	}
}
