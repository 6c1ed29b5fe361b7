package main

import (
	"fmt"
	"io"
	"math/bits"
	"os"
	"strings"
	"time"
	"unicode"

	"ember/app"
	"ember/hal"
	"ember/kernel"

	"github.com/inhies/go-bytesize"
	"gopkg.in/yaml.v2"
)

const wordSize = bits.UintSize / 8

// Size is a byte count written with a unit, like "1KB".
type Size bytesize.ByteSize

func (s *Size) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var text string
	if err := unmarshal(&text); err != nil {
		return err
	}
	v, err := parseSize(text)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s Size) String() string { return bytesize.ByteSize(s).String() }

// Words returns how many machine words fit in s.
func (s Size) Words() int { return int(s) / wordSize }

func parseSize(text string) (Size, error) {
	text = strings.TrimSpace(text)
	if text != "" && strings.IndexFunc(text, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		text += "B"
	}
	b, err := bytesize.Parse(text)
	if err != nil {
		return 0, fmt.Errorf("size %q: %v", text, err)
	}
	return Size(b), nil
}

// BoardConfig describes the simulated board.
type BoardConfig struct {
	Width   int      `yaml:"width"`
	Height  int      `yaml:"height"`
	Buttons []string `yaml:"buttons"`
	LogLED  bool     `yaml:"log_led"`
}

// Config is the simulator configuration file.
type Config struct {
	TickPeriod     time.Duration `yaml:"tick_period"`
	GuardWords     int           `yaml:"guard_words"`
	GuardCheck     string        `yaml:"guard_check"`
	StackSize      Size          `yaml:"stack_size"`
	BlinkPeriod    time.Duration `yaml:"blink_period"`
	HoldTime       time.Duration `yaml:"hold_time"`
	StatusInterval time.Duration `yaml:"status_interval"`
	Button         string        `yaml:"button"`
	Ticks          uint64        `yaml:"ticks"`
	Script         string        `yaml:"script"`
	Board          BoardConfig   `yaml:"board"`
}

func defaultConfig() Config {
	d := app.DefaultConfig()
	return Config{
		TickPeriod:     d.TickPeriod,
		GuardWords:     d.GuardWords,
		GuardCheck:     "switch",
		StackSize:      Size(d.StackWords * wordSize),
		BlinkPeriod:    time.Duration(d.BlinkPeriodMs) * time.Millisecond,
		HoldTime:       time.Duration(d.HoldMs) * time.Millisecond,
		StatusInterval: time.Duration(d.StatusIntervalMs) * time.Millisecond,
		Button:         d.Button,
	}
}

// loadConfig reads path over the defaults. An empty path returns the
// defaults. Unknown keys are errors.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	return parseConfig(f)
}

func parseConfig(r io.Reader) (Config, error) {
	cfg := defaultConfig()
	data, err := io.ReadAll(r)
	if err != nil {
		return cfg, err
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.TickPeriod <= 0 {
		return fmt.Errorf("tick_period must be positive, got %v", c.TickPeriod)
	}
	if _, err := c.guardCheck(); err != nil {
		return err
	}
	if c.StackSize.Words() <= c.GuardWords {
		return fmt.Errorf("stack_size %v leaves no room above %d guard words", c.StackSize, c.GuardWords)
	}
	for name, d := range map[string]time.Duration{
		"blink_period":    c.BlinkPeriod,
		"hold_time":       c.HoldTime,
		"status_interval": c.StatusInterval,
	} {
		if d < time.Millisecond {
			return fmt.Errorf("%s must be at least 1ms, got %v", name, d)
		}
	}
	return nil
}

func (c Config) guardCheck() (kernel.GuardCheck, error) {
	switch c.GuardCheck {
	case "", "switch":
		return kernel.CheckEverySwitch, nil
	case "pass":
		return kernel.CheckEveryPass, nil
	case "never":
		return kernel.CheckNever, nil
	}
	return 0, fmt.Errorf("guard_check %q: want switch, pass or never", c.GuardCheck)
}

func (c Config) appConfig() app.Config {
	check, _ := c.guardCheck()
	return app.Config{
		TickPeriod:       c.TickPeriod,
		GuardWords:       c.GuardWords,
		GuardCheck:       check,
		StackWords:       c.StackSize.Words(),
		BlinkPeriodMs:    ms(c.BlinkPeriod),
		HoldMs:           ms(c.HoldTime),
		StatusIntervalMs: ms(c.StatusInterval),
		Button:           c.Button,
	}
}

func (c Config) hostConfig(out io.Writer) hal.HostConfig {
	return hal.HostConfig{
		Out:     out,
		Width:   c.Board.Width,
		Height:  c.Board.Height,
		Buttons: c.Board.Buttons,
		LogLED:  c.Board.LogLED,
	}
}

func ms(d time.Duration) uint32 {
	return uint32(d / time.Millisecond)
}
