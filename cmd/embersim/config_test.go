package main

import (
	"strings"
	"testing"
	"time"

	"ember/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfig(strings.NewReader(`
tick_period: 250us
guard_words: 4
guard_check: pass
stack_size: 2KB
blink_period: 100ms
hold_time: 1s
status_interval: 2s
button: KEY
ticks: 500
script: "tick 5; stats"
board:
  width: 160
  height: 128
  buttons: [KEY]
`))
	require.NoError(t, err)
	assert.Equal(t, 250*time.Microsecond, cfg.TickPeriod)
	assert.Equal(t, 2048/wordSize, cfg.StackSize.Words())
	assert.Equal(t, uint64(500), cfg.Ticks)
	assert.Equal(t, []string{"KEY"}, cfg.Board.Buttons)

	ac := cfg.appConfig()
	assert.Equal(t, 4, ac.GuardWords)
	assert.Equal(t, kernel.CheckEveryPass, ac.GuardCheck)
	assert.Equal(t, uint32(100), ac.BlinkPeriodMs)
	assert.Equal(t, uint32(1000), ac.HoldMs)
	assert.Equal(t, uint32(2000), ac.StatusIntervalMs)
	assert.Equal(t, "KEY", ac.Button)

	hc := cfg.hostConfig(nil)
	assert.Equal(t, 160, hc.Width)
	assert.Equal(t, 128, hc.Height)
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(strings.NewReader("guard_words: 2\n"))
	require.NoError(t, err)
	want := defaultConfig()
	want.GuardWords = 2
	assert.Equal(t, want, cfg)

	def, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), def)
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name, yaml, text string
	}{
		{"unknown key", "tick_rate: 1ms\n", "tick_rate"},
		{"bad size", "stack_size: lots\n", "size"},
		{"guard check", "guard_check: sometimes\n", "guard_check"},
		{"small stack", "stack_size: 16B\nguard_words: 8\n", "stack_size"},
		{"zero period", "tick_period: 0s\n", "tick_period"},
		{"short blink", "blink_period: 10us\n", "blink_period"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseConfig(strings.NewReader(tt.yaml))
			assert.ErrorContains(t, err, tt.text)
		})
	}

	_, err := loadConfig("/nonexistent/embersim.yaml")
	assert.Error(t, err)
}

func TestParseSize(t *testing.T) {
	s, err := parseSize("512")
	require.NoError(t, err)
	assert.Equal(t, Size(512), s)

	s, err = parseSize("1KB")
	require.NoError(t, err)
	assert.Equal(t, Size(1024), s)
	assert.Equal(t, 1024/wordSize, s.Words())
}
