package progress

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func plainCaps() TerminalCapabilities {
	return TerminalCapabilities{}
}

func TestSelectSymbols(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		caps TerminalCapabilities
		want ProgressSymbols
	}{
		"unicode": {
			caps: TerminalCapabilities{IsTTY: true, SupportsUnicode: true},
			want: ProgressSymbols{Checkmark: "✓", Failure: "✗", SpinnerSet: 14},
		},
		"ascii": {
			caps: TerminalCapabilities{IsTTY: true},
			want: ProgressSymbols{Checkmark: "[OK]", Failure: "[FAIL]", SpinnerSet: 9},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SelectSymbols(tt.caps))
		})
	}
}

func TestDisplay_PlainOutput(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	d := NewDisplay(&out, plainCaps())
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return clock }

	d.RefreshStarted("v2")
	clock = clock.Add(1500 * time.Millisecond)
	d.RefreshFinished("v2", nil)

	d.RefreshStarted("v3")
	d.RefreshFinished("v3", errors.New("404 Not Found"))

	assert.Equal(t,
		"Downloading templates for branch v2...\n"+
			"[OK] Templates for branch v2 downloaded (1.5s)\n"+
			"Downloading templates for branch v3...\n"+
			"[FAIL] Downloading templates for branch v3: 404 Not Found\n",
		out.String())
}

func TestDisplay_NilIsNoop(t *testing.T) {
	t.Parallel()

	var d *Display
	assert.NotPanics(t, func() {
		d.Start("x")
		d.StopSpinner()
		d.Complete("x")
		d.Fail("x", errors.New("e"))
		d.RefreshStarted("v2")
		d.RefreshFinished("v2", nil)
	})
}

func TestDetectTerminalCapabilities_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	caps := DetectTerminalCapabilities()
	assert.False(t, caps.SupportsColor)
}
