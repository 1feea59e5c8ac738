package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"":        INFO,
		"warning": WARN,
		" warn ":  WARN,
		"error":   ERROR,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q) returned error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	previous := Level()
	t.Cleanup(func() { SetLevel(previous) })

	SetLevel(WARN)
	Infof("frame %d persisted", 3)
	Warnf("mixed resolutions detected")
	Errorf("encode failed: %v", "exit status 1")

	out := buf.String()
	if strings.Contains(out, "frame 3 persisted") {
		t.Errorf("Info message should be filtered at WARN level, got %q", out)
	}
	if !strings.Contains(out, "[WARN]  ") || !strings.Contains(out, "mixed resolutions detected") {
		t.Errorf("Expected warning in output, got %q", out)
	}
	if !strings.Contains(out, "[ERROR] ") {
		t.Errorf("Expected error prefix in output, got %q", out)
	}
	if strings.Contains(out, colorYellow) {
		t.Errorf("SetOutput should write without colors, got %q", out)
	}
	if !strings.Contains(out, "logger_test.go") {
		t.Errorf("Expected caller file in output, got %q", out)
	}
}
