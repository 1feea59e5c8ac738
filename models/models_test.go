package models

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"mp4", FormatMP4, false},
		{".MKV", FormatMKV, false},
		{" webm ", FormatWebM, false},
		{"mov", FormatMOV, false},
		{"GIF", FormatGIF, false},
		{"avi", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if !FormatGIF.IsAnimatedImage() || FormatMP4.IsAnimatedImage() {
		t.Error("Only gif is an animated image format")
	}
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		in   string
		want ResolutionPolicy
	}{
		{"Same Resolution", ResolutionPolicy{Mode: ResolutionPreserve}},
		{"", ResolutionPolicy{Mode: ResolutionPreserve}},
		{"original", ResolutionPolicy{Mode: ResolutionPreserve}},
		{"720p", ResolutionPolicy{Mode: ResolutionPreset, Preset: "720p"}},
		{"4k", ResolutionPolicy{Mode: ResolutionPreset, Preset: "4K"}},
		{"640x360", ResolutionPolicy{Mode: ResolutionCustom, Width: 640, Height: 360}},
		{" 320 X 240 ", ResolutionPolicy{Mode: ResolutionCustom, Width: 320, Height: 240}},
	}
	for _, tt := range tests {
		got, err := ParseResolution(tt.in)
		if err != nil {
			t.Errorf("ParseResolution(%q): %v", tt.in, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseResolution(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
		again, err := ParseResolution(got.String())
		if err != nil || again != got {
			t.Errorf("String() of %+v does not parse back: %q, %v", got, got.String(), err)
		}
	}

	for _, bad := range []string{"huge", "axb", "640x", "x360"} {
		if _, err := ParseResolution(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestOutcomeAndSummary(t *testing.T) {
	out := []OutputArtifact{{Path: "a.mp4"}}
	oneErr := []SourceError{{Source: "b.webp", Error: "boom"}}
	twoErrs := append(oneErr, SourceError{Source: "c.webp", Error: "boom"})

	tests := []struct {
		name    string
		res     Result
		outcome Outcome
		summary string
	}{
		{"clean", Result{State: JobStateCompleted, Outputs: out}, OutcomeSuccess, "completed"},
		{"partial", Result{State: JobStateCompleted, Outputs: out, Errors: oneErr}, OutcomePartial, "completed with 1 error"},
		{"nothing produced", Result{State: JobStateCompleted, Errors: twoErrs}, OutcomeFailure, "completed with 2 errors"},
		{"failed", Result{State: JobStateFailed, Err: io.ErrUnexpectedEOF}, OutcomeFailure, "failed: unexpected EOF"},
		{"failed without error", Result{State: JobStateFailed}, OutcomeFailure, "failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.Outcome(); got != tt.outcome {
				t.Errorf("Outcome() = %s, want %s", got, tt.outcome)
			}
			if got := tt.res.Summary(); got != tt.summary {
				t.Errorf("Summary() = %q, want %q", got, tt.summary)
			}
		})
	}
}

func TestJobStateText(t *testing.T) {
	for _, s := range []JobState{JobStateIdle, JobStateRunning, JobStateCompleted, JobStateFailed} {
		b, err := json.Marshal(s)
		if err != nil {
			t.Fatal(err)
		}
		var back JobState
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatalf("Unmarshal %s: %v", b, err)
		}
		if back != s {
			t.Errorf("Round trip of %s gave %s", s, back)
		}
	}
	var s JobState
	if err := s.UnmarshalText([]byte("paused")); err == nil {
		t.Error("Expected error for unknown state")
	}
}

func TestErrorsUnwrap(t *testing.T) {
	dec := &DecodeError{Path: "a.webp", Err: io.ErrUnexpectedEOF}
	if !errors.Is(dec, ErrDecode) || !errors.Is(dec, io.ErrUnexpectedEOF) {
		t.Errorf("DecodeError should match ErrDecode and its cause: %v", dec)
	}
	enc := &EncodeError{Output: "out.mp4", Err: io.EOF}
	if !errors.Is(enc, ErrEncode) || !errors.Is(enc, io.EOF) {
		t.Errorf("EncodeError should match ErrEncode and its cause: %v", enc)
	}
	if !errors.Is(&ConfigError{Reason: "no inputs"}, ErrConfig) {
		t.Error("ConfigError should match ErrConfig")
	}
	if errors.Is(dec, ErrEncode) {
		t.Error("DecodeError must not match ErrEncode")
	}
}
