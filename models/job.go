package models

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// OutputFormat is the output container, written as its file extension.
type OutputFormat string

const (
	FormatMP4  OutputFormat = ".mp4"
	FormatMKV  OutputFormat = ".mkv"
	FormatWebM OutputFormat = ".webm"
	FormatMOV  OutputFormat = ".mov"
	FormatGIF  OutputFormat = ".gif"
)

// SupportedFormats lists every format the dispatcher knows how to produce.
var SupportedFormats = []OutputFormat{FormatMP4, FormatMKV, FormatWebM, FormatMOV, FormatGIF}

// ParseFormat accepts "mp4", ".MP4" and the like.
func ParseFormat(s string) (OutputFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", fmt.Errorf("empty output format")
	}
	if !strings.HasPrefix(s, ".") {
		s = "." + s
	}
	for _, f := range SupportedFormats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q", s)
}

// IsAnimatedImage reports whether the format is the single-sequence GIF writer
// rather than a video container.
func (f OutputFormat) IsAnimatedImage() bool {
	return f == FormatGIF
}

// ResolutionMode selects how output frame dimensions are chosen.
type ResolutionMode string

const (
	ResolutionPreserve ResolutionMode = "preserve"
	ResolutionPreset   ResolutionMode = "preset"
	ResolutionCustom   ResolutionMode = "custom"
)

// ResolutionPresets maps the named presets to their pixel size.
var ResolutionPresets = map[string][2]int{
	"480p":  {854, 480},
	"720p":  {1280, 720},
	"1080p": {1920, 1080},
	"4K":    {3840, 2160},
}

// ResolutionPolicy is the rule determining each output frame's size.
type ResolutionPolicy struct {
	Mode   ResolutionMode `json:"mode" toml:"mode"`
	Preset string         `json:"preset,omitempty" toml:"preset,omitempty"`
	Width  int            `json:"width,omitempty" toml:"width,omitempty"`
	Height int            `json:"height,omitempty" toml:"height,omitempty"`
}

// ParseResolution understands "Same Resolution", "original", a preset name
// ("720p", "4k") or a custom "WxH" pair.
func ParseResolution(s string) (ResolutionPolicy, error) {
	trimmed := strings.TrimSpace(s)
	switch strings.ToLower(trimmed) {
	case "", "same resolution", "same", "original", "preserve":
		return ResolutionPolicy{Mode: ResolutionPreserve}, nil
	}
	for name := range ResolutionPresets {
		if strings.EqualFold(name, trimmed) {
			return ResolutionPolicy{Mode: ResolutionPreset, Preset: name}, nil
		}
	}
	w, h, ok := strings.Cut(strings.ToLower(trimmed), "x")
	if !ok {
		return ResolutionPolicy{}, fmt.Errorf("bad resolution %q; expected preset or WxH", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return ResolutionPolicy{}, fmt.Errorf("bad width in %q: %w", s, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return ResolutionPolicy{}, fmt.Errorf("bad height in %q: %w", s, err)
	}
	return ResolutionPolicy{Mode: ResolutionCustom, Width: width, Height: height}, nil
}

// String renders the policy back into the form ParseResolution accepts.
func (p ResolutionPolicy) String() string {
	switch p.Mode {
	case ResolutionPreset:
		return p.Preset
	case ResolutionCustom:
		return fmt.Sprintf("%dx%d", p.Width, p.Height)
	default:
		return "Same Resolution"
	}
}

// Destination is an optional place the finished artifact is published to.
type Destination struct {
	Type           string `json:"type"`                     // "directServe", "s3", "gcs" or "sftp"
	CredentialsKey string `json:"credentialsKey,omitempty"` // key into the credentials store
	Folder         string `json:"folder,omitempty"`         // sub folder / key prefix
}

// Settings are the per-run conversion parameters.
type Settings struct {
	FPS          int              `json:"fps"`
	Format       OutputFormat     `json:"format"`
	Combine      bool             `json:"combine"`
	Resolution   ResolutionPolicy `json:"resolution"`
	Quality      int              `json:"quality"` // CRF for video encoders
	OutputDir    string           `json:"outputDir"`
	Destinations []Destination    `json:"destinations,omitempty"`
}

// Callback is notified with the final result of a job.
type Callback struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// ConversionJob is built once per run and treated as immutable while it runs.
type ConversionJob struct {
	ID       string    `json:"id"`
	Inputs   []string  `json:"inputs"`
	Settings Settings  `json:"settings"`
	Callback *Callback `json:"callback,omitempty"`
}

// SourceAnimation describes one input file. Frame count and dimensions are
// only known once the file has been decoded.
type SourceAnimation struct {
	Path       string `json:"path"`
	FrameCount int    `json:"frameCount"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SizeBytes  int64  `json:"sizeBytes"`
}

// Frame is one composited bitmap and its global sequence index.
type Frame struct {
	Index int
	Image image.Image
}

// ExtractionResult holds the on-disk frames produced for one source, in
// increasing index order. Paths is empty when extraction failed.
type ExtractionResult struct {
	Source SourceAnimation
	Paths  []string
	Err    error
}

// OutputArtifact is a finished output file.
type OutputArtifact struct {
	Path       string       `json:"path"`
	Format     OutputFormat `json:"format"`
	FrameCount int          `json:"frameCount"`
	Source     string       `json:"source"` // input path, or "combined"
}
