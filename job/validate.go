package job

import (
	"fmt"
	"slices"

	"animvid/models"
)

// MaxQuality is the largest CRF any of the registered video codecs accepts.
const MaxQuality = 63

// Validate rejects a job that must not start. It touches nothing on disk.
func Validate(j models.ConversionJob) error {
	s := j.Settings
	if len(j.Inputs) == 0 {
		return &models.ConfigError{Reason: "no input files"}
	}
	for i, in := range j.Inputs {
		if in == "" {
			return &models.ConfigError{Reason: fmt.Sprintf("input %d is an empty path", i)}
		}
	}
	if s.FPS < 1 {
		return &models.ConfigError{Reason: fmt.Sprintf("frame rate must be positive, got %d", s.FPS)}
	}
	if !slices.Contains(models.SupportedFormats, s.Format) {
		return &models.ConfigError{Reason: fmt.Sprintf("unsupported output format %q", s.Format)}
	}
	if s.Quality < 0 || s.Quality > MaxQuality {
		return &models.ConfigError{Reason: fmt.Sprintf("quality must be within 0..%d, got %d", MaxQuality, s.Quality)}
	}
	if s.Combine && s.Format.IsAnimatedImage() && len(j.Inputs) >= 2 {
		return &models.ConfigError{Reason: fmt.Sprintf("cannot combine %d sources into %s", len(j.Inputs), s.Format)}
	}
	for _, d := range s.Destinations {
		switch d.Type {
		case "directServe", "s3", "gcs", "sftp":
		default:
			return &models.ConfigError{Reason: fmt.Sprintf("unknown destination type %q", d.Type)}
		}
	}
	return nil
}
