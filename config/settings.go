package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"animvid/models"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultFPS        = 16
	DefaultFormat     = models.FormatMP4
	DefaultQuality    = 22
	DefaultResolution = "Same Resolution"
)

// Settings is the persisted flat record of conversion defaults. It has no
// schema version; unknown keys are ignored and missing keys take defaults.
type Settings struct {
	FPS        int    `toml:"fps"`
	Format     string `toml:"format"`
	Quality    int    `toml:"quality"`
	Resolution string `toml:"resolution"`
	OutputDir  string `toml:"output_dir"`
}

// DefaultSettings mirrors the first-run state: 16 fps, mp4, CRF 22, source
// resolution, output into the working directory.
func DefaultSettings() Settings {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return Settings{
		FPS:        DefaultFPS,
		Format:     string(DefaultFormat),
		Quality:    DefaultQuality,
		Resolution: DefaultResolution,
		OutputDir:  wd,
	}
}

// LoadSettings reads the settings file at path. A missing file is not an
// error and yields DefaultSettings.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("parse settings %s: %w", path, err)
	}
	s.fillDefaults()
	return s, nil
}

// SaveSettings writes s to path, creating the parent directory.
func SaveSettings(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return os.Rename(tmp, path)
}

func (s *Settings) fillDefaults() {
	def := DefaultSettings()
	if s.FPS <= 0 {
		s.FPS = def.FPS
	}
	if s.Format == "" {
		s.Format = def.Format
	}
	if s.Quality <= 0 {
		s.Quality = def.Quality
	}
	if s.Resolution == "" {
		s.Resolution = def.Resolution
	}
	if s.OutputDir == "" {
		s.OutputDir = def.OutputDir
	}
}

// JobSettings turns the persisted record into the initial settings of a
// conversion job.
func (s Settings) JobSettings() (models.Settings, error) {
	format, err := models.ParseFormat(s.Format)
	if err != nil {
		return models.Settings{}, err
	}
	res, err := models.ParseResolution(s.Resolution)
	if err != nil {
		return models.Settings{}, err
	}
	return models.Settings{
		FPS:        s.FPS,
		Format:     format,
		Resolution: res,
		Quality:    s.Quality,
		OutputDir:  s.OutputDir,
	}, nil
}
