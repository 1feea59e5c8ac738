package job

import (
	"animvid/models"
)

// FromRequest builds a job from a convert request. Zero fields take the
// value from defaults. Parse failures are ConfigErrors.
func FromRequest(req models.ConvertJob, defaults models.Settings) (models.ConversionJob, error) {
	s := defaults
	s.Combine = req.Combine
	if req.FPS != 0 {
		s.FPS = req.FPS
	}
	if req.Format != "" {
		f, err := models.ParseFormat(req.Format)
		if err != nil {
			return models.ConversionJob{}, &models.ConfigError{Reason: err.Error()}
		}
		s.Format = f
	}
	if req.Resolution != "" {
		r, err := models.ParseResolution(req.Resolution)
		if err != nil {
			return models.ConversionJob{}, &models.ConfigError{Reason: err.Error()}
		}
		s.Resolution = r
	}
	if req.Quality != 0 {
		s.Quality = req.Quality
	}
	if req.OutputDir != "" {
		s.OutputDir = req.OutputDir
	}
	s.Destinations = req.Destinations

	j := models.ConversionJob{
		Inputs:   append([]string(nil), req.Inputs...),
		Settings: s,
	}
	if req.CallbackURL != "" {
		j.Callback = &models.Callback{URL: req.CallbackURL, Headers: req.CallbackHeaders}
	}
	return j, nil
}
