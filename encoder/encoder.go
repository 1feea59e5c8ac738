package encoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"

	"animvid/logger"
	"animvid/models"
)

// EncodeFunc is the function signature for any encoder. frames are existing
// frame files in playback order.
type EncodeFunc func(ctx context.Context, frames []string, output string, opts EncodeOptions) error

type EncodeOptions struct {
	FPS     int
	Quality int
	Format  models.OutputFormat
}

// Dispatcher produces an output artifact from a frame sequence.
type Dispatcher interface {
	Encode(ctx context.Context, frames []string, fps int, output string, format models.OutputFormat, quality int) (string, error)
}

// Registry maps output format → encoder function
type Registry struct {
	mu       sync.RWMutex
	encoders map[models.OutputFormat]EncodeFunc
}

// Default is the process wide registry filled by RegisterDefaults.
var Default = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{encoders: make(map[models.OutputFormat]EncodeFunc)}
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// Register adds encoder if the underlying command exists, logs status.
// An empty cmdName registers unconditionally.
func (r *Registry) Register(format models.OutputFormat, cmdName string, fn EncodeFunc) bool {
	if cmdName != "" {
		if _, err := lookPath(cmdName); err != nil {
			logger.Warnf("encoder [%s] skipped: command '%s' not found in PATH", format, cmdName)
			return false
		}
	}
	r.mu.Lock()
	r.encoders[format] = fn
	r.mu.Unlock()
	if cmdName == "" {
		logger.Debugf("encoder [%s] registered (no command required)", format)
	} else {
		logger.Debugf("encoder [%s] registered (command: %s)", format, cmdName)
	}
	return true
}

// Get looks up the encoder for format.
func (r *Registry) Get(format models.OutputFormat) (EncodeFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.encoders[format]
	return fn, ok
}

// Formats lists the registered formats.
func (r *Registry) Formats() []models.OutputFormat {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.OutputFormat, 0, len(r.encoders))
	for f := range r.encoders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RegisterDefaults registers the GIF writer and, when ffmpeg is available,
// every video container.
func (r *Registry) RegisterDefaults(ffmpegBin string) {
	r.Register(models.FormatGIF, "", EncodeGIF)
	video := FFmpeg{Binary: ffmpegBin}
	for _, f := range models.SupportedFormats {
		if f.IsAnimatedImage() {
			continue
		}
		r.Register(f, ffmpegBin, video.Encode)
	}
}

// Encode implements Dispatcher. Any failure is returned as a
// *models.EncodeError and no file is left at output.
func (r *Registry) Encode(ctx context.Context, frames []string, fps int, output string, format models.OutputFormat, quality int) (string, error) {
	if len(frames) == 0 {
		return "", &models.EncodeError{Output: output, Err: errors.New("no frames")}
	}
	if fps <= 0 {
		return "", &models.EncodeError{Output: output, Err: fmt.Errorf("invalid frame rate %d", fps)}
	}
	fn, ok := r.Get(format)
	if !ok {
		return "", &models.EncodeError{Output: output, Err: fmt.Errorf("no encoder registered for %s", format)}
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return "", &models.EncodeError{Output: output, Err: err}
	}

	logger.Debugf("encoding %d frames at %d fps into %s", len(frames), fps, output)
	err := fn(ctx, frames, output, EncodeOptions{FPS: fps, Quality: quality, Format: format})
	if err != nil {
		if rmErr := os.Remove(output); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.Warnf("failed to remove partial output %s: %v", output, rmErr)
		}
		var encErr *models.EncodeError
		if errors.As(err, &encErr) {
			return "", err
		}
		return "", &models.EncodeError{Output: output, Err: err}
	}
	return output, nil
}
