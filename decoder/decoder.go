package decoder

import (
	"context"
	"fmt"
	"image"
	"os"

	"animvid/logger"
	"animvid/models"

	"github.com/kovidgoyal/imaging"
)

// Animation is a decoded source: every frame is already composited onto the
// full canvas, in display order.
type Animation struct {
	Source models.SourceAnimation
	Frames []image.Image
}

// Decoder turns an animated image file into composited frames. Frames
// depend on the canvas left by the previous one, so a Decoder is always a
// sequential producer.
type Decoder interface {
	Decode(ctx context.Context, path string) (*Animation, error)
}

// Imaging decodes GIF, APNG and animated WebP through the imaging library,
// coalescing delta frames onto the running canvas.
type Imaging struct{}

// Decode implements Decoder. Any failure, including one halfway through the
// frame sequence, is returned as a *models.DecodeError and no frames.
func (Imaging) Decode(ctx context.Context, path string) (*Animation, error) {
	if err := ctx.Err(); err != nil {
		return nil, &models.DecodeError{Path: path, Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &models.DecodeError{Path: path, Err: err}
	}

	img, err := imaging.OpenAll(path)
	if err != nil {
		return nil, &models.DecodeError{Path: path, Err: err}
	}
	if len(img.Frames) == 0 {
		return nil, &models.DecodeError{Path: path, Err: fmt.Errorf("no frames")}
	}

	canvas := img.Clone()
	canvas.Coalesce()

	frames := make([]image.Image, 0, len(canvas.Frames))
	for _, f := range canvas.Frames {
		if f.Image == nil {
			return nil, &models.DecodeError{Path: path, Err: fmt.Errorf("frame %d is empty", f.Number)}
		}
		frames = append(frames, f.Image)
	}

	b := frames[0].Bounds()
	anim := &Animation{
		Source: models.SourceAnimation{
			Path:       path,
			FrameCount: len(frames),
			Width:      b.Dx(),
			Height:     b.Dy(),
			SizeBytes:  info.Size(),
		},
		Frames: frames,
	}
	logger.Debugf("decoded %s: %d frames at %dx%d", path, anim.Source.FrameCount, anim.Source.Width, anim.Source.Height)
	return anim, nil
}

// Inspect decodes path with d and returns only its description.
func Inspect(ctx context.Context, d Decoder, path string) (models.SourceAnimation, error) {
	anim, err := d.Decode(ctx, path)
	if err != nil {
		return models.SourceAnimation{Path: path}, err
	}
	return anim.Source, nil
}
