package decoder

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"os"
	"path/filepath"
	"testing"

	"animvid/models"
)

// writeGIF writes a three frame animation where the later frames only
// cover part of the canvas.
func writeGIF(t *testing.T, path string) {
	t.Helper()
	full := image.NewPaletted(image.Rect(0, 0, 20, 10), palette.Plan9)
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			full.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	patch := func(x0 int) *image.Paletted {
		p := image.NewPaletted(image.Rect(x0, 0, x0+5, 5), palette.Plan9)
		for y := 0; y < 5; y++ {
			for x := x0; x < x0+5; x++ {
				p.Set(x, y, color.RGBA{255, 0, 0, 255})
			}
		}
		return p
	}
	anim := &gif.GIF{
		Image:    []*image.Paletted{full, patch(0), patch(10)},
		Delay:    []int{10, 10, 10},
		Disposal: []byte{gif.DisposalNone, gif.DisposalNone, gif.DisposalNone},
		Config:   image.Config{ColorModel: color.Palette(palette.Plan9), Width: 20, Height: 10},
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := gif.EncodeAll(f, anim); err != nil {
		t.Fatal(err)
	}
}

func TestImagingDecodeComposites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anim.gif")
	writeGIF(t, path)

	anim, err := Imaging{}.Decode(context.Background(), path)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if anim.Source.FrameCount != 3 || len(anim.Frames) != 3 {
		t.Fatalf("Expected 3 frames, got %d/%d", anim.Source.FrameCount, len(anim.Frames))
	}
	if anim.Source.Width != 20 || anim.Source.Height != 10 {
		t.Errorf("Expected 20x10 canvas, got %dx%d", anim.Source.Width, anim.Source.Height)
	}
	for i, f := range anim.Frames {
		if f.Bounds().Dx() != 20 || f.Bounds().Dy() != 10 {
			t.Errorf("Frame %d should cover the full canvas, got %v", i, f.Bounds())
		}
	}
	if anim.Source.SizeBytes <= 0 {
		t.Error("Expected file size to be recorded")
	}
}

func TestImagingDecodeCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.webp")
	if err := os.WriteFile(path, []byte("RIFF\x00\x00\x00\x00WEBPjunk"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Imaging{}.Decode(context.Background(), path)
	if !errors.Is(err, models.ErrDecode) {
		t.Fatalf("Expected ErrDecode, got %v", err)
	}
	var decodeErr *models.DecodeError
	if !errors.As(err, &decodeErr) || decodeErr.Path != path {
		t.Errorf("Expected DecodeError naming %s, got %v", path, err)
	}
}

func TestImagingDecodeMissingFile(t *testing.T) {
	_, err := Imaging{}.Decode(context.Background(), filepath.Join(t.TempDir(), "missing.gif"))
	if !errors.Is(err, models.ErrDecode) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Expected ErrDecode wrapping ErrNotExist, got %v", err)
	}
}

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anim.gif")
	writeGIF(t, path)

	src, err := Inspect(context.Background(), Imaging{}, path)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if src.Path != path || src.FrameCount != 3 {
		t.Errorf("Unexpected inspection result %+v", src)
	}
}
