package encoder

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"math"
	"os"
	"runtime"
	"time"

	"animvid/framestore"

	"golang.org/x/sync/errgroup"
)

// FrameDuration is 1000/fps milliseconds, rounded.
func FrameDuration(fps int) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(math.Round(1000/float64(fps))) * time.Millisecond
}

// gifDelay converts a frame duration to GIF centiseconds, never below 1.
func gifDelay(d time.Duration) int {
	cs := int(math.Round(float64(d.Milliseconds()) / 10))
	if cs < 1 {
		return 1
	}
	return cs
}

// EncodeGIF writes frames as one animation that loops forever. Every frame
// fully replaces the previous one.
func EncodeGIF(ctx context.Context, frames []string, output string, o EncodeOptions) error {
	paletted := make([]*image.Paletted, len(frames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := framestore.ReadFrame(path)
			if err != nil {
				return err
			}
			b := img.Bounds()
			p := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette.Plan9)
			draw.FloydSteinberg.Draw(p, p.Bounds(), img, b.Min)
			paletted[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	delay := gifDelay(FrameDuration(o.FPS))
	anim := &gif.GIF{
		Image:     paletted,
		Delay:     make([]int, len(paletted)),
		Disposal:  make([]byte, len(paletted)),
		LoopCount: 0,
	}
	w, h := 0, 0
	for i, p := range paletted {
		anim.Delay[i] = delay
		anim.Disposal[i] = gif.DisposalBackground
		w = max(w, p.Bounds().Dx())
		h = max(h, p.Bounds().Dy())
	}
	anim.Config = image.Config{Width: w, Height: h}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	bw := bufio.NewWriter(f)
	if err := gif.EncodeAll(bw, anim); err != nil {
		f.Close()
		return fmt.Errorf("write gif: %w", err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write gif: %w", err)
	}
	return f.Close()
}
