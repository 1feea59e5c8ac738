// Package extract turns one source animation into numbered frame files.
//
// Decoding is sequential because each frame is composited over the canvas
// left by the previous one. Resizing and writing the decoded frames has no
// such dependency and is spread over a bounded set of workers.
package extract

import (
	"context"
	"fmt"
	"image"
	"runtime"

	"animvid/decoder"
	"animvid/framestore"
	"animvid/logger"
	"animvid/models"
	"animvid/normalize"

	"golang.org/x/sync/errgroup"
)

// Pool normalizes and persists decoded frames in parallel.
type Pool struct {
	Decoder decoder.Decoder
	Policy  models.ResolutionPolicy
	Workers int // defaults to runtime.NumCPU()
}

// NewPool returns a pool sized to the available CPUs.
func NewPool(d decoder.Decoder, policy models.ResolutionPolicy) *Pool {
	return &Pool{Decoder: d, Policy: policy, Workers: runtime.NumCPU()}
}

// Extract decodes path and writes each frame to store under the global
// index start+i. Failures are isolated to this source: the result carries
// the error, no paths, and none of its frames remain in the store.
func (p *Pool) Extract(ctx context.Context, store *framestore.Store, path string, start int) models.ExtractionResult {
	result := models.ExtractionResult{Source: models.SourceAnimation{Path: path}}

	anim, err := p.Decoder.Decode(ctx, path)
	if err != nil {
		logger.Errorf("Failed to extract frames from %s: %v", path, err)
		result.Err = err
		return result
	}
	result.Source = anim.Source

	paths, err := p.Persist(ctx, store, anim.Frames, start)
	if err != nil {
		logger.Errorf("Failed to persist frames of %s: %v", path, err)
		result.Err = &models.DecodeError{Path: path, Err: err}
		return result
	}
	result.Paths = paths
	logger.Debugf("extracted %d frames from %s (indices %d..%d)", len(paths), path, start, start+len(paths)-1)
	return result
}

// Persist normalizes frames and writes them as start, start+1, ... . The
// returned paths are in index order. On error every file written for this
// call is removed again.
func (p *Pool) Persist(ctx context.Context, store *framestore.Store, frames []image.Image, start int) ([]string, error) {
	paths := make([]string, len(frames))
	for i := range frames {
		paths[i] = store.FramePath(start + i)
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, img := range frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			frame := models.Frame{Index: start + i, Image: img}
			if err := p.persistFrame(paths[i], frame); err != nil {
				return fmt.Errorf("frame %d: %w", frame.Index, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Remove logs every frame it cannot delete; the persist error is
		// the one the caller acts on.
		_ = store.Remove(paths)
		return nil, err
	}
	return paths, nil
}

func (p *Pool) persistFrame(path string, f models.Frame) error {
	return framestore.WriteFrame(path, normalize.Frame(f.Image, p.Policy))
}
