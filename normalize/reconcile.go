package normalize

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"animvid/framestore"
	"animvid/logger"

	"golang.org/x/sync/errgroup"
)

// ReconcileReport describes what Reconcile did to a merged frame set.
type ReconcileReport struct {
	Width, Height int
	Mismatch      bool
	Resized       int
	Failed        int
	Unreadable    int // headers the scan could not read
	Advisory      string
}

// Reconcile makes every frame in paths the size of the first one.
//
// The scan stops at the first frame whose header differs from the target.
// An unreadable header is logged and skipped, not taken as a mismatch.
// When a mismatch is found, every frame after the first is rewritten in
// place at the target size. Frames that cannot be rewritten are logged and
// counted; Reconcile only returns an error when the target itself cannot be
// read.
func Reconcile(ctx context.Context, paths []string, workers int) (ReconcileReport, error) {
	var report ReconcileReport
	if len(paths) == 0 {
		return report, nil
	}

	tw, th, err := framestore.FrameSize(paths[0])
	if err != nil {
		return report, fmt.Errorf("read combine target: %w", err)
	}
	report.Width, report.Height = tw, th

	for _, p := range paths[1:] {
		w, h, err := framestore.FrameSize(p)
		if err != nil {
			logger.Warnf("cannot read frame header of %s: %v", p, err)
			report.Unreadable++
			continue
		}
		if w != tw || h != th {
			report.Mismatch = true
			break
		}
	}
	if !report.Mismatch {
		return report, nil
	}

	report.Advisory = fmt.Sprintf("mixed resolutions detected, normalizing to %dx%d", tw, th)
	logger.Warnf("%s (%d frames)", report.Advisory, len(paths))

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var resized, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, p := range paths[1:] {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := resizeInPlace(p, tw, th); err != nil {
				logger.Errorf("failed to normalize %s: %v", p, err)
				failed.Add(1)
				return nil
			}
			resized.Add(1)
			return nil
		})
	}
	err = g.Wait()
	report.Resized = int(resized.Load())
	report.Failed = int(failed.Load())
	if err != nil {
		return report, err
	}
	return report, nil
}

func resizeInPlace(path string, w, h int) error {
	img, err := framestore.ReadFrame(path)
	if err != nil {
		return err
	}
	return framestore.WriteFrame(path, Resize(img, w, h))
}
