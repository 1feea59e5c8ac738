// Package normalize sizes frames for the encoder. Every output dimension is
// even because 4:2:0 chroma subsampling needs it.
package normalize

import (
	"image"

	"animvid/models"

	"github.com/kovidgoyal/imaging"
)

// Filter is the resampling filter used for every resize.
var Filter = imaging.Lanczos

// Even rounds n up to the next even number, with 2 as the floor.
func Even(n int) int {
	if n < 2 {
		return 2
	}
	if n%2 != 0 {
		return n + 1
	}
	return n
}

// Target resolves policy against a source of w x h pixels.
//
// Unknown presets and non-positive custom sizes fall back to preserving the
// source size.
func Target(policy models.ResolutionPolicy, w, h int) (int, int) {
	switch policy.Mode {
	case models.ResolutionPreset:
		if size, ok := models.ResolutionPresets[policy.Preset]; ok {
			return Even(size[0]), Even(size[1])
		}
	case models.ResolutionCustom:
		if policy.Width > 0 && policy.Height > 0 {
			return Even(policy.Width), Even(policy.Height)
		}
	}
	return Even(w), Even(h)
}

// Frame returns img sized according to policy. img is returned untouched
// when it already has the target size.
func Frame(img image.Image, policy models.ResolutionPolicy) image.Image {
	b := img.Bounds()
	tw, th := Target(policy, b.Dx(), b.Dy())
	return Resize(img, tw, th)
}

// Resize scales img to exactly w x h.
func Resize(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	return imaging.Resize(img, w, h, Filter)
}
