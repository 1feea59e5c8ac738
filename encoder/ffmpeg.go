package encoder

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"animvid/framestore"
	"animvid/models"
)

var commandContext = exec.CommandContext

// Codecs maps a container extension to the ffmpeg video codec used for it.
var Codecs = map[models.OutputFormat]string{
	models.FormatMP4:  "libx264",
	models.FormatMKV:  "libx264",
	models.FormatMOV:  "libx264",
	models.FormatWebM: "libvpx-vp9",
}

// DefaultCodec is used for containers missing from Codecs.
const DefaultCodec = "libx264"

// CodecFor returns the codec for format.
func CodecFor(format models.OutputFormat) string {
	if c, ok := Codecs[format]; ok {
		return c
	}
	return DefaultCodec
}

// FFmpeg encodes a frame sequence into a video container.
type FFmpeg struct {
	Binary string
}

// Encode runs ffmpeg over the image sequence. No audio track is written and
// the pixel format is yuv420p for player compatibility.
func (f FFmpeg) Encode(ctx context.Context, frames []string, output string, o EncodeOptions) error {
	args, err := Args(frames, output, o)
	if err != nil {
		return &models.EncodeError{Output: output, Err: err}
	}
	bin := f.Binary
	if bin == "" {
		bin = "ffmpeg"
	}

	stderr := &tailBuffer{limit: 4096}
	cmd := commandContext(ctx, bin, args...)
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return &models.EncodeError{Output: output, Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}
	return nil
}

// Args builds the ffmpeg command line. frames must be a contiguous run of
// frame files in one directory.
func Args(frames []string, output string, o EncodeOptions) ([]string, error) {
	start, err := contiguousStart(frames)
	if err != nil {
		return nil, err
	}
	codec := CodecFor(o.Format)
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-framerate", strconv.Itoa(o.FPS),
		"-start_number", strconv.Itoa(start),
		"-i", filepath.Join(filepath.Dir(frames[0]), framestore.FramePattern),
		"-frames:v", strconv.Itoa(len(frames)),
		"-c:v", codec,
		"-crf", strconv.Itoa(o.Quality),
	}
	if codec == "libvpx-vp9" {
		// constant quality mode for vp9
		args = append(args, "-b:v", "0")
	} else {
		args = append(args, "-preset", "medium")
	}
	args = append(args,
		"-pix_fmt", "yuv420p",
		"-an",
		output,
	)
	return args, nil
}

func contiguousStart(frames []string) (int, error) {
	if len(frames) == 0 {
		return 0, fmt.Errorf("no frames")
	}
	dir := filepath.Dir(frames[0])
	start, ok := framestore.ParseIndex(frames[0])
	if !ok {
		return 0, fmt.Errorf("%s is not a frame file", frames[0])
	}
	for i, p := range frames {
		idx, ok := framestore.ParseIndex(p)
		if !ok {
			return 0, fmt.Errorf("%s is not a frame file", p)
		}
		if filepath.Dir(p) != dir {
			return 0, fmt.Errorf("frames span directories %s and %s", dir, filepath.Dir(p))
		}
		if idx != start+i {
			return 0, fmt.Errorf("frame sequence has a gap at %s (expected index %d)", filepath.Base(p), start+i)
		}
	}
	return start, nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)
	if over := t.buf.Len() - t.limit; over > 0 {
		t.buf.Next(over)
	}
	return n, nil
}

func (t *tailBuffer) String() string { return t.buf.String() }
