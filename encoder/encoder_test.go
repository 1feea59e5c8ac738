package encoder

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"animvid/framestore"
	"animvid/models"

	"github.com/google/go-cmp/cmp"
)

func writeFrames(t *testing.T, dir string, start, n, w, h int) []string {
	t.Helper()
	var paths []string
	for i := 0; i < n; i++ {
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetNRGBA(x, y, color.NRGBA{uint8(40 * i), 80, 160, 255})
			}
		}
		p := filepath.Join(dir, framestore.FrameName(start+i))
		if err := framestore.WriteFrame(p, img); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestCodecFor(t *testing.T) {
	cases := map[models.OutputFormat]string{
		models.FormatMP4:  "libx264",
		models.FormatMKV:  "libx264",
		models.FormatWebM: "libvpx-vp9",
		".avi":            "libx264",
	}
	for format, want := range cases {
		if got := CodecFor(format); got != want {
			t.Errorf("CodecFor(%s) = %s, want %s", format, got, want)
		}
	}
}

func TestFrameDuration(t *testing.T) {
	cases := map[int]time.Duration{
		10: 100 * time.Millisecond,
		16: 63 * time.Millisecond,
		30: 33 * time.Millisecond,
		60: 17 * time.Millisecond,
		0:  0,
	}
	for fps, want := range cases {
		if got := FrameDuration(fps); got != want {
			t.Errorf("FrameDuration(%d) = %v, want %v", fps, got, want)
		}
	}
	if gifDelay(FrameDuration(16)) != 6 {
		t.Errorf("Expected 6cs delay at 16 fps, got %d", gifDelay(FrameDuration(16)))
	}
	if gifDelay(FrameDuration(500)) != 1 {
		t.Error("GIF delay must never be zero")
	}
}

func TestArgs(t *testing.T) {
	frames := []string{"/tmp/job/frame_000003.png", "/tmp/job/frame_000004.png", "/tmp/job/frame_000005.png"}

	args, err := Args(frames, "/out/a.mp4", EncodeOptions{FPS: 12, Quality: 22, Format: models.FormatMP4})
	if err != nil {
		t.Fatalf("Args failed: %v", err)
	}
	want := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-framerate", "12",
		"-start_number", "3",
		"-i", "/tmp/job/frame_%06d.png",
		"-frames:v", "3",
		"-c:v", "libx264",
		"-crf", "22",
		"-preset", "medium",
		"-pix_fmt", "yuv420p",
		"-an",
		"/out/a.mp4",
	}
	if diff := cmp.Diff(want, args); diff != "" {
		t.Errorf("Args mismatch (-want +got):\n%s", diff)
	}

	args, err = Args(frames, "/out/a.webm", EncodeOptions{FPS: 12, Quality: 30, Format: models.FormatWebM})
	if err != nil {
		t.Fatalf("Args failed: %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-c:v libvpx-vp9") || !strings.Contains(joined, "-b:v 0") {
		t.Errorf("Expected vp9 constant quality args, got %v", args)
	}
	if strings.Contains(joined, "-preset") {
		t.Errorf("vp9 does not take an x264 preset, got %v", args)
	}
}

func TestArgsRejectsBrokenSequences(t *testing.T) {
	cases := [][]string{
		{"/tmp/job/frame_000000.png", "/tmp/job/frame_000002.png"},
		{"/tmp/a/frame_000000.png", "/tmp/b/frame_000001.png"},
		{"/tmp/job/cover.png"},
		nil,
	}
	for _, frames := range cases {
		if _, err := Args(frames, "out.mp4", EncodeOptions{FPS: 10}); err == nil {
			t.Errorf("Expected error for %v", frames)
		}
	}
}

func fakeFFmpeg(t *testing.T, mode string) *[]string {
	t.Helper()
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string{name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], append([]string{"-test.run=TestHelperProcess", "--"}, args...)...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("FFMPEG_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &captured
}

func TestFFmpegEncodeSuccess(t *testing.T) {
	captured := fakeFFmpeg(t, "success")
	dir := t.TempDir()
	frames := writeFrames(t, dir, 0, 3, 4, 4)
	out := filepath.Join(t.TempDir(), "clip.mp4")

	r := NewRegistry()
	r.Register(models.FormatMP4, "", FFmpeg{Binary: "/opt/ffmpeg"}.Encode)

	got, err := r.Encode(context.Background(), frames, 10, out, models.FormatMP4, 22)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if got != out {
		t.Errorf("Expected artifact %s, got %s", out, got)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("Expected output file to exist: %v", err)
	}
	if len(*captured) == 0 || (*captured)[0] != "/opt/ffmpeg" {
		t.Errorf("Expected configured binary to be invoked, got %v", *captured)
	}
}

func TestFFmpegEncodeFailure(t *testing.T) {
	fakeFFmpeg(t, "failure")
	frames := writeFrames(t, t.TempDir(), 0, 2, 4, 4)
	out := filepath.Join(t.TempDir(), "clip.mkv")

	r := NewRegistry()
	r.Register(models.FormatMKV, "", FFmpeg{}.Encode)

	_, err := r.Encode(context.Background(), frames, 10, out, models.FormatMKV, 22)
	if !errors.Is(err, models.ErrEncode) {
		t.Fatalf("Expected ErrEncode, got %v", err)
	}
	var encErr *models.EncodeError
	if !errors.As(err, &encErr) || !strings.Contains(encErr.Stderr, "Unknown encoder") {
		t.Errorf("Expected stderr to be captured, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("Partial output must be removed after a failed encode")
	}
}

func TestRegistryEncodeValidation(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Encode(context.Background(), nil, 10, "out.mp4", models.FormatMP4, 22); !errors.Is(err, models.ErrEncode) {
		t.Errorf("Expected ErrEncode for empty frame list, got %v", err)
	}
	if _, err := r.Encode(context.Background(), []string{"frame_000000.png"}, 10, "out.mp4", models.FormatMP4, 22); !errors.Is(err, models.ErrEncode) {
		t.Errorf("Expected ErrEncode for unregistered format, got %v", err)
	}
	r.Register(models.FormatMP4, "", EncodeGIF)
	if _, err := r.Encode(context.Background(), []string{"frame_000000.png"}, 0, "out.mp4", models.FormatMP4, 22); !errors.Is(err, models.ErrEncode) {
		t.Errorf("Expected ErrEncode for zero fps, got %v", err)
	}
}

func TestRegisterSkipsMissingCommand(t *testing.T) {
	original := lookPath
	lookPath = func(name string) (string, error) { return "", exec.ErrNotFound }
	t.Cleanup(func() { lookPath = original })

	r := NewRegistry()
	r.RegisterDefaults("ffmpeg")

	if diff := cmp.Diff([]models.OutputFormat{models.FormatGIF}, r.Formats()); diff != "" {
		t.Errorf("Only the GIF writer should register without ffmpeg (-want +got):\n%s", diff)
	}
}

func TestRegisterDefaultsWithFFmpeg(t *testing.T) {
	original := lookPath
	lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	t.Cleanup(func() { lookPath = original })

	r := NewRegistry()
	r.RegisterDefaults("ffmpeg")
	if len(r.Formats()) != len(models.SupportedFormats) {
		t.Errorf("Expected every format registered, got %v", r.Formats())
	}
}

func TestEncodeGIF(t *testing.T) {
	frames := writeFrames(t, t.TempDir(), 0, 3, 8, 6)
	out := filepath.Join(t.TempDir(), "anim.gif")

	r := NewRegistry()
	r.Register(models.FormatGIF, "", EncodeGIF)
	if _, err := r.Encode(context.Background(), frames, 10, out, models.FormatGIF, 0); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatalf("Output is not a valid GIF: %v", err)
	}
	if len(anim.Image) != 3 {
		t.Fatalf("Expected 3 frames, got %d", len(anim.Image))
	}
	if anim.LoopCount != 0 {
		t.Errorf("Expected infinite loop, got LoopCount %d", anim.LoopCount)
	}
	for i := range anim.Image {
		if anim.Delay[i] != 10 {
			t.Errorf("Frame %d: expected delay 10cs, got %d", i, anim.Delay[i])
		}
		if anim.Disposal[i] != gif.DisposalBackground {
			t.Errorf("Frame %d: expected background disposal, got %d", i, anim.Disposal[i])
		}
	}
	if anim.Config.Width != 8 || anim.Config.Height != 6 {
		t.Errorf("Expected 8x6 canvas, got %dx%d", anim.Config.Width, anim.Config.Height)
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}

	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "success":
		if len(args) > 0 {
			os.WriteFile(args[len(args)-1], []byte("fake video"), 0644)
		}
		os.Exit(0)
	case "failure":
		if len(args) > 0 {
			os.WriteFile(args[len(args)-1], []byte("partial"), 0644)
		}
		fmt.Fprintln(os.Stderr, "Unknown encoder 'libx264'")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}
