package framestore

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// Frames are stored as PNG without compression: they are read back once or
// twice and then deleted, so encode speed matters more than size.
var frameEncoder = png.Encoder{CompressionLevel: png.NoCompression}

// WriteFrame persists img at path. The file is written under a temporary
// name and renamed so a rewrite in place never leaves a torn frame behind.
func WriteFrame(path string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return fmt.Errorf("create frame %s: %w", path, err)
	}
	tmpName := tmp.Name()
	ok := false
	defer func() {
		if !ok {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	bw := bufio.NewWriterSize(tmp, 1<<20)
	if err := frameEncoder.Encode(bw, img); err != nil {
		return fmt.Errorf("encode frame %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write frame %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close frame %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename frame %s: %w", path, err)
	}
	ok = true
	return nil
}

// FrameSize reads only the header of a stored frame.
func FrameSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(bufio.NewReader(f))
	if err != nil {
		return 0, 0, fmt.Errorf("read frame header %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// ReadFrame decodes a stored frame.
func ReadFrame(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", path, err)
	}
	return img, nil
}
