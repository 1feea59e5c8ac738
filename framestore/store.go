// Package framestore manages the temporary directory a single conversion job
// writes its decoded frames into.
//
// Frame files are named frame_%06d.png after their global sequence index.
// That name is the only ordering signal the encoder gets, so nothing else in
// the pipeline may invent frame names.
package framestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"animvid/logger"
	"animvid/models"
)

const (
	framePrefix  = "frame_"
	frameExt     = ".png"
	FramePattern = framePrefix + "%06d" + frameExt
)

var frameName = regexp.MustCompile(`^frame_(\d{6,})\.png$`)

// Store is one job's frame directory. It is not shared between jobs.
type Store struct {
	dir string
}

// New creates a fresh directory under parent (os.TempDir() when empty).
func New(parent, jobID string) (*Store, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	dir, err := os.MkdirTemp(parent, "animvid-"+jobID+"-")
	if err != nil {
		return nil, fmt.Errorf("create frame store: %w", err)
	}
	logger.Debugf("frame store created at %s", dir)
	return &Store{dir: dir}, nil
}

// Dir returns the directory path.
func (s *Store) Dir() string { return s.dir }

// FramePath returns the file path for a global sequence index.
func (s *Store) FramePath(index int) string {
	return filepath.Join(s.dir, FrameName(index))
}

// FrameName is the zero padded file name for index.
func FrameName(index int) string {
	return fmt.Sprintf(FramePattern, index)
}

// ParseIndex extracts the sequence index from a frame file path.
func ParseIndex(path string) (int, bool) {
	m := frameName.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// List returns every frame file currently in the store, ordered by index.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list frame store: %w", err)
	}
	type indexed struct {
		idx  int
		path string
	}
	var frames []indexed
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		idx, ok := ParseIndex(e.Name())
		if !ok {
			continue
		}
		frames = append(frames, indexed{idx, filepath.Join(s.dir, e.Name())})
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].idx < frames[j].idx })
	paths := make([]string, len(frames))
	for i, f := range frames {
		paths[i] = f.path
	}
	return paths, nil
}

// Remove deletes the given frame files. Missing files are ignored; the
// first other failure is returned after every path has been tried.
func (s *Store) Remove(paths []string) error {
	var first error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warnf("failed to remove frame %s: %v", p, err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Close removes the directory if it is empty. A non-empty or undeletable
// directory is reported as a CleanupError and left in place.
func (s *Store) Close() error {
	if err := os.Remove(s.dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &models.CleanupError{Path: s.dir, Err: err}
	}
	logger.Debugf("frame store %s removed", s.dir)
	return nil
}
