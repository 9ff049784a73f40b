package camera

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileDevice emulates a camera by replaying still images from a directory.
// Used on development terminals without capture hardware; the UI shell's
// capture bridge provides the real Device in production.
type FileDevice struct {
	dir      string
	interval time.Duration
}

// NewFileDevice creates a file-backed device. interval paces frame
// delivery, approximating a native capture rate.
func NewFileDevice(dir string, interval time.Duration) *FileDevice {
	if interval <= 0 {
		interval = 66 * time.Millisecond
	}
	return &FileDevice{dir: dir, interval: interval}
}

// Open loads the frame set and starts delivering frames. A missing or
// empty directory classifies as ErrNoDevice.
func (d *FileDevice) Open(ctx context.Context) (Stream, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoDevice, d.dir)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			paths = append(paths, filepath.Join(d.dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no frames in %s", ErrNoDevice, d.dir)
	}
	sort.Strings(paths)

	s := &fileStream{
		frames: make(chan Frame),
		stop:   make(chan struct{}),
	}
	go s.run(paths, d.interval)
	return s, nil
}

type fileStream struct {
	frames    chan Frame
	stop      chan struct{}
	closeOnce sync.Once
}

func (s *fileStream) Frames() <-chan Frame {
	return s.frames
}

// Close releases the stream. Idempotent.
func (s *fileStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
	})
	return nil
}

// run replays the frame set in a loop until Close.
func (s *fileStream) run(paths []string, interval time.Duration) {
	defer close(s.frames)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	i := 0
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			frame, err := loadFrame(paths[i%len(paths)])
			i++
			if err != nil {
				log.Printf("[Camera] failed to load frame: %v", err)
				continue
			}
			select {
			case s.frames <- frame:
			case <-s.stop:
				return
			}
		}
	}
}

func loadFrame(path string) (Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return Frame{}, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Frame{}, fmt.Errorf("decode %s: %w", path, err)
	}

	bounds := img.Bounds()
	return Frame{
		Image:  img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
