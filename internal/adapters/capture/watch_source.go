package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mikey/image-classifier/internal/core"
	"go.uber.org/zap"
)

// WatchSource classifies images as they land in a capture directory.
// A file is classified once it has seen no writes for the settle delay.
type WatchSource struct {
	service    Classifier
	logger     *zap.Logger
	dir        string
	extensions map[string]struct{}
	settle     time.Duration

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	timers  map[string]*settleTimer
	stopped bool
}

// settleTimer is the pending classification of one path. Its identity,
// not the timer handle, tells a callback whether it is still current.
type settleTimer struct {
	timer *time.Timer
}

// NewWatchSource creates a watcher for dir accepting the given file extensions
func NewWatchSource(service Classifier, logger *zap.Logger, dir string, extensions []string, settle time.Duration) *WatchSource {
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = struct{}{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WatchSource{
		service:    service,
		logger:     logger,
		dir:        dir,
		extensions: exts,
		settle:     settle,
		ctx:        ctx,
		cancel:     cancel,
		timers:     make(map[string]*settleTimer),
	}
}

// Start begins watching the capture directory, creating it if needed
func (s *WatchSource) Start() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create capture directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}
	s.watcher = watcher

	s.wg.Add(1)
	go s.loop()

	s.logger.Info("Watching capture directory",
		zap.String("dir", s.dir),
		zap.Duration("settle_delay", s.settle))
	return nil
}

func (s *WatchSource) loop() {
	defer s.wg.Done()

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handle(event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("Capture watcher error", zap.Error(err))
		}
	}
}

// handle (re)arms the settle timer for writes and drops it for removals
func (s *WatchSource) handle(event fsnotify.Event) {
	if !s.accepts(event.Name) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	switch {
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		if pending, ok := s.timers[event.Name]; ok && pending.timer.Stop() {
			pending.timer.Reset(s.settle)
			return
		}
		path := event.Name
		pending := &settleTimer{}
		pending.timer = time.AfterFunc(s.settle, func() {
			s.fire(path, pending)
		})
		s.timers[path] = pending
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		if pending, ok := s.timers[event.Name]; ok {
			pending.timer.Stop()
			delete(s.timers, event.Name)
		}
	}
}

func (s *WatchSource) accepts(path string) bool {
	_, ok := s.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// fire classifies path unless its timer was superseded by a later write
func (s *WatchSource) fire(path string, pending *settleTimer) {
	s.mu.Lock()
	if s.timers[path] != pending {
		s.mu.Unlock()
		return
	}
	delete(s.timers, path)
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()

	// Errors are logged in ProcessImage
	_, _ = s.ProcessImage(s.ctx, path)
}

// ProcessImage classifies the image stored at path
func (s *WatchSource) ProcessImage(ctx context.Context, path string) (*core.Classification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("Failed to read captured image", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	result, err := s.service.ClassifyImage(ctx, data)
	if err != nil {
		s.logger.Error("Failed to classify captured image", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Classified captured image",
		zap.String("path", path),
		zap.String("best_label", result.Record.BestLabel),
		zap.Bool("accepted", result.Accepted),
		zap.Bool("cached", result.Cached))
	return result, nil
}

// Stop stops watching and waits for in-flight classifications
func (s *WatchSource) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	for path, pending := range s.timers {
		pending.timer.Stop()
		delete(s.timers, path)
	}
	s.mu.Unlock()

	var err error
	if s.watcher != nil {
		err = s.watcher.Close()
	}
	s.wg.Wait()
	s.cancel()

	s.logger.Info("Capture watcher stopped", zap.String("dir", s.dir))
	return err
}
