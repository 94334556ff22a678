package generator

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/osikes/hemisphere/internal/domain"
)

// MemoryStore holds the latest applied wallpaper as encoded PNG bytes for
// the HTTP serving path. Apply replaces the previous image atomically; reads
// never observe a partially written wallpaper.
type MemoryStore struct {
	mu          sync.RWMutex
	data        []byte
	request     domain.GenerationRequest
	generatedAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Apply encodes the image and swaps it in as the latest wallpaper.
func (s *MemoryStore) Apply(_ context.Context, img image.Image, req domain.GenerationRequest) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode wallpaper: %w", err)
	}

	s.mu.Lock()
	s.data = buf.Bytes()
	s.request = req
	s.generatedAt = domain.Now()
	s.mu.Unlock()
	return nil
}

// Latest returns the current wallpaper PNG, its generation time, and whether
// one exists yet.
func (s *MemoryStore) Latest() ([]byte, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil, time.Time{}, false
	}
	return s.data, s.generatedAt, true
}

// CheckReadiness reports whether a wallpaper is available to serve.
func (s *MemoryStore) CheckReadiness(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return fmt.Errorf("no wallpaper generated yet")
	}
	return nil
}

// FileApplier writes the wallpaper to a file via a temp-file rename, so a
// crash mid-write never leaves a truncated image behind.
type FileApplier struct {
	Path string
}

func (f FileApplier) Apply(_ context.Context, img image.Image, _ domain.GenerationRequest) error {
	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, ".wallpaper-*.png")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("encode wallpaper: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("replace %s: %w", f.Path, err)
	}
	return nil
}
