package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Player plays MP3 audio.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// gestureAware players learn about explicit user actions, which authorize
// playback the way a click does in a browser.
type gestureAware interface {
	Allow()
}

// FilePlayer "plays" audio by writing each clip to a numbered MP3 file.
type FilePlayer struct {
	dir string

	mu   sync.Mutex
	next int
}

func NewFilePlayer(dir string) (*FilePlayer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &FilePlayer{dir: dir}, nil
}

func (p *FilePlayer) Play(ctx context.Context, audio []byte) error {
	p.mu.Lock()
	p.next++
	name := filepath.Join(p.dir, fmt.Sprintf("speech-%04d.mp3", p.next))
	p.mu.Unlock()

	if err := os.WriteFile(name, audio, 0o644); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}
	slog.InfoContext(ctx, "Audio written", "file", name, "bytes", len(audio))
	return nil
}

// GatedPlayer refuses playback with ErrPlaybackNotAllowed until Allow is
// called, modelling a browser autoplay policy.
type GatedPlayer struct {
	inner Player

	mu      sync.Mutex
	allowed bool
}

func NewGatedPlayer(inner Player) *GatedPlayer {
	return &GatedPlayer{inner: inner}
}

func (p *GatedPlayer) Allow() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allowed = true
}

func (p *GatedPlayer) Allowed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allowed
}

func (p *GatedPlayer) Play(ctx context.Context, audio []byte) error {
	if !p.Allowed() {
		return ErrPlaybackNotAllowed
	}
	return p.inner.Play(ctx, audio)
}
