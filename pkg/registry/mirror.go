package registry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Mirror receives a copy of every registry write. It's a fire-and-forget
// side channel: the registry logs mirror failures and moves on, so an
// implementation can be as unreliable as the backing store it wraps.
type Mirror interface {
	Store(ctx context.Context, info ServerInfo) error
	Remove(ctx context.Context, name string) error
}

// FileMirror persists the registry as a JSON snapshot on disk, so an
// operator can inspect (or another process can pick up) the current server
// table. The whole snapshot is rewritten on every change; at the scale of a
// server registry that's cheaper than maintaining an incremental format.
type FileMirror struct {
	path string

	mu      sync.Mutex
	servers map[string]ServerInfo
}

func NewFileMirror(path string) *FileMirror {
	return &FileMirror{
		path:    path,
		servers: make(map[string]ServerInfo),
	}
}

func (m *FileMirror) Store(_ context.Context, info ServerInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.servers[info.Name] = info
	return m.write()
}

func (m *FileMirror) Remove(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.servers, name)
	return m.write()
}

func (m *FileMirror) write() error {
	buf, err := json.MarshalIndent(m.servers, "", "  ")
	if err != nil {
		return err
	}

	// Write to a temp file first so a reader never sees a torn snapshot.
	tmp := m.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}
