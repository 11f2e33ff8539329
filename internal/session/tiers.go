package session

import (
	"os"
	"path/filepath"
	"sync"
)

// MemoryTier keeps the blob in process memory; it vanishes on restart,
// which is what the short-lived tier wants.
type MemoryTier struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryTier() *MemoryTier { return &MemoryTier{} }

func (t *MemoryTier) Read() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.data == nil {
		return nil, nil
	}
	out := make([]byte, len(t.data))
	copy(out, t.data)
	return out, nil
}

func (t *MemoryTier) Write(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data = make([]byte, len(data))
	copy(t.data, data)
	return nil
}

func (t *MemoryTier) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data = nil
	return nil
}

// FileTier persists the blob to a single JSON file so a remembered session
// survives restarts.
type FileTier struct {
	mu   sync.Mutex
	path string
}

func NewFileTier(path string) *FileTier { return &FileTier{path: path} }

func (t *FileTier) Read() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	data, err := os.ReadFile(t.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

func (t *FileTier) Write(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(t.path, data, 0o600)
}

func (t *FileTier) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := os.Remove(t.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
