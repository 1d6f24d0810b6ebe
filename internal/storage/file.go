package storage

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mesh-intelligence/kennel/pkg/types"
)

// fileExt is appended to every escaped key on disk.
const fileExt = ".json"

// File stores each key as its own file in a data directory.
//
// Layout:
//
//	data_dir/
//	  mock_users.json
//	  mock_Product.json
//	  currentUser.json
//
// Keys are path-escaped so any key maps to a single file name. Writes use
// the temp-file, fsync, rename pattern so a reader never sees half a document.
type File struct {
	mu     sync.RWMutex
	dir    string
	closed bool
}

// NewFile creates dir if needed and returns a storage rooted there.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &File{dir: dir}, nil
}

// Dir returns the data directory.
func (f *File) Dir() string { return f.dir }

func (f *File) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+fileExt)
}

func (f *File) GetItem(_ context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, types.ErrInvalidKey
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil, false, types.ErrStorageClosed
	}
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, true, nil
}

func (f *File) SetItem(_ context.Context, key string, value []byte) error {
	if key == "" {
		return types.ErrInvalidKey
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return types.ErrStorageClosed
	}
	return writeAtomic(f.path(key), value)
}

func (f *File) RemoveItem(_ context.Context, key string) error {
	if key == "" {
		return types.ErrInvalidKey
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return types.ErrStorageClosed
	}
	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

func (f *File) Keys(_ context.Context) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil, types.ErrStorageClosed
	}
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", f.dir, err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// writeAtomic writes data to path using the temp-file, fsync, rename
// pattern.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".kennel-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	if _, err := w.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing document: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
