package kvstore

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
)

// File keeps every key in a single JSON object on disk
type File struct {
	filePath string
	mu       sync.RWMutex
	values   map[string]string
}

// NewFile opens (or lazily creates) a JSON-backed store at filePath
func NewFile(filePath string) (*File, error) {
	if filePath == "" {
		return nil, fmt.Errorf("store path cannot be empty")
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	f := &File{filePath: filePath, values: map[string]string{}}

	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	if err := sonic.Unmarshal(data, &f.values); err != nil {
		// Corrupted file - backup and start fresh
		backupPath := filePath + ".backup"
		if renameErr := os.Rename(filePath, backupPath); renameErr != nil {
			log.Printf("kvstore: could not back up corrupt store %s: %v", filePath, renameErr)
		}
		f.values = map[string]string{}
	}
	if f.values == nil {
		f.values = map[string]string{}
	}

	return f, nil
}

func (f *File) Get(key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.values[key]
	f.values[key] = value
	if err := f.saveUnlocked(); err != nil {
		if had {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.values[key]
	if !had {
		return nil
	}
	delete(f.values, key)
	if err := f.saveUnlocked(); err != nil {
		f.values[key] = prev
		return err
	}
	return nil
}

// saveUnlocked writes the whole map (must be called with lock held)
func (f *File) saveUnlocked() error {
	data, err := sonic.ConfigStd.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	// Write to temp file
	tempPath := f.filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, f.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
