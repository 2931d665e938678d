package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONFile persists a single value of type T as an indented JSON file.
// Writes go to a temp file in the same directory and are renamed into
// place, so readers never see a partial file.
type JSONFile[T any] struct {
	mu   sync.Mutex
	path string
}

func OpenJSONFile[T any](dataDir, filename string) (*JSONFile[T], error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	return &JSONFile[T]{path: filepath.Join(dataDir, filename)}, nil
}

func (f *JSONFile[T]) Path() string {
	return f.path
}

// Read returns the stored value. found is false when nothing was written
// yet, in which case v is the zero value.
func (f *JSONFile[T]) Read() (v T, found bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, true, fmt.Errorf("decode %s: %w", filepath.Base(f.path), err)
	}
	return v, true, nil
}

func (f *JSONFile[T]) Write(v T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
