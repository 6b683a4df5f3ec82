package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ResultWriter persists one analysis result as indented JSON at a fixed path.
// Every Write replaces the previous file; nothing is appended or versioned.
type ResultWriter struct {
	filePath string
	mu       sync.Mutex
}

// NewResultWriter creates the parent directory of path if needed.
func NewResultWriter(path string) (*ResultWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("output path is required")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return &ResultWriter{filePath: path}, nil
}

func (w *ResultWriter) Path() string {
	return w.filePath
}

// Write encodes v with four-space indentation and swaps it into place via a
// temp file in the same directory, so readers never observe a partial file.
func (w *ResultWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(w.filePath), ".result-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush result: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set result permissions: %w", err)
	}

	if err := os.Rename(tmpPath, w.filePath); err != nil {
		return fmt.Errorf("failed to replace %s: %w", w.filePath, err)
	}
	return nil
}

// Read decodes the current file into v.
func (w *ResultWriter) Read(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	file, err := os.Open(w.filePath)
	if err != nil {
		return fmt.Errorf("failed to open result file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(v); err != nil {
		return fmt.Errorf("failed to decode result file: %w", err)
	}
	return nil
}
