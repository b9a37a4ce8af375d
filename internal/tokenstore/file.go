package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pribylovaa/go-taskboard/internal/models"
)

// File хранит пару в JSON-документе {"access_token": ..., "refresh_token": ...}.
// Запись атомарная: временный файл в том же каталоге + rename. Права 0600.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile не трогает диск до первой записи.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Get(_ context.Context) (models.TokenPair, error) {
	const op = "tokenstore.File.Get"

	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.TokenPair{}, ErrNotFound
		}

		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	values := map[string]string{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: decode: %w", op, err)
	}

	return pairFrom(values)
}

func (f *File) Set(_ context.Context, pair models.TokenPair) error {
	const op = "tokenstore.File.Set"

	if !pair.Complete() {
		return fmt.Errorf("%s: %w", op, ErrIncompletePair)
	}

	raw, err := json.Marshal(valuesOf(pair))
	if err != nil {
		return fmt.Errorf("%s: encode: %w", op, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := writeAtomic(f.path, raw); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (f *File) Clear(_ context.Context) error {
	const op = "tokenstore.File.Clear"

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
