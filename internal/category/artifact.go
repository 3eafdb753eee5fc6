package category

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNoArtifact is returned by Load when no model has been saved yet.
var ErrNoArtifact = errors.New("no saved category model")

// FileArtifactStore persists models as JSON on the local filesystem.
type FileArtifactStore struct {
	Path string
}

// NewFileArtifactStore returns a store backed by path.
func NewFileArtifactStore(path string) *FileArtifactStore {
	return &FileArtifactStore{Path: path}
}

// Load reads and validates the saved model.
func (s *FileArtifactStore) Load() (*Model, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoArtifact
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	if m.Version != ModelVersion {
		return nil, fmt.Errorf("%w: artifact version %d, want %d", ErrCorruptModel, m.Version, ModelVersion)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save writes m to a temporary file in the target directory and renames it
// into place, so a reader never sees a partially written artifact.
func (s *FileArtifactStore) Save(m *Model) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// Rename already consumed the file on success.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write model artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync model artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close model artifact: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("failed to publish model artifact: %w", err)
	}
	return nil
}
