// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	harvesterrors "github.com/sirseerhq/sirseer-harvest/internal/errors"
)

// Store loads and saves the run-state. It is the sole persistence boundary
// of the pipeline.
type Store interface {
	// Load returns the persisted run-state, or an empty one if nothing has
	// been saved yet.
	Load(ctx context.Context) (*RunState, error)

	// Save persists the run-state, replacing the previous one.
	Save(ctx context.Context, s *RunState) error

	// Close releases resources held by the store.
	Close() error
}

// FileStore persists the run-state as a JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the state file location.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads and validates the state file. A missing file yields an empty
// RunState.
func (f *FileStore) Load(_ context.Context) (*RunState, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read state file %s: %v: %w", f.path, err, harvesterrors.ErrStateIO)
	}
	return Decode(data)
}

// Save atomically writes the state file with integrity validation.
// It uses a write-to-temp-and-rename pattern to ensure atomicity.
func (f *FileStore) Save(_ context.Context, s *RunState) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}

	// Ensure the directory exists
	stateDir := filepath.Dir(f.path)
	if mkdirErr := os.MkdirAll(stateDir, 0o755); mkdirErr != nil {
		return fmt.Errorf("failed to create state directory: %v: %w", mkdirErr, harvesterrors.ErrStateIO)
	}

	if err := WriteFileAtomic(f.path, data, 0o600); err != nil {
		return fmt.Errorf("%v: %w", err, harvesterrors.ErrStateIO)
	}
	return nil
}

// Close implements Store.
func (f *FileStore) Close() error {
	return nil
}

// WriteFileAtomic writes data to a temporary file next to path, syncs it
// and renames it over path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tempFile := path + ".tmp"

	// Write to temporary file with restricted permissions
	if writeErr := os.WriteFile(tempFile, data, perm); writeErr != nil {
		return fmt.Errorf("failed to write temporary file: %w", writeErr)
	}

	// Sync to ensure data is flushed to disk
	file, err := os.Open(tempFile)
	if err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to open temp file for sync: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempFile, path); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Encode stamps the current version and checksum on s and marshals it.
func Encode(s *RunState) ([]byte, error) {
	s.init()
	s.Version = CurrentVersion

	checksum, err := calculateChecksum(s)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksum: %w", err)
	}
	s.Checksum = checksum

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	return data, nil
}

// Decode unmarshals a state blob and verifies its version and checksum.
func Decode(data []byte) (*RunState, error) {
	var s RunState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("state is corrupted (invalid JSON): %v: %w", err, harvesterrors.ErrStateCorrupted)
	}

	// Check version compatibility
	if s.Version != CurrentVersion {
		return nil, fmt.Errorf("state version (%d) is incompatible with current version (%d): %w",
			s.Version, CurrentVersion, harvesterrors.ErrStateCorrupted)
	}

	// Verify checksum
	savedChecksum := s.Checksum
	calculatedChecksum, err := calculateChecksum(&s)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksum for validation: %w", err)
	}
	if savedChecksum != calculatedChecksum {
		return nil, fmt.Errorf("state is corrupted (checksum mismatch): %w", harvesterrors.ErrStateCorrupted)
	}

	s.init()
	return &s, nil
}

// calculateChecksum computes the SHA256 hash of the state content.
// The checksum field itself is excluded from the calculation, and nil and
// empty maps hash identically.
func calculateChecksum(s *RunState) (string, error) {
	stateCopy := *s
	stateCopy.Checksum = ""
	stateCopy.init()

	// Marshal to JSON for consistent hashing; map keys are sorted.
	data, err := json.Marshal(stateCopy)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
