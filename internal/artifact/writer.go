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

// Package artifact writes resolved solution documents to disk.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	harvesterrors "github.com/sirseerhq/sirseer-harvest/internal/errors"
	"github.com/sirseerhq/sirseer-harvest/internal/state"
)

// DefaultDir is the default artifact root directory.
const DefaultDir = "solutions"

// Writer stores documents under <root>/<difficulty>/problem_<NNN>.md.
type Writer struct {
	root string
}

// NewWriter returns a Writer rooted at root. An empty root uses DefaultDir.
func NewWriter(root string) *Writer {
	if root == "" {
		root = DefaultDir
	}
	return &Writer{root: root}
}

// Path returns the artifact path for a problem.
func (w *Writer) Path(id int, d state.Difficulty) string {
	return filepath.Join(w.root, string(d), fmt.Sprintf("problem_%03d.md", id))
}

// Write atomically stores doc as the artifact of a problem, creating the
// difficulty directory if needed, and returns the written path.
func (w *Writer) Write(id int, d state.Difficulty, doc string) (string, error) {
	path := w.Path(id, d)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if err := state.WriteFileAtomic(path, []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", path, err)
	}
	return path, nil
}

// Exists reports whether the artifact of a problem is on disk.
func (w *Writer) Exists(id int, d state.Difficulty) (bool, error) {
	_, err := os.Stat(w.Path(id, d))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat artifact: %v: %w", err, harvesterrors.ErrStateIO)
	}
}
