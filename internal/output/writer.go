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

package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Writer encodes export records as NDJSON, one record per line.
type Writer struct {
	enc   *json.Encoder
	close func() error
}

// NewWriter returns a Writer encoding straight to w. Close is a no-op.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: newEncoder(w)}
}

// NewFileWriter creates path, and its directory if needed, and returns a
// buffered Writer for it. Records reach the file on Close.
func NewFileWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	buf := bufio.NewWriter(file)
	return &Writer{
		enc: newEncoder(buf),
		close: func() error {
			if err := buf.Flush(); err != nil {
				_ = file.Close()
				return fmt.Errorf("failed to flush output file: %w", err)
			}
			return file.Close()
		},
	}, nil
}

// Links carry query strings; keep them readable.
func newEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// Write encodes record as one line.
func (w *Writer) Write(record any) error {
	if err := w.enc.Encode(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Close flushes and closes the output file, if any.
func (w *Writer) Close() error {
	if w.close == nil {
		return nil
	}
	return w.close()
}
