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

// Package metadata provides functionality for tracking and persisting metadata
// about harvest runs. It records statistics about each run including the
// number of items discovered and processed, links resolved, failures by
// class, remote calls made, and a link to the previous run.
//
// Metadata is saved as JSON files next to the state file, allowing external
// tools to analyze run history.
package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sirseerhq/sirseer-harvest/internal/fetcherr"
	"github.com/sirseerhq/sirseer-harvest/internal/state"
)

// Call kinds counted by a Tracker.
const (
	CallSearch   = "search"
	CallContent  = "content"
	CallSolution = "solution"
)

// Tracker collects statistics during a run and generates metadata.
// Create a new tracker at the start of each run.
type Tracker struct {
	startTime time.Time
	stages    []string
	results   RunResults
}

// New creates a new metadata tracker and initializes it with the current time.
func New() *Tracker {
	return &Tracker{
		startTime: time.Now(),
	}
}

// Stage records that a pipeline stage ran.
func (t *Tracker) Stage(name string) {
	t.stages = append(t.stages, name)
}

// AddCalls records n remote calls of the given kind.
func (t *Tracker) AddCalls(kind string, n int) {
	switch kind {
	case CallSearch:
		t.results.SearchCalls += n
	case CallContent:
		t.results.ContentCalls += n
	case CallSolution:
		t.results.SolutionCalls += n
	}
}

// RecordDiscovery records the result of a walk and its merge.
func (t *Tracker) RecordDiscovery(discovered, added int) {
	t.results.Discovered += discovered
	t.results.ItemsAdded += added
}

// RecordProcessed records merged batch results.
func (t *Tracker) RecordProcessed(processed, linksAdded, problemsAdded int) {
	t.results.Processed += processed
	t.results.LinksAdded += linksAdded
	t.results.ProblemsAdded += problemsAdded
}

// RecordResolved records merged download results.
func (t *Tracker) RecordResolved(resolved, skipped int) {
	t.results.Resolved += resolved
	t.results.Skipped += skipped
}

// RecordFailure records a classified per-entry failure.
func (t *Tracker) RecordFailure(class fetcherr.Class) {
	switch class {
	case fetcherr.Transient:
		t.results.TransientErrors++
	case fetcherr.Structural:
		t.results.StructuralErrors++
	}
}

// GenerateMetadata creates a RunMetadata instance capturing the run
// statistics. completed reports whether every requested stage succeeded.
func (t *Tracker) GenerateMetadata(harvestVersion string, params RunParams, completed bool, previous *RunRef) *RunMetadata {
	completedAt := time.Now()

	results := t.results
	results.Duration = completedAt.Sub(t.startTime).String()
	results.StartedAt = t.startTime
	results.CompletedAt = completedAt

	return &RunMetadata{
		HarvestVersion: harvestVersion,
		RunID:          uuid.NewString(),
		Stages:         append([]string(nil), t.stages...),
		Parameters:     params,
		Results:        results,
		Completed:      completed,
		PreviousRun:    previous,
	}
}

// Ref returns a reference to this run.
func (m *RunMetadata) Ref() *RunRef {
	return &RunRef{RunID: m.RunID, CompletedAt: m.Results.CompletedAt}
}

// SaveMetadata persists a RunMetadata record to a JSON file in dir. The
// file is written atomically and named run-metadata-{timestamp}.json.
func SaveMetadata(metadata *RunMetadata, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}

	filename := fmt.Sprintf("run-metadata-%d.json", metadata.Results.StartedAt.Unix())
	path := filepath.Join(dir, filename)
	if err := state.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("failed to save metadata file: %w", err)
	}
	return path, nil
}

// LoadLatestMetadata loads the most recent run metadata in dir. Returns nil
// if no metadata exists.
func LoadLatestMetadata(dir string) (*RunMetadata, error) {
	files, err := filepath.Glob(filepath.Join(dir, "run-metadata-*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata files: %w", err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	// Names embed the start time; the last one sorts latest for equal digit counts.
	sort.Slice(files, func(i, j int) bool {
		if len(files[i]) != len(files[j]) {
			return len(files[i]) < len(files[j])
		}
		return files[i] < files[j]
	})
	latest := files[len(files)-1]

	file, err := os.Open(latest)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer file.Close()

	var metadata RunMetadata
	if err := json.NewDecoder(file).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &metadata, nil
}

// WriteMetadataToWriter serializes metadata to indented JSON on w.
func WriteMetadataToWriter(metadata *RunMetadata, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}
