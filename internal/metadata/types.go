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

// Package metadata types define the structures used for tracking and
// persisting information about harvest runs.
package metadata

import (
	"time"
)

// RunMetadata represents the complete metadata record for a single run
// of one or more pipeline stages. It captures what was requested, what
// changed in the run-state and how many remote calls were made.
type RunMetadata struct {
	HarvestVersion string     `json:"harvest_version"`
	RunID          string     `json:"run_id"`
	Stages         []string   `json:"stages"`
	Parameters     RunParams  `json:"parameters"`
	Results        RunResults `json:"results"`
	Completed      bool       `json:"completed"`
	PreviousRun    *RunRef    `json:"previous_run,omitempty"`
}

// RunParams captures the input parameters used for a run.
type RunParams struct {
	Query             string `json:"query"`
	Floor             int64  `json:"floor"`
	BatchSize         int    `json:"batch_size"`
	DownloadBatchSize int    `json:"download_batch_size"`
	MimeType          string `json:"mime_type"`
}

// RunResults contains statistics about a run. Counts of added entries
// reflect what was merged into the run-state, not what was seen.
type RunResults struct {
	Discovered       int `json:"ids_discovered"`
	ItemsAdded       int `json:"items_added"`
	Processed        int `json:"items_processed"`
	LinksAdded       int `json:"links_added"`
	ProblemsAdded    int `json:"problems_added"`
	Resolved         int `json:"links_resolved"`
	Skipped          int `json:"links_skipped"`
	TransientErrors  int `json:"transient_failures"`
	StructuralErrors int `json:"structural_failures"`

	SearchCalls   int `json:"search_calls"`
	ContentCalls  int `json:"content_calls"`
	SolutionCalls int `json:"solution_calls"`

	Duration    string    `json:"run_duration"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// RunRef provides a lightweight reference to a previous run.
type RunRef struct {
	RunID       string    `json:"run_id"`
	CompletedAt time.Time `json:"completed_at"`
}
