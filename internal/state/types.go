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
	"strings"
)

// CurrentVersion is the current state schema version.
// Increment this when making breaking changes to the RunState structure.
const CurrentVersion = 1

// Difficulty is the difficulty label of a problem.
type Difficulty string

// Known difficulty labels.
const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// ParseDifficulty maps a label to a Difficulty, ignoring case and
// surrounding whitespace.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, true
	case "medium":
		return Medium, true
	case "hard":
		return Hard, true
	default:
		return "", false
	}
}

// RunState is the single persisted aggregate of a harvest.
type RunState struct {
	// Version indicates the schema version of this state blob.
	Version int `json:"version"`

	// Checksum is the SHA256 hash of the state content (excluding this field).
	// Used to detect corruption or tampering.
	Checksum string `json:"checksum"`

	// LastFetchAt is the floor, in epoch seconds, for the next mail search.
	// It only advances after a complete pipeline pass.
	LastFetchAt int64 `json:"last_fetch_at"`

	// Items maps mail item ids to their subject; absent until the content is fetched.
	Items map[string]Optional[string] `json:"items"`

	// Links maps solution URLs to the artifact path; absent until downloaded.
	Links map[string]Optional[string] `json:"links"`

	// Problems maps problem ids to their difficulty.
	Problems map[int]Difficulty `json:"problems"`

	// Failures counts structural failures per item id.
	Failures map[string]int `json:"failures,omitempty"`
}

// New returns an empty RunState.
func New() *RunState {
	rs := &RunState{Version: CurrentVersion}
	rs.init()
	return rs
}

func (s *RunState) init() {
	if s.Items == nil {
		s.Items = make(map[string]Optional[string])
	}
	if s.Links == nil {
		s.Links = make(map[string]Optional[string])
	}
	if s.Problems == nil {
		s.Problems = make(map[int]Difficulty)
	}
	if s.Failures == nil {
		s.Failures = make(map[string]int)
	}
}
