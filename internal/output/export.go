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
	"fmt"
	"sort"

	"github.com/sirseerhq/sirseer-harvest/internal/state"
)

// Record kinds.
const (
	KindItem    = "item"
	KindLink    = "link"
	KindProblem = "problem"
)

// Kinds lists every record kind in export order.
var Kinds = []string{KindItem, KindLink, KindProblem}

// ItemRecord describes one mail item.
type ItemRecord struct {
	Kind      string  `json:"kind"`
	ID        string  `json:"id"`
	Subject   *string `json:"subject"`
	Processed bool    `json:"processed"`
	Failures  int     `json:"failures,omitempty"`
}

// LinkRecord describes one solution link.
type LinkRecord struct {
	Kind     string  `json:"kind"`
	URL      string  `json:"url"`
	Path     *string `json:"path"`
	Resolved bool    `json:"resolved"`
}

// ProblemRecord describes one problem.
type ProblemRecord struct {
	Kind       string           `json:"kind"`
	ID         int              `json:"id"`
	Difficulty state.Difficulty `json:"difficulty"`
}

// Export writes the selected kinds of rs to w in Kinds order, each sorted
// by key. No kinds selects all of them. It returns the number of records
// written.
func Export(w RecordWriter, rs *state.RunState, kinds ...string) (int, error) {
	if len(kinds) == 0 {
		kinds = Kinds
	}
	selected := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		switch k {
		case KindItem, KindLink, KindProblem:
			selected[k] = true
		default:
			return 0, fmt.Errorf("unknown record kind %q", k)
		}
	}

	var records []any
	if selected[KindItem] {
		for _, id := range sortedKeys(rs.Items) {
			subject, ok := rs.Items[id].Get()
			rec := ItemRecord{Kind: KindItem, ID: id, Processed: ok, Failures: rs.Failures[id]}
			if ok {
				rec.Subject = &subject
			}
			records = append(records, rec)
		}
	}
	if selected[KindLink] {
		for _, u := range sortedKeys(rs.Links) {
			path, ok := rs.Links[u].Get()
			rec := LinkRecord{Kind: KindLink, URL: u, Resolved: ok}
			if ok {
				rec.Path = &path
			}
			records = append(records, rec)
		}
	}
	if selected[KindProblem] {
		ids := make([]int, 0, len(rs.Problems))
		for id := range rs.Problems {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			records = append(records, ProblemRecord{Kind: KindProblem, ID: id, Difficulty: rs.Problems[id]})
		}
	}

	for i, rec := range records {
		if err := w.Write(rec); err != nil {
			return i, err
		}
	}
	return len(records), nil
}

func sortedKeys(m map[string]state.Optional[string]) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
