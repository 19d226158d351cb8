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

package harvest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sirseerhq/sirseer-harvest/internal/state"
)

func TestCheck(t *testing.T) {
	rs := state.New()
	for _, id := range []int{3, 4, 7} {
		rs.AddProblem(id, state.Easy)
	}
	rs.AddLinks([]string{
		"https://dailycodingproblem.com/solution/3?token=a",
		"https://dailycodingproblem.com/solution/3?token=b",
		"https://dailycodingproblem.com/solution/5?token=c",
		"https://dailycodingproblem.com/solution?token=d",
	})
	rs.Resolve("https://dailycodingproblem.com/solution/3?token=a", "solutions/Easy/problem_003.md")
	rs.AddItems([]string{"m1", "m2"})
	rs.SetSubject("m1", "s")
	rs.RecordFailure("m2")
	rs.RecordFailure("m2")

	report := Check(rs, 2)

	assert.Equal(t, Range{Min: 3, Max: 7, Count: 3, Missing: []int{5, 6}}, report.Problems)
	assert.Equal(t, Range{Min: 3, Max: 5, Count: 2, Missing: []int{4}}, report.Links)
	assert.Equal(t, map[int][]string{3: {
		"https://dailycodingproblem.com/solution/3?token=a",
		"https://dailycodingproblem.com/solution/3?token=b",
	}}, report.DuplicateLinks)
	assert.Equal(t, 1, report.Unattributed)
	assert.Equal(t, 1, report.Unprocessed)
	assert.Equal(t, 3, report.Unresolved)
	assert.Equal(t, []string{"m2"}, report.Poisoned)

	var buf bytes.Buffer
	report.Print(&buf)
	out := buf.String()
	assert.Contains(t, out, "We have problems from 3 to 7\n")
	assert.Contains(t, out, "Total problems should be 5, and we have 3\n")
	assert.Contains(t, out, "Problem 5 not found in problems\n")
	assert.Contains(t, out, "Problem 6 not found in problems\n")
	assert.Contains(t, out, "Duplicate links for problem 3: 2\n")
	assert.Contains(t, out, "Unresolved links: 3\n")
	assert.Contains(t, out, "Items excluded after repeated failures: 1\n")
}

func TestCheck_EmptyState(t *testing.T) {
	report := Check(state.New(), 0)
	assert.Equal(t, Range{}, report.Problems)
	assert.Empty(t, report.Poisoned)

	var buf bytes.Buffer
	report.Print(&buf)
	assert.Contains(t, buf.String(), "No problems recorded\n")
}
