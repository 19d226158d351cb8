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
	"fmt"
	"io"
	"sort"

	"github.com/sirseerhq/sirseer-harvest/internal/state"
)

// Range is an inclusive range of problem ids with the ids missing from it.
type Range struct {
	Min     int
	Max     int
	Count   int
	Missing []int
}

// Report summarizes the completeness of a run-state.
type Report struct {
	// Problems covers the recorded problem ids.
	Problems Range
	// Links covers the problem ids referenced by link paths.
	Links Range
	// DuplicateLinks maps problem ids to their links when more than one
	// distinct link refers to the same problem.
	DuplicateLinks map[int][]string
	// Unattributed counts links without a numeric problem segment.
	Unattributed int

	Unprocessed int
	Unresolved  int
	Poisoned    []string
}

// Check builds a Report for rs. maxFailures selects poisoned items as in
// the processor; zero reports none.
func Check(rs *state.RunState, maxFailures int) *Report {
	counts := rs.Counts()
	report := &Report{
		DuplicateLinks: make(map[int][]string),
		Unprocessed:    counts.Unprocessed,
		Unresolved:     counts.Unresolved,
		Poisoned:       rs.Poisoned(maxFailures),
	}

	problemIDs := make([]int, 0, len(rs.Problems))
	for id := range rs.Problems {
		problemIDs = append(problemIDs, id)
	}
	report.Problems = newRange(problemIDs)

	byProblem := make(map[int][]string)
	for link := range rs.Links {
		id, ok := ProblemIDFromLink(link)
		if !ok {
			report.Unattributed++
			continue
		}
		byProblem[id] = append(byProblem[id], link)
	}

	linkIDs := make([]int, 0, len(byProblem))
	for id, links := range byProblem {
		linkIDs = append(linkIDs, id)
		if len(links) > 1 {
			sort.Strings(links)
			report.DuplicateLinks[id] = links
		}
	}
	report.Links = newRange(linkIDs)

	return report
}

func newRange(ids []int) Range {
	if len(ids) == 0 {
		return Range{}
	}
	sort.Ints(ids)

	r := Range{Min: ids[0], Max: ids[len(ids)-1], Count: len(ids)}
	next := r.Min
	for _, id := range ids {
		for ; next < id; next++ {
			r.Missing = append(r.Missing, next)
		}
		next = id + 1
	}
	return r
}

// Print writes a human readable report to w.
func (r *Report) Print(w io.Writer) {
	printRange(w, "problems", r.Problems)
	printRange(w, "linked problems", r.Links)

	ids := make([]int, 0, len(r.DuplicateLinks))
	for id := range r.DuplicateLinks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fmt.Fprintf(w, "Duplicate links for problem %d: %d\n", id, len(r.DuplicateLinks[id]))
	}

	if r.Unattributed > 0 {
		fmt.Fprintf(w, "Links without a problem number: %d\n", r.Unattributed)
	}
	fmt.Fprintf(w, "Unprocessed items: %d\n", r.Unprocessed)
	fmt.Fprintf(w, "Unresolved links: %d\n", r.Unresolved)
	if len(r.Poisoned) > 0 {
		fmt.Fprintf(w, "Items excluded after repeated failures: %d\n", len(r.Poisoned))
	}
}

func printRange(w io.Writer, name string, r Range) {
	if r.Count == 0 {
		fmt.Fprintf(w, "No %s recorded\n", name)
		return
	}
	fmt.Fprintf(w, "We have %s from %d to %d\n", name, r.Min, r.Max)
	fmt.Fprintf(w, "Total %s should be %d, and we have %d\n", name, r.Max-r.Min+1, r.Count)
	for _, id := range r.Missing {
		fmt.Fprintf(w, "Problem %d not found in %s\n", id, name)
	}
}
