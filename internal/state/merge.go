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
	"sort"
)

// AddItems records newly discovered item ids as unprocessed. Ids already
// present are left untouched. It returns the number of ids added.
func (s *RunState) AddItems(ids []string) int {
	s.init()
	added := 0
	for _, id := range ids {
		if _, ok := s.Items[id]; ok {
			continue
		}
		s.Items[id] = None[string]()
		added++
	}
	return added
}

// SetSubject records the subject of a fetched item. A subject that is
// already set is never replaced. It reports whether the state changed.
func (s *RunState) SetSubject(id, subject string) bool {
	s.init()
	if s.Items[id].IsSet() {
		return false
	}
	s.Items[id] = Some(subject)
	delete(s.Failures, id)
	return true
}

// AddLinks records extracted links as unresolved. Links already present,
// resolved or not, are left untouched. It returns the number of links added.
func (s *RunState) AddLinks(urls []string) int {
	s.init()
	added := 0
	for _, u := range urls {
		if _, ok := s.Links[u]; ok {
			continue
		}
		s.Links[u] = None[string]()
		added++
	}
	return added
}

// Resolve records the artifact path of a downloaded link. A resolution that
// is already set is never replaced. It reports whether the state changed.
func (s *RunState) Resolve(url, path string) bool {
	s.init()
	if s.Links[url].IsSet() {
		return false
	}
	s.Links[url] = Some(path)
	return true
}

// AddProblem records a problem's difficulty unless the problem is already
// known. It reports whether the state changed.
func (s *RunState) AddProblem(id int, d Difficulty) bool {
	s.init()
	if _, ok := s.Problems[id]; ok {
		return false
	}
	s.Problems[id] = d
	return true
}

// RecordFailure increments the structural failure count of an item and
// returns the new count.
func (s *RunState) RecordFailure(id string) int {
	s.init()
	s.Failures[id]++
	return s.Failures[id]
}

// Unprocessed returns up to limit item ids without a subject in ascending
// order. When maxFailures is positive, items that failed structurally that
// many times are excluded. A non-positive limit means no limit.
func (s *RunState) Unprocessed(limit, maxFailures int) []string {
	var ids []string
	for id, subject := range s.Items {
		if subject.IsSet() {
			continue
		}
		if maxFailures > 0 && s.Failures[id] >= maxFailures {
			continue
		}
		ids = append(ids, id)
	}
	return head(ids, limit)
}

// Unresolved returns up to limit unresolved link URLs in ascending order.
// A non-positive limit means no limit.
func (s *RunState) Unresolved(limit int) []string {
	var urls []string
	for u, path := range s.Links {
		if !path.IsSet() {
			urls = append(urls, u)
		}
	}
	return head(urls, limit)
}

// Poisoned returns the ids of unprocessed items that reached maxFailures.
func (s *RunState) Poisoned(maxFailures int) []string {
	if maxFailures <= 0 {
		return nil
	}
	var ids []string
	for id, n := range s.Failures {
		if n >= maxFailures && !s.Items[id].IsSet() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Counts summarizes the size of each map.
type Counts struct {
	Items       int
	Unprocessed int
	Links       int
	Unresolved  int
	Problems    int
}

// Counts returns the current map sizes.
func (s *RunState) Counts() Counts {
	c := Counts{
		Items:    len(s.Items),
		Links:    len(s.Links),
		Problems: len(s.Problems),
	}
	for _, v := range s.Items {
		if !v.IsSet() {
			c.Unprocessed++
		}
	}
	for _, v := range s.Links {
		if !v.IsSet() {
			c.Unresolved++
		}
	}
	return c
}

func head(keys []string, limit int) []string {
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}
