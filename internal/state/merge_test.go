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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddLinks_Idempotent(t *testing.T) {
	links := []string{
		"https://dailycodingproblem.com/solution/1?token=a",
		"https://dailycodingproblem.com/solution/1?token=b",
		"https://dailycodingproblem.com/solution/2?token=a",
	}

	once := New()
	once.AddLinks(links)

	twice := New()
	assert.Equal(t, 3, twice.AddLinks(links))
	assert.Equal(t, 0, twice.AddLinks(links))

	assert.Equal(t, once.Links, twice.Links)
}

func TestAddLinks_KeepsResolution(t *testing.T) {
	rs := New()
	url := "https://dailycodingproblem.com/solution/7?token=t"
	rs.AddLinks([]string{url})
	require.True(t, rs.Resolve(url, "solutions/Easy/problem_007.md"))

	rs.AddLinks([]string{url})

	path, ok := rs.Links[url].Get()
	assert.True(t, ok)
	assert.Equal(t, "solutions/Easy/problem_007.md", path)
}

func TestSetSubject_Monotonic(t *testing.T) {
	rs := New()
	rs.AddItems([]string{"m1"})

	assert.True(t, rs.SetSubject("m1", "first"))
	assert.False(t, rs.SetSubject("m1", "second"))
	assert.Equal(t, 0, rs.AddItems([]string{"m1"}))

	subject, ok := rs.Items["m1"].Get()
	assert.True(t, ok)
	assert.Equal(t, "first", subject)
}

func TestAddProblem_FirstWriterWins(t *testing.T) {
	rs := New()

	assert.True(t, rs.AddProblem(761, Medium))
	assert.False(t, rs.AddProblem(761, Hard))
	assert.Equal(t, Medium, rs.Problems[761])
}

func TestResolve_Monotonic(t *testing.T) {
	rs := New()
	url := "https://dailycodingproblem.com/solution/3?token=t"
	rs.AddLinks([]string{url})

	assert.True(t, rs.Resolve(url, "a.md"))
	assert.False(t, rs.Resolve(url, "b.md"))
	assert.Equal(t, "a.md", rs.Links[url].OrElse(""))
}

func TestUnprocessed(t *testing.T) {
	rs := New()
	rs.AddItems([]string{"c", "a", "b", "d"})
	rs.SetSubject("b", "done")

	assert.Equal(t, []string{"a", "c", "d"}, rs.Unprocessed(0, 0))
	assert.Equal(t, []string{"a", "c"}, rs.Unprocessed(2, 0))

	rs.RecordFailure("a")
	rs.RecordFailure("a")
	assert.Equal(t, []string{"c", "d"}, rs.Unprocessed(0, 2))
	assert.Equal(t, []string{"a", "c", "d"}, rs.Unprocessed(0, 3))
	assert.Equal(t, []string{"a"}, rs.Poisoned(2))
	assert.Empty(t, rs.Poisoned(0))

	rs.SetSubject("a", "late success")
	assert.Zero(t, rs.Failures["a"])
}

func TestUnresolved(t *testing.T) {
	rs := New()
	rs.AddLinks([]string{"u2", "u1", "u3"})
	rs.Resolve("u2", "p")

	assert.Equal(t, []string{"u1", "u3"}, rs.Unresolved(0))
	assert.Equal(t, []string{"u1"}, rs.Unresolved(1))
}

func TestCounts(t *testing.T) {
	c := sampleState().Counts()
	assert.Equal(t, Counts{Items: 2, Unprocessed: 1, Links: 1, Unresolved: 1, Problems: 1}, c)
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in   string
		want Difficulty
		ok   bool
	}{
		{"Easy", Easy, true},
		{"medium", Medium, true},
		{" HARD ", Hard, true},
		{"Insane", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDifficulty(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestOptional_JSON(t *testing.T) {
	var o Optional[string]
	require.NoError(t, o.UnmarshalJSON([]byte(`"x"`)))
	v, ok := o.Get()
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	require.NoError(t, o.UnmarshalJSON([]byte(`null`)))
	assert.False(t, o.IsSet())

	data, err := Some("").MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `""`, string(data), "present empty string is distinct from absent")
}
