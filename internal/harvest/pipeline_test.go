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
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	harvesterrors "github.com/sirseerhq/sirseer-harvest/internal/errors"
	"github.com/sirseerhq/sirseer-harvest/internal/fetcherr"
	"github.com/sirseerhq/sirseer-harvest/internal/mailbox"
	"github.com/sirseerhq/sirseer-harvest/internal/metadata"
	"github.com/sirseerhq/sirseer-harvest/internal/state"
)

const e2eSubject = "Daily Coding Problem: Problem #42 [Hard]"

func TestPipeline_EndToEnd(t *testing.T) {
	ctx := context.Background()
	mb := mailbox.NewMockMailboxWithOptions(
		mailbox.WithMessage("m1", e2eSubject, "Solution: [dailycodingproblem.com/solution?x=1&token=abc]"),
	)
	f := newFixture(t, Options{BatchSize: 10, DownloadBatchSize: 10}, mb)
	f.api.responses["abc"] = map[string]any{
		"problemId": 42,
		"problem":   "Given a list of numbers...",
		"solution":  "Sort it.",
	}

	initial := state.New()
	initial.AddItems([]string{"m1"})
	f.seed(t, initial)

	_, err := f.pipeline.Process(ctx, nil)
	require.NoError(t, err)

	link := "https://dailycodingproblem.com/solution?x=1&token=abc"
	rs := f.load(t)
	assert.Equal(t, state.Some(e2eSubject), rs.Items["m1"])
	assert.Equal(t, map[int]state.Difficulty{42: state.Hard}, rs.Problems)
	assert.Equal(t, map[string]state.Optional[string]{link: state.None[string]()}, rs.Links)

	_, err = f.pipeline.Resolve(ctx, nil)
	require.NoError(t, err)

	wantPath := filepath.Join(f.artifactDir, "Hard", "problem_042.md")
	rs = f.load(t)
	assert.Equal(t, state.Some(wantPath), rs.Links[link])

	data, err := os.ReadFile(wantPath)
	require.NoError(t, err)
	assert.Equal(t, "## Problem #42\nGiven a list of numbers...\n## Solution\nSort it.", string(data))
}

func TestPipeline_RunAdvancesFloorOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	mb := mailbox.NewMockMailboxWithOptions(
		mailbox.WithPages([]string{"m1", "m2"}, []string{"m2", "m3"}, nil),
		mailbox.WithMessage("m1", "Daily Coding Problem: Problem #1", "[dailycodingproblem.com/solution/1?token=t1]"),
		mailbox.WithMessage("m2", "Daily Coding Problem: Problem #2 [Medium]", "[dailycodingproblem.com/solution/2?token=t2]"),
		mailbox.WithMessage("m3", "Daily Coding Problem: Problem #3 [Hard]", "[dailycodingproblem.com/solution/3?token=t3]"),
	)
	f := newFixture(t, Options{BatchSize: 10, DownloadBatchSize: 10}, mb)
	for i, token := range []string{"t1", "t2", "t3"} {
		f.api.responses[token] = map[string]any{"problemId": i + 1, "problem": "p", "solution": "s"}
	}

	start := time.Unix(1700000000, 0)
	f.pipeline.now = func() time.Time { return start }

	tracker := metadata.New()
	md, err := f.pipeline.Run(ctx, tracker)
	require.NoError(t, err)

	rs := f.load(t)
	assert.Equal(t, start.Unix(), rs.LastFetchAt)
	assert.Equal(t, state.Counts{Items: 3, Links: 3, Problems: 3}, rs.Counts())
	assert.Equal(t, filepath.Join(f.artifactDir, "Medium", "problem_002.md"), rs.Links["https://dailycodingproblem.com/solution/2?token=t2"].OrElse(""))

	assert.True(t, md.Completed)
	assert.Equal(t, []string{StageDiscover, StageProcess, StageResolve}, md.Stages)
	assert.Equal(t, 3, md.Results.Discovered)
	assert.Equal(t, 3, md.Results.SearchCalls)
	assert.Equal(t, 3, md.Results.ContentCalls)
	assert.Equal(t, 3, md.Results.SolutionCalls)
	assert.Equal(t, 3, md.Results.Resolved)
	assert.Equal(t, int64(0), md.Parameters.Floor)

	// Second run is a no-op apart from the floor.
	later := start.Add(time.Hour)
	f.pipeline.now = func() time.Time { return later }
	md, err = f.pipeline.Run(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, md.Results.ItemsAdded)
	assert.Equal(t, 0, md.Results.ContentCalls)
	assert.Equal(t, start.Unix(), md.Parameters.Floor)
	assert.Equal(t, later.Unix(), f.load(t).LastFetchAt)
	assert.Equal(t, start.Unix(), mb.SearchCalls[len(mb.SearchCalls)-1].After)
}

func TestPipeline_WalkFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	mb := mailbox.NewMockMailbox()
	mb.SearchError = fetcherr.Wrap(fetcherr.Transient, "search", harvesterrors.ErrNetworkFailure)
	f := newFixture(t, Options{BatchSize: 10}, mb)

	seeded := state.New()
	seeded.LastFetchAt = 42
	seeded.AddItems([]string{"old"})
	f.seed(t, seeded)

	md, err := f.pipeline.Run(ctx, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, harvesterrors.ErrNetworkFailure)
	assert.False(t, md.Completed)

	rs := f.load(t)
	assert.Equal(t, int64(42), rs.LastFetchAt)
	assert.Len(t, rs.Items, 1)
}

func TestPipeline_FatalProcessFailureMergesNothing(t *testing.T) {
	ctx := context.Background()
	mb := mailbox.NewMockMailboxWithOptions(
		mailbox.WithMessage("a", "Daily Coding Problem: Problem #1", "[dailycodingproblem.com/solution/1?token=t]"),
		mailbox.WithContentError("b", fetcherr.Wrap(fetcherr.Fatal, "get b", harvesterrors.ErrSession)),
	)
	f := newFixture(t, Options{BatchSize: 10}, mb)

	seeded := state.New()
	seeded.AddItems([]string{"a", "b"})
	f.seed(t, seeded)

	_, err := f.pipeline.Process(ctx, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, harvesterrors.ErrSession))

	rs := f.load(t)
	assert.False(t, rs.Items["a"].IsSet(), "batch results must not be merged after a fatal failure")
	assert.Empty(t, rs.Links)
	assert.Empty(t, rs.Problems)
}

func TestPipeline_ProcessFailureClasses(t *testing.T) {
	ctx := context.Background()
	mb := mailbox.NewMockMailboxWithOptions(
		mailbox.WithMessage("ok", "Daily Coding Problem: Problem #7 [Easy]", "[dailycodingproblem.com/solution/7?token=t]"),
		mailbox.WithContentError("slow", fetcherr.Wrap(fetcherr.Transient, "get slow", context.DeadlineExceeded)),
	)
	mb.Messages["twice"] = &mailbox.Message{
		ID:      "twice",
		Subject: "Daily Coding Problem: Problem #8",
		Parts: []mailbox.Part{
			{MimeType: "text/plain", Data: []byte("one")},
			{MimeType: "text/plain", Data: []byte("two")},
		},
	}
	mb.Messages["htmlonly"] = &mailbox.Message{
		ID:      "htmlonly",
		Subject: "Daily Coding Problem: Problem #9 [Hard]",
		Parts:   []mailbox.Part{{MimeType: "text/html", Data: []byte("<p>x</p>")}},
	}

	f := newFixture(t, Options{BatchSize: 10, MaxFailures: 2}, mb)
	seeded := state.New()
	seeded.AddItems([]string{"ok", "slow", "twice", "missing", "htmlonly"})
	f.seed(t, seeded)

	md, err := f.pipeline.Process(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, md.Results.TransientErrors)
	assert.Equal(t, 2, md.Results.StructuralErrors)

	rs := f.load(t)
	assert.True(t, rs.Items["ok"].IsSet())
	assert.True(t, rs.Items["htmlonly"].IsSet(), "a message without a body of the expected type is still processed")
	assert.False(t, rs.Items["slow"].IsSet())
	assert.False(t, rs.Items["twice"].IsSet())
	assert.False(t, rs.Items["missing"].IsSet())
	assert.Equal(t, 1, rs.Failures["twice"])
	assert.Equal(t, 1, rs.Failures["missing"])
	assert.Zero(t, rs.Failures["slow"])
	assert.Equal(t, state.Hard, rs.Problems[9])

	// A second structural failure reaches the limit; the third pass skips them.
	_, err = f.pipeline.Process(ctx, nil)
	require.NoError(t, err)
	mb.GetCalls = nil
	_, err = f.pipeline.Process(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"slow"}, mb.GetCalls)
	assert.Equal(t, []string{"missing", "twice"}, f.load(t).Poisoned(2))
}

func TestPipeline_FirstWriterWinsAcrossRuns(t *testing.T) {
	ctx := context.Background()
	mb := mailbox.NewMockMailboxWithOptions(
		mailbox.WithMessage("m1", "Daily Coding Problem: Problem #761 [Medium]", ""),
		mailbox.WithMessage("m2", "Daily Coding Problem: Problem #761 [Hard]", ""),
	)
	f := newFixture(t, Options{BatchSize: 1}, mb)

	seeded := state.New()
	seeded.AddItems([]string{"m1", "m2"})
	f.seed(t, seeded)

	for i := 0; i < 2; i++ {
		_, err := f.pipeline.Process(ctx, nil)
		require.NoError(t, err)
	}

	rs := f.load(t)
	assert.Equal(t, state.Medium, rs.Problems[761])
	assert.Equal(t, 0, rs.Counts().Unprocessed)
}
