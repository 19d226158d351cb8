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
	"fmt"
	"log/slog"
	"time"

	"github.com/sirseerhq/sirseer-harvest/internal/fetcherr"
	"github.com/sirseerhq/sirseer-harvest/internal/metadata"
	"github.com/sirseerhq/sirseer-harvest/internal/state"
	"github.com/sirseerhq/sirseer-harvest/pkg/version"
)

// Stage names.
const (
	StageDiscover = "discover"
	StageProcess  = "process"
	StageResolve  = "resolve"
)

// DefaultQuery selects the daily problem messages.
const DefaultQuery = "subject:(Daily Coding Problem)"

// Options configures a Pipeline.
type Options struct {
	Query             string
	BatchSize         int
	DownloadBatchSize int
	MaxFailures       int
	MimeType          string
}

// Pipeline runs the discover, process and resolve stages against a
// run-state Store. Each stage merges its delta and saves the state once
// when it completes.
type Pipeline struct {
	store      state.Store
	walker     *Walker
	processor  *Processor
	downloader *Downloader
	opts       Options
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline wires the stages around store.
func NewPipeline(store state.Store, walker *Walker, processor *Processor, downloader *Downloader, opts Options, logger *slog.Logger) *Pipeline {
	if opts.Query == "" {
		opts.Query = DefaultQuery
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:      store,
		walker:     walker,
		processor:  processor,
		downloader: downloader,
		opts:       opts,
		logger:     logger.With("component", "pipeline"),
		now:        time.Now,
	}
}

// Run executes all three stages on a single state handle. The search floor
// advances to the run start time only after every stage succeeded.
func (p *Pipeline) Run(ctx context.Context, tracker *metadata.Tracker) (*metadata.RunMetadata, error) {
	started := p.now()
	if tracker == nil {
		tracker = metadata.New()
	}

	rs, err := p.store.Load(ctx)
	if err != nil {
		return p.finish(tracker, 0, false), err
	}
	floor := rs.LastFetchAt

	stages := []struct {
		name string
		run  func(context.Context, *state.RunState, *metadata.Tracker) error
	}{
		{StageDiscover, p.discover},
		{StageProcess, p.process},
		{StageResolve, p.resolve},
	}
	for _, stage := range stages {
		if err := p.runStage(ctx, stage.name, rs, tracker, stage.run); err != nil {
			return p.finish(tracker, floor, false), err
		}
	}

	rs.LastFetchAt = started.Unix()
	if err := p.store.Save(ctx, rs); err != nil {
		return p.finish(tracker, floor, false), fmt.Errorf("failed to advance fetch floor: %w", err)
	}
	p.logger.Info("run complete", "last_fetch_at", rs.LastFetchAt)

	return p.finish(tracker, floor, true), nil
}

// Discover runs only the discover stage.
func (p *Pipeline) Discover(ctx context.Context, tracker *metadata.Tracker) (*metadata.RunMetadata, error) {
	return p.single(ctx, StageDiscover, tracker, p.discover)
}

// Process runs only the process stage.
func (p *Pipeline) Process(ctx context.Context, tracker *metadata.Tracker) (*metadata.RunMetadata, error) {
	return p.single(ctx, StageProcess, tracker, p.process)
}

// Resolve runs only the resolve stage.
func (p *Pipeline) Resolve(ctx context.Context, tracker *metadata.Tracker) (*metadata.RunMetadata, error) {
	return p.single(ctx, StageResolve, tracker, p.resolve)
}

func (p *Pipeline) single(ctx context.Context, name string, tracker *metadata.Tracker,
	run func(context.Context, *state.RunState, *metadata.Tracker) error,
) (*metadata.RunMetadata, error) {
	if tracker == nil {
		tracker = metadata.New()
	}
	rs, err := p.store.Load(ctx)
	if err != nil {
		return p.finish(tracker, 0, false), err
	}
	if err := p.runStage(ctx, name, rs, tracker, run); err != nil {
		return p.finish(tracker, rs.LastFetchAt, false), err
	}
	return p.finish(tracker, rs.LastFetchAt, true), nil
}

func (p *Pipeline) runStage(ctx context.Context, name string, rs *state.RunState, tracker *metadata.Tracker,
	run func(context.Context, *state.RunState, *metadata.Tracker) error,
) error {
	tracker.Stage(name)
	p.logger.Info("stage started", "stage", name)

	if err := run(ctx, rs, tracker); err != nil {
		p.logger.Error("stage failed", "stage", name, "class", fetcherr.ClassOf(err).String(), "error", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := p.store.Save(ctx, rs); err != nil {
		return fmt.Errorf("%s: failed to save state: %w", name, err)
	}

	c := rs.Counts()
	p.logger.Info("stage complete", "stage", name,
		"items", c.Items, "unprocessed", c.Unprocessed,
		"links", c.Links, "unresolved", c.Unresolved,
		"problems", c.Problems)
	return nil
}

func (p *Pipeline) discover(ctx context.Context, rs *state.RunState, tracker *metadata.Tracker) error {
	ids, pages, err := p.walker.WalkPages(ctx, p.opts.Query, rs.LastFetchAt)
	tracker.AddCalls(metadata.CallSearch, pages)
	if err != nil {
		return err
	}
	added := rs.AddItems(ids)
	tracker.RecordDiscovery(len(ids), added)
	p.logger.Info("items discovered", "seen", len(ids), "new", added)
	return nil
}

func (p *Pipeline) process(ctx context.Context, rs *state.RunState, tracker *metadata.Tracker) error {
	result, err := p.processor.Process(ctx, rs, p.opts.BatchSize)
	if err != nil {
		return err
	}
	tracker.AddCalls(metadata.CallContent, result.Calls)

	stats := result.Apply(rs)
	tracker.RecordProcessed(stats.Subjects, stats.Links, stats.Problems)
	for _, class := range result.Failures {
		tracker.RecordFailure(class)
	}

	if poisoned := rs.Poisoned(p.opts.MaxFailures); len(poisoned) > 0 {
		p.logger.Warn("items excluded after repeated structural failures",
			"count", len(poisoned), "ids", poisoned)
	}
	return nil
}

func (p *Pipeline) resolve(ctx context.Context, rs *state.RunState, tracker *metadata.Tracker) error {
	result, err := p.downloader.Resolve(ctx, rs, p.opts.DownloadBatchSize)
	if err != nil {
		return err
	}
	tracker.AddCalls(metadata.CallSolution, result.Calls)

	resolved := result.Apply(rs)
	tracker.RecordResolved(resolved, len(result.Skipped))
	for _, class := range result.Failures {
		tracker.RecordFailure(class)
	}
	return nil
}

func (p *Pipeline) finish(tracker *metadata.Tracker, floor int64, completed bool) *metadata.RunMetadata {
	params := metadata.RunParams{
		Query:             p.opts.Query,
		Floor:             floor,
		BatchSize:         p.opts.BatchSize,
		DownloadBatchSize: p.opts.DownloadBatchSize,
		MimeType:          p.opts.MimeType,
	}
	return tracker.GenerateMetadata(version.Version, params, completed, nil)
}
