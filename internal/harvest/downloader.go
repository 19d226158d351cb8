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
	"fmt"
	"log/slog"

	"github.com/sirseerhq/sirseer-harvest/internal/artifact"
	harvesterrors "github.com/sirseerhq/sirseer-harvest/internal/errors"
	"github.com/sirseerhq/sirseer-harvest/internal/fetcherr"
	"github.com/sirseerhq/sirseer-harvest/internal/ratelimit"
	"github.com/sirseerhq/sirseer-harvest/internal/solution"
	"github.com/sirseerhq/sirseer-harvest/internal/state"
)

// SolutionSource resolves solution links through the content API.
type SolutionSource interface {
	APIURL(link string) (string, error)
	Fetch(ctx context.Context, apiURL string) (*solution.Solution, error)
}

// Downloader resolves unresolved links into Markdown artifacts.
type Downloader struct {
	source  SolutionSource
	writer  *artifact.Writer
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// NewDownloader creates a Downloader. Every content API call waits on
// limiter.
func NewDownloader(source SolutionSource, writer *artifact.Writer, limiter *ratelimit.Limiter, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{
		source:  source,
		writer:  writer,
		limiter: limiter,
		logger:  logger.With("component", "downloader"),
	}
}

// ResolveResult is the delta produced by one Resolve call.
type ResolveResult struct {
	// Resolved maps links to their written artifact path.
	Resolved map[string]string
	// Skipped lists links whose problem is not yet recorded.
	Skipped []string
	// Failures maps failed links to their failure class.
	Failures map[string]fetcherr.Class
	// Calls counts content API calls made.
	Calls int
}

// Apply merges the resolutions into rs and returns the number of links
// newly resolved.
func (r *ResolveResult) Apply(rs *state.RunState) int {
	n := 0
	for _, link := range sortedKeys(r.Resolved) {
		if rs.Resolve(link, r.Resolved[link]) {
			n++
		}
	}
	return n
}

// Resolve walks the unresolved links of rs in ascending order until limit
// content API calls were made. Links rejected before the call, such as
// those of unrecorded problems or without a token, do not count toward
// limit. rs is not modified. Per-link failures are isolated; only a fatal
// failure aborts the batch.
func (d *Downloader) Resolve(ctx context.Context, rs *state.RunState, limit int) (*ResolveResult, error) {
	result := &ResolveResult{
		Resolved: make(map[string]string),
		Failures: make(map[string]fetcherr.Class),
	}

	for _, link := range rs.Unresolved(0) {
		if limit > 0 && result.Calls >= limit {
			break
		}

		path, err := d.resolveLink(ctx, link, rs.Problems, result)
		switch {
		case err == nil:
			result.Resolved[link] = path
			d.logger.Info("link resolved", "path", path)
		case errors.Is(err, harvesterrors.ErrUnknownProblem):
			result.Skipped = append(result.Skipped, link)
			d.logger.Info("skipping link for unrecorded problem", "error", err)
		default:
			class := fetcherr.ClassOf(err)
			if class == fetcherr.Fatal {
				return nil, err
			}
			result.Failures[link] = class
			d.logger.Warn("link failed", "class", class.String(), "error", err)
		}
	}

	return result, nil
}

func (d *Downloader) resolveLink(ctx context.Context, link string, problems map[int]state.Difficulty, result *ResolveResult) (string, error) {
	id, known := ProblemIDFromLink(link)
	if known {
		if _, ok := problems[id]; !ok {
			return "", fmt.Errorf("problem %d: %w", id, harvesterrors.ErrUnknownProblem)
		}
	}

	apiURL, err := d.source.APIURL(link)
	if err != nil {
		return "", err
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return "", fetcherr.Wrap(fetcherr.Fatal, "resolve", err)
	}
	result.Calls++

	sol, err := d.source.Fetch(ctx, apiURL)
	if err != nil {
		return "", err
	}

	if !known {
		if id, err = sol.ID(); err != nil {
			return "", fetcherr.Wrap(fetcherr.Structural, "resolve", err)
		}
	}
	difficulty, ok := problems[id]
	if !ok {
		return "", fmt.Errorf("problem %d: %w", id, harvesterrors.ErrUnknownProblem)
	}

	path, err := d.writer.Write(id, difficulty, solution.Document(sol))
	if err != nil {
		return "", fetcherr.Wrap(fetcherr.Fatal, "resolve", fmt.Errorf("%w: %w", harvesterrors.ErrStateIO, err))
	}
	return path, nil
}
