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
	"sort"

	harvesterrors "github.com/sirseerhq/sirseer-harvest/internal/errors"
	"github.com/sirseerhq/sirseer-harvest/internal/fetcherr"
	"github.com/sirseerhq/sirseer-harvest/internal/mailbox"
	"github.com/sirseerhq/sirseer-harvest/internal/ratelimit"
	"github.com/sirseerhq/sirseer-harvest/internal/state"
)

// DefaultMimeType is the body part type links are extracted from.
const DefaultMimeType = "text/plain"

// ProcessorOptions configures a Processor.
type ProcessorOptions struct {
	// MimeType selects the body part. text/html bodies are parsed as HTML.
	MimeType string
	// Marker identifies solution links.
	Marker string
	// MaxFailures excludes items with that many structural failures from
	// selection. Zero means unlimited.
	MaxFailures int
}

// Processor fetches unprocessed items and extracts their links and
// problem metadata.
type Processor struct {
	mailbox mailbox.Mailbox
	limiter *ratelimit.Limiter
	opts    ProcessorOptions
	logger  *slog.Logger
}

// NewProcessor creates a Processor. Every content fetch waits on limiter.
func NewProcessor(mb mailbox.Mailbox, limiter *ratelimit.Limiter, opts ProcessorOptions, logger *slog.Logger) *Processor {
	if opts.MimeType == "" {
		opts.MimeType = DefaultMimeType
	}
	if opts.Marker == "" {
		opts.Marker = DefaultMarker
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		mailbox: mb,
		limiter: limiter,
		opts:    opts,
		logger:  logger.With("component", "processor"),
	}
}

// BatchResult is the delta produced by one Process call. It is merged into
// the run-state with Apply.
type BatchResult struct {
	// Subjects maps processed item ids to their subject.
	Subjects map[string]string
	// Links are the extracted links in first-seen order.
	Links []string
	// Problems holds the first difficulty seen per problem id in this batch.
	Problems map[int]state.Difficulty
	// Failures maps failed item ids to their failure class.
	Failures map[string]fetcherr.Class
	// Calls counts content fetches made.
	Calls int
}

func newBatchResult() *BatchResult {
	return &BatchResult{
		Subjects: make(map[string]string),
		Problems: make(map[int]state.Difficulty),
		Failures: make(map[string]fetcherr.Class),
	}
}

// MergeStats reports what an Apply call changed.
type MergeStats struct {
	Subjects int
	Links    int
	Problems int
}

// Apply merges the batch into rs. Structural failures increment the
// item's failure count.
func (r *BatchResult) Apply(rs *state.RunState) MergeStats {
	var stats MergeStats

	for _, id := range sortedKeys(r.Subjects) {
		if rs.SetSubject(id, r.Subjects[id]) {
			stats.Subjects++
		}
	}
	stats.Links = rs.AddLinks(r.Links)

	ids := make([]int, 0, len(r.Problems))
	for id := range r.Problems {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if rs.AddProblem(id, r.Problems[id]) {
			stats.Problems++
		}
	}

	for _, id := range sortedKeys(r.Failures) {
		if r.Failures[id] == fetcherr.Structural {
			rs.RecordFailure(id)
		}
	}
	return stats
}

// Process fetches up to limit unprocessed items of rs in ascending id
// order. rs is not modified. Transient and structural failures are
// recorded per item; a fatal failure aborts the batch and is returned.
func (p *Processor) Process(ctx context.Context, rs *state.RunState, limit int) (*BatchResult, error) {
	result := newBatchResult()
	seenLinks := make(map[string]struct{})

	for _, id := range rs.Unprocessed(limit, p.opts.MaxFailures) {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fetcherr.Wrap(fetcherr.Fatal, "process", err)
		}

		result.Calls++
		subject, links, err := p.processItem(ctx, id)
		if err != nil {
			class := fetcherr.ClassOf(err)
			if class == fetcherr.Fatal {
				return nil, err
			}
			result.Failures[id] = class
			p.logger.Warn("item failed", "id", id, "class", class.String(), "error", err)
			continue
		}

		result.Subjects[id] = subject
		for _, link := range links {
			if _, ok := seenLinks[link]; ok {
				continue
			}
			seenLinks[link] = struct{}{}
			result.Links = append(result.Links, link)
		}

		if problem, ok := ProblemFromSubject(subject); ok {
			if _, exists := result.Problems[problem.ID]; !exists {
				result.Problems[problem.ID] = problem.Difficulty
			}
		} else {
			p.logger.Info("subject has no problem number", "id", id, "subject", subject)
		}
	}

	return result, nil
}

func (p *Processor) processItem(ctx context.Context, id string) (string, []string, error) {
	msg, err := p.mailbox.GetContent(ctx, id)
	if err != nil {
		return "", nil, err
	}

	body, err := p.body(msg)
	if err != nil {
		return "", nil, err
	}

	if p.isHTML() {
		links, err := LinksFromHTML(body, p.opts.Marker)
		if err != nil {
			return "", nil, fetcherr.Wrap(fetcherr.Structural, "extract "+id,
				fmt.Errorf("%w: %v", harvesterrors.ErrMalformedContent, err))
		}
		return msg.Subject, links, nil
	}
	return msg.Subject, LinksFromText(body, p.opts.Marker), nil
}

// body returns the single part of the expected type. A message without
// such a part has an empty body.
func (p *Processor) body(msg *mailbox.Message) (string, error) {
	parts := msg.PartsOf(p.opts.MimeType)
	switch len(parts) {
	case 0:
		p.logger.Warn("message has no body of expected type", "id", msg.ID, "mime_type", p.opts.MimeType)
		return "", nil
	case 1:
		return string(parts[0].Data), nil
	default:
		return "", fetcherr.Wrap(fetcherr.Structural, "extract "+msg.ID,
			fmt.Errorf("%d %s parts: %w", len(parts), p.opts.MimeType, harvesterrors.ErrMalformedContent))
	}
}

func (p *Processor) isHTML() bool {
	return mailbox.MediaType(p.opts.MimeType) == "text/html"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
