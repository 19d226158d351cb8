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

	"github.com/sirseerhq/sirseer-harvest/internal/fetcherr"
	"github.com/sirseerhq/sirseer-harvest/internal/mailbox"
)

// DefaultPageSize is the search page size used when none is configured.
const DefaultPageSize = 250

// Walker follows search continuation tokens until the result set is
// exhausted.
type Walker struct {
	mailbox  mailbox.Mailbox
	pageSize int
	maxPages int
	logger   *slog.Logger
}

// NewWalker creates a Walker. maxPages bounds the number of search calls
// of one walk; zero means unlimited.
func NewWalker(mb mailbox.Mailbox, pageSize, maxPages int, logger *slog.Logger) *Walker {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{
		mailbox:  mb,
		pageSize: pageSize,
		maxPages: maxPages,
		logger:   logger.With("component", "walker"),
	}
}

// Walk returns every message id matching query after floor, deduplicated
// in first-seen order. Any failed search call aborts the walk.
func (w *Walker) Walk(ctx context.Context, query string, floor int64) ([]string, error) {
	ids, _, err := w.WalkPages(ctx, query, floor)
	return ids, err
}

// WalkPages is Walk that also reports the number of search calls made.
func (w *Walker) WalkPages(ctx context.Context, query string, floor int64) ([]string, int, error) {
	var ids []string
	seen := make(map[string]struct{})
	token := ""

	for page := 1; ; page++ {
		if w.maxPages > 0 && page > w.maxPages {
			return nil, page - 1, fetcherr.Wrap(fetcherr.Fatal, "walk",
				fmt.Errorf("search exceeded %d pages", w.maxPages))
		}

		result, err := w.mailbox.Search(ctx, mailbox.SearchRequest{
			Query:     query,
			After:     floor,
			PageToken: token,
			PageSize:  w.pageSize,
		})
		if err != nil {
			return nil, page, fmt.Errorf("search page %d: %w", page, err)
		}

		added := 0
		for _, id := range result.IDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
			added++
		}
		w.logger.Debug("search page", "page", page, "ids", len(result.IDs), "new", added)

		if result.NextPageToken == "" {
			w.logger.Info("walk complete", "pages", page, "ids", len(ids))
			return ids, page, nil
		}
		token = result.NextPageToken
	}
}
