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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	harvesterrors "github.com/sirseerhq/sirseer-harvest/internal/errors"
	"github.com/sirseerhq/sirseer-harvest/internal/fetcherr"
	"github.com/sirseerhq/sirseer-harvest/internal/mailbox"
	"github.com/sirseerhq/sirseer-harvest/internal/mailbox/mocks"
)

func TestWalker_DeduplicatesAcrossPages(t *testing.T) {
	mb := mailbox.NewMockMailboxWithOptions(mailbox.WithPages(
		[]string{"a", "b"},
		[]string{"b", "c"},
		[]string{},
	))

	ids, err := NewWalker(mb, 2, 0, discardLogger()).Walk(context.Background(), "q", 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	require.Len(t, mb.SearchCalls, 3)
	for _, call := range mb.SearchCalls {
		assert.Equal(t, "q", call.Query)
		assert.Equal(t, int64(100), call.After)
		assert.Equal(t, 2, call.PageSize)
	}
	assert.Equal(t, "", mb.SearchCalls[0].PageToken)
	assert.Equal(t, "page-1", mb.SearchCalls[1].PageToken)
	assert.Equal(t, "page-2", mb.SearchCalls[2].PageToken)
}

func TestWalker_FailureAbortsWalk(t *testing.T) {
	ctrl := gomock.NewController(t)
	mb := mocks.NewMockMailbox(ctrl)

	boom := fetcherr.Wrap(fetcherr.Transient, "search", harvesterrors.ErrNetworkFailure)
	gomock.InOrder(
		mb.EXPECT().Search(gomock.Any(), mailbox.SearchRequest{Query: "q", PageSize: DefaultPageSize}).
			Return(&mailbox.SearchPage{IDs: []string{"a"}, NextPageToken: "t1"}, nil),
		mb.EXPECT().Search(gomock.Any(), mailbox.SearchRequest{Query: "q", PageToken: "t1", PageSize: DefaultPageSize}).
			Return(nil, boom),
	)

	ids, err := NewWalker(mb, 0, 0, discardLogger()).Walk(context.Background(), "q", 0)
	assert.Nil(t, ids)
	assert.True(t, errors.Is(err, harvesterrors.ErrNetworkFailure))
	assert.Equal(t, fetcherr.Transient, fetcherr.ClassOf(err))
}

func TestWalker_MaxPages(t *testing.T) {
	ctrl := gomock.NewController(t)
	mb := mocks.NewMockMailbox(ctrl)

	mb.EXPECT().Search(gomock.Any(), gomock.Any()).
		Return(&mailbox.SearchPage{IDs: []string{"a"}, NextPageToken: "again"}, nil).
		Times(3)

	_, err := NewWalker(mb, 10, 3, discardLogger()).Walk(context.Background(), "q", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeded 3 pages")
}
