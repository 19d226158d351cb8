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

package mailbox

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	harvesterrors "github.com/sirseerhq/sirseer-harvest/internal/errors"
	"github.com/sirseerhq/sirseer-harvest/internal/fetcherr"
)

// MockMailbox is an in-memory Mailbox for tests and dry runs. Search
// serves Pages in order; page i is continued by the token "page-<i+1>".
type MockMailbox struct {
	mu sync.Mutex

	// Pages are the id pages returned by successive Search calls.
	Pages [][]string

	// Messages holds the content returned by GetContent.
	Messages map[string]*Message

	// Errors returns a specific error from GetContent for an id.
	Errors map[string]error

	// SearchError is returned by every Search call when set.
	SearchError error

	// Track calls for verification
	SearchCalls []SearchRequest
	GetCalls    []string
}

// NewMockMailbox creates an empty mock mailbox.
func NewMockMailbox() *MockMailbox {
	return &MockMailbox{
		Messages: make(map[string]*Message),
		Errors:   make(map[string]error),
	}
}

// MockMailboxOption allows configuring the mock mailbox
type MockMailboxOption func(*MockMailbox)

// WithPages sets the search result pages.
func WithPages(pages ...[]string) MockMailboxOption {
	return func(m *MockMailbox) {
		m.Pages = pages
	}
}

// WithMessage adds a plain text message.
func WithMessage(id, subject, body string) MockMailboxOption {
	return func(m *MockMailbox) {
		m.Messages[id] = &Message{
			ID:      id,
			Subject: subject,
			Parts:   []Part{{MimeType: "text/plain", Data: []byte(body)}},
		}
	}
}

// WithContentError makes GetContent fail for id.
func WithContentError(id string, err error) MockMailboxOption {
	return func(m *MockMailbox) {
		m.Errors[id] = err
	}
}

// NewMockMailboxWithOptions creates a mock mailbox with options
func NewMockMailboxWithOptions(opts ...MockMailboxOption) *MockMailbox {
	mock := NewMockMailbox()
	for _, opt := range opts {
		opt(mock)
	}
	return mock
}

// Search implements the Mailbox interface
func (m *MockMailbox) Search(ctx context.Context, req SearchRequest) (*SearchPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls = append(m.SearchCalls, req)

	if err := ctx.Err(); err != nil {
		return nil, fetcherr.Wrap(fetcherr.Fatal, "search", err)
	}
	if m.SearchError != nil {
		return nil, m.SearchError
	}

	index := 0
	if req.PageToken != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(req.PageToken, "page-"))
		if err != nil || n <= 0 || n >= len(m.Pages) {
			return nil, fetcherr.Wrap(fetcherr.Structural, "search",
				fmt.Errorf("unknown page token %q", req.PageToken))
		}
		index = n
	}

	page := &SearchPage{}
	if index < len(m.Pages) {
		page.IDs = append(page.IDs, m.Pages[index]...)
	}
	if index+1 < len(m.Pages) {
		page.NextPageToken = fmt.Sprintf("page-%d", index+1)
	}
	return page, nil
}

// GetContent implements the Mailbox interface
func (m *MockMailbox) GetContent(ctx context.Context, id string) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls = append(m.GetCalls, id)

	if err := ctx.Err(); err != nil {
		return nil, fetcherr.Wrap(fetcherr.Fatal, "get "+id, err)
	}
	if err, ok := m.Errors[id]; ok {
		return nil, err
	}

	msg, ok := m.Messages[id]
	if !ok {
		return nil, fetcherr.Wrap(fetcherr.Structural, "get "+id,
			fmt.Errorf("message %s: %w", id, harvesterrors.ErrMessageNotFound))
	}
	copied := *msg
	copied.Parts = append([]Part(nil), msg.Parts...)
	return &copied, nil
}
