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

// Package mailbox provides access to the mail service that delivers the
// daily problem messages. It abstracts the Gmail REST API behind a small
// interface for searching message ids and fetching message content.
//
// The package includes:
//   - A Mailbox interface for searching and fetching messages
//   - A Gmail implementation using google.golang.org/api/gmail/v1
//   - A retrying wrapper with exponential backoff for transient failures
//   - An in-memory mock mailbox and a gomock mock (package mocks) for testing
//
// Basic usage:
//
//	mb, err := mailbox.NewGmailMailbox(ctx, mailbox.GmailOptions{}, option.WithTokenSource(ts))
//	if err != nil {
//	    // Handle error
//	}
//	page, err := mb.Search(ctx, mailbox.SearchRequest{
//	    Query:    "subject:(Daily Coding Problem)",
//	    PageSize: 250,
//	})
package mailbox
