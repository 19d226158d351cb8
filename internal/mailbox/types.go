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

import "strings"

// SearchRequest configures a single search call.
type SearchRequest struct {
	// Query is the provider search expression.
	Query string

	// After restricts results to messages received after this epoch
	// second. Zero means no lower bound.
	After int64

	// PageToken continues a previous search. Empty starts a new one.
	PageToken string

	// PageSize is the maximum number of ids per page. Zero uses the
	// provider default.
	PageSize int
}

// SearchPage is one page of search results.
type SearchPage struct {
	IDs           []string
	NextPageToken string
}

// Message is the content of a single mail item.
type Message struct {
	ID      string
	Subject string

	// Parts holds the decoded leaf body parts, with nested multipart
	// trees flattened in document order.
	Parts []Part
}

// Part is a decoded body part.
type Part struct {
	MimeType string
	Data     []byte
}

// PartsOf returns the parts whose media type equals mimeType, ignoring
// case and media type parameters.
func (m *Message) PartsOf(mimeType string) []Part {
	var parts []Part
	for _, p := range m.Parts {
		if MediaType(p.MimeType) == MediaType(mimeType) {
			parts = append(parts, p)
		}
	}
	return parts
}

// MediaType normalizes a MIME type to its lower-case media type without
// parameters.
func MediaType(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(strings.TrimSpace(s))
}
