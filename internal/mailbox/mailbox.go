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

import "context"

//go:generate mockgen -source=mailbox.go -destination=mocks/mocks.go -package=mocks

// Mailbox defines the interface for interacting with the mail service.
// This interface allows for easy mocking in tests.
type Mailbox interface {
	// Search returns one page of message ids matching req. An empty
	// NextPageToken on the returned page means there are no further pages.
	Search(ctx context.Context, req SearchRequest) (*SearchPage, error)

	// GetContent fetches the subject and body parts of a single message.
	GetContent(ctx context.Context, id string) (*Message, error)
}
