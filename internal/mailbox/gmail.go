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
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	harvesterrors "github.com/sirseerhq/sirseer-harvest/internal/errors"
	"github.com/sirseerhq/sirseer-harvest/internal/fetcherr"
)

// DefaultUser is the Gmail user id addressing the authenticated account.
const DefaultUser = "me"

// GmailOptions configures a GmailMailbox.
type GmailOptions struct {
	// User is the Gmail user id. Defaults to DefaultUser.
	User string
}

// GmailMailbox implements Mailbox over the Gmail REST API.
type GmailMailbox struct {
	svc       *gmailapi.Service
	user      string
	inspector fetcherr.Inspector
}

// NewGmailMailbox creates a Gmail-backed Mailbox. Authentication and
// endpoint selection are supplied through client options, typically
// option.WithTokenSource.
func NewGmailMailbox(ctx context.Context, opts GmailOptions, clientOpts ...option.ClientOption) (*GmailMailbox, error) {
	svc, err := gmailapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fetcherr.Wrap(fetcherr.Fatal, "gmail",
			fmt.Errorf("failed to create gmail service: %w: %w", harvesterrors.ErrSession, err))
	}

	user := opts.User
	if user == "" {
		user = DefaultUser
	}

	return &GmailMailbox{
		svc:       svc,
		user:      user,
		inspector: fetcherr.NewErrorChainInspector(fetcherr.NewInspector()),
	}, nil
}

// Search implements Mailbox using users.messages.list.
func (g *GmailMailbox) Search(ctx context.Context, req SearchRequest) (*SearchPage, error) {
	call := g.svc.Users.Messages.List(g.user).Q(searchQuery(req.Query, req.After))
	if req.PageSize > 0 {
		call = call.MaxResults(int64(req.PageSize))
	}
	if req.PageToken != "" {
		call = call.PageToken(req.PageToken)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, g.wrapError("search", err)
	}

	page := &SearchPage{
		IDs:           make([]string, 0, len(resp.Messages)),
		NextPageToken: resp.NextPageToken,
	}
	for _, m := range resp.Messages {
		page.IDs = append(page.IDs, m.Id)
	}
	return page, nil
}

// GetContent implements Mailbox using users.messages.get in full format.
func (g *GmailMailbox) GetContent(ctx context.Context, id string) (*Message, error) {
	msg, err := g.svc.Users.Messages.Get(g.user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, g.wrapError("get "+id, err)
	}
	if msg.Payload == nil {
		return &Message{ID: id}, nil
	}

	out := &Message{
		ID:      id,
		Subject: header(msg.Payload.Headers, "Subject"),
	}
	if err := flatten(msg.Payload, &out.Parts); err != nil {
		return nil, fetcherr.Wrap(fetcherr.Structural, "get "+id,
			fmt.Errorf("%w: %v", harvesterrors.ErrMalformedContent, err))
	}
	return out, nil
}

// wrapError maps a Gmail API error onto a failure class and sentinel.
func (g *GmailMailbox) wrapError(op string, err error) error {
	// Token refresh failures surface here already classified.
	var tagged *fetcherr.Error
	if errors.As(err, &tagged) {
		return fetcherr.Wrap(tagged.Class, op, err)
	}

	switch {
	case errors.Is(err, context.Canceled):
		return fetcherr.Wrap(fetcherr.Fatal, op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fetcherr.Wrap(fetcherr.Transient, op, err)
	case g.inspector.IsAuthError(err):
		return fetcherr.Wrap(fetcherr.Fatal, op, fmt.Errorf("%w: %w", harvesterrors.ErrSession, err))
	case g.inspector.IsRateLimitError(err):
		return fetcherr.Wrap(fetcherr.Transient, op, fmt.Errorf("%w: %w", harvesterrors.ErrRateLimit, err))
	case g.inspector.IsNotFoundError(err):
		return fetcherr.Wrap(fetcherr.Structural, op, fmt.Errorf("%w: %w", harvesterrors.ErrMessageNotFound, err))
	case g.inspector.IsServerError(err), g.inspector.IsNetworkError(err):
		return fetcherr.Wrap(fetcherr.Transient, op, fmt.Errorf("%w: %w", harvesterrors.ErrNetworkFailure, err))
	default:
		return fetcherr.Wrap(fetcherr.ClassOf(err), op, err)
	}
}

func searchQuery(query string, after int64) string {
	if after <= 0 {
		return query
	}
	return strings.TrimSpace(fmt.Sprintf("%s after:%d", query, after))
}

func header(headers []*gmailapi.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// flatten appends the decoded leaf parts of p to parts in document order.
func flatten(p *gmailapi.MessagePart, parts *[]Part) error {
	if len(p.Parts) > 0 {
		for _, child := range p.Parts {
			if err := flatten(child, parts); err != nil {
				return err
			}
		}
		return nil
	}
	if p.Body == nil || p.Body.Data == "" {
		return nil
	}

	data, err := decodeBody(p.Body.Data)
	if err != nil {
		return fmt.Errorf("part %q: %w", p.PartId, err)
	}
	*parts = append(*parts, Part{MimeType: p.MimeType, Data: data})
	return nil
}

// decodeBody decodes base64url part data, which Gmail may send with or
// without padding.
func decodeBody(s string) ([]byte, error) {
	if data, err := base64.URLEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
