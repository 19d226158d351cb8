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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"

	harvesterrors "github.com/sirseerhq/sirseer-harvest/internal/errors"
	"github.com/sirseerhq/sirseer-harvest/internal/fetcherr"
)

const messagesPath = "/gmail/v1/users/me/messages"

func newTestGmail(t *testing.T, handler http.HandlerFunc) *GmailMailbox {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	mb, err := NewGmailMailbox(context.Background(), GmailOptions{},
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewGmailMailbox failed: %v", err)
	}
	return mb
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func apiError(code int, reason, message string) map[string]any {
	return map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"errors":  []map[string]any{{"reason": reason, "message": message}},
		},
	}
}

func encode(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestGmailMailbox_Search(t *testing.T) {
	var gotQuery, gotToken, gotMax string
	mb := newTestGmail(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != messagesPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		gotToken = r.URL.Query().Get("pageToken")
		gotMax = r.URL.Query().Get("maxResults")
		writeJSON(t, w, http.StatusOK, map[string]any{
			"messages":           []map[string]string{{"id": "a", "threadId": "a"}, {"id": "b", "threadId": "b"}},
			"nextPageToken":      "next",
			"resultSizeEstimate": 2,
		})
	})

	page, err := mb.Search(context.Background(), SearchRequest{
		Query:     "subject:(Daily Coding Problem)",
		After:     1700000000,
		PageToken: "tok",
		PageSize:  250,
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotQuery != "subject:(Daily Coding Problem) after:1700000000" {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if gotToken != "tok" {
		t.Errorf("unexpected page token %q", gotToken)
	}
	if gotMax != "250" {
		t.Errorf("unexpected maxResults %q", gotMax)
	}
	if strings.Join(page.IDs, ",") != "a,b" {
		t.Errorf("unexpected ids %v", page.IDs)
	}
	if page.NextPageToken != "next" {
		t.Errorf("unexpected next token %q", page.NextPageToken)
	}
}

func TestGmailMailbox_SearchWithoutFloor(t *testing.T) {
	var gotQuery string
	mb := newTestGmail(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		writeJSON(t, w, http.StatusOK, map[string]any{})
	})

	page, err := mb.Search(context.Background(), SearchRequest{Query: "subject:(x)"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if gotQuery != "subject:(x)" {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if len(page.IDs) != 0 || page.NextPageToken != "" {
		t.Errorf("expected empty final page, got %+v", page)
	}
}

func TestGmailMailbox_GetContent(t *testing.T) {
	mb := newTestGmail(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != messagesPath+"/m1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("format"); got != "full" {
			t.Errorf("unexpected format %q", got)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"id": "m1",
			"payload": map[string]any{
				"mimeType": "multipart/mixed",
				"headers": []map[string]string{
					{"name": "From", "value": "founders@dailycodingproblem.com"},
					{"name": "subject", "value": "Daily Coding Problem: Problem #42 [Hard]"},
				},
				"parts": []map[string]any{
					{
						"partId":   "0",
						"mimeType": "multipart/alternative",
						"parts": []map[string]any{
							{"partId": "0.0", "mimeType": "text/plain", "body": map[string]any{"data": encode("see [dailycodingproblem.com/solution/42?token=abc]")}},
							{"partId": "0.1", "mimeType": "text/html", "body": map[string]any{"data": encode("<p>hi</p>")}},
						},
					},
					{"partId": "1", "mimeType": "image/png", "body": map[string]any{"attachmentId": "att"}},
				},
			},
		})
	})

	msg, err := mb.GetContent(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}
	if msg.Subject != "Daily Coding Problem: Problem #42 [Hard]" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	if len(msg.Parts) != 2 {
		t.Fatalf("expected 2 decoded parts, got %d", len(msg.Parts))
	}
	plain := msg.PartsOf("text/plain")
	if len(plain) != 1 || string(plain[0].Data) != "see [dailycodingproblem.com/solution/42?token=abc]" {
		t.Errorf("unexpected plain parts %+v", plain)
	}
}

func TestGmailMailbox_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		reason    string
		wantClass fetcherr.Class
		wantErr   error
	}{
		{"not found", http.StatusNotFound, "notFound", fetcherr.Structural, harvesterrors.ErrMessageNotFound},
		{"unauthorized", http.StatusUnauthorized, "authError", fetcherr.Fatal, harvesterrors.ErrSession},
		{"forbidden", http.StatusForbidden, "insufficientPermissions", fetcherr.Fatal, harvesterrors.ErrSession},
		{"quota", http.StatusForbidden, "userRateLimitExceeded", fetcherr.Transient, harvesterrors.ErrRateLimit},
		{"too many requests", http.StatusTooManyRequests, "rateLimitExceeded", fetcherr.Transient, harvesterrors.ErrRateLimit},
		{"backend error", http.StatusServiceUnavailable, "backendError", fetcherr.Transient, harvesterrors.ErrNetworkFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mb := newTestGmail(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, tt.status, apiError(tt.status, tt.reason, http.StatusText(tt.status)))
			})

			_, err := mb.GetContent(context.Background(), "m1")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := fetcherr.ClassOf(err); got != tt.wantClass {
				t.Errorf("ClassOf() = %v, want %v", got, tt.wantClass)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v in chain, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGmailMailbox_CanceledContext(t *testing.T) {
	mb := newTestGmail(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mb.Search(ctx, SearchRequest{Query: "q"})
	if fetcherr.ClassOf(err) != fetcherr.Fatal {
		t.Errorf("expected fatal class for canceled context, got %v (%v)", fetcherr.ClassOf(err), err)
	}
}

func TestDecodeBody(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"padded", base64.URLEncoding.EncodeToString([]byte("hello?")), "hello?"},
		{"unpadded", base64.RawURLEncoding.EncodeToString([]byte("hello!!")), "hello!!"},
		{"url alphabet", base64.URLEncoding.EncodeToString([]byte{0xfb, 0xff}), "\xfb\xff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeBody(tt.input)
			if err != nil {
				t.Fatalf("decodeBody failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("decodeBody() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := decodeBody("!!not base64!!"); err == nil {
		t.Error("expected error for invalid data")
	}
}
