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

package solution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	harvesterrors "github.com/sirseerhq/sirseer-harvest/internal/errors"
	"github.com/sirseerhq/sirseer-harvest/internal/fetcherr"
)

// Default content API location.
const (
	DefaultAPIHost = "www.dailycodingproblem.com"
	DefaultAPIPath = "api/solution"
)

// maxBodySize bounds the content API response read into memory.
const maxBodySize = 4 << 20

// Options configures a Client.
type Options struct {
	// APIHost is the content API host. Defaults to DefaultAPIHost.
	APIHost string
	// APIPath is the content API path. Defaults to DefaultAPIPath.
	APIPath string
	// Scheme is the content API scheme. Defaults to https.
	Scheme string
	// Timeout bounds a single request, retries included.
	Timeout time.Duration
	// MaxRetries is the number of transport-level retries on 502/503/504.
	MaxRetries int
}

// Solution is the content API response.
type Solution struct {
	ProblemID json.Number `json:"problemId"`
	Problem   string      `json:"problem"`
	Solution  string      `json:"solution"`
}

// ID returns the numeric problem id of the response.
func (s *Solution) ID() (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s.ProblemID.String()))
	if err != nil {
		return 0, fmt.Errorf("problemId %q is not numeric: %w", s.ProblemID, harvesterrors.ErrInvalidResponse)
	}
	return id, nil
}

// Client fetches solutions from the content API.
type Client struct {
	httpClient *http.Client
	opts       Options
	logger     *slog.Logger
}

// NewClient creates a content API client. The HTTP transport retries
// gateway errors and is instrumented with OpenTelemetry.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.APIHost == "" {
		opts.APIHost = DefaultAPIHost
	}
	if opts.APIPath == "" {
		opts.APIPath = DefaultAPIPath
	}
	if opts.Scheme == "" {
		opts.Scheme = "https"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := otelhttp.NewTransport(
		newRetryTransport(newUserAgentTransport(http.DefaultTransport), opts.MaxRetries),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "solution " + r.Method
		}),
	)

	return &Client{
		httpClient: &http.Client{Transport: transport, Timeout: opts.Timeout},
		opts:       opts,
		logger:     logger.With("component", "solution"),
	}
}

// APIURL rewrites a solution link into the content API URL, keeping the
// original query string. Links without a token parameter are rejected.
func (c *Client) APIURL(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fetcherr.Wrap(fetcherr.Structural, "rewrite", fmt.Errorf("invalid link %q: %w", link, err))
	}
	if !u.Query().Has("token") {
		return "", fetcherr.Wrap(fetcherr.Structural, "rewrite",
			fmt.Errorf("%s: %w", link, harvesterrors.ErrMissingToken))
	}

	api := url.URL{
		Scheme:   c.opts.Scheme,
		Host:     c.opts.APIHost,
		Path:     "/" + strings.TrimPrefix(c.opts.APIPath, "/"),
		RawQuery: u.RawQuery,
	}
	return api.String(), nil
}

// Fetch retrieves and decodes the content API response at apiURL.
func (c *Client) Fetch(ctx context.Context, apiURL string) (*Solution, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fetcherr.Wrap(fetcherr.Structural, "fetch", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("fetching solution", "url", redact(apiURL))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, fetcherr.Wrap(fetcherr.Fatal, "fetch", err)
		}
		return nil, fetcherr.Wrap(fetcherr.Transient, "fetch",
			fmt.Errorf("%w: %w", harvesterrors.ErrNetworkFailure, err))
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fetcherr.Wrap(fetcherr.Transient, "fetch",
			fmt.Errorf("failed to read response: %w: %w", harvesterrors.ErrNetworkFailure, err))
	}

	var s Solution
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fetcherr.Wrap(fetcherr.Structural, "fetch",
			fmt.Errorf("%w: %v", harvesterrors.ErrInvalidResponse, err))
	}
	if s.ProblemID == "" && s.Problem == "" && s.Solution == "" {
		return nil, fetcherr.Wrap(fetcherr.Structural, "fetch",
			fmt.Errorf("%w: empty solution object", harvesterrors.ErrInvalidResponse))
	}
	return &s, nil
}

// Document renders a solution as Markdown.
func Document(s *Solution) string {
	return fmt.Sprintf("## Problem #%s\n%s\n## Solution\n%s", s.ProblemID, s.Problem, s.Solution)
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return fetcherr.Wrap(fetcherr.Transient, "fetch",
			fmt.Errorf("status %d: %w", code, harvesterrors.ErrRateLimit))
	case code >= 500, code == http.StatusRequestTimeout:
		return fetcherr.Wrap(fetcherr.Transient, "fetch",
			fmt.Errorf("status %d: %w", code, harvesterrors.ErrNetworkFailure))
	default:
		return fetcherr.Wrap(fetcherr.Structural, "fetch",
			fmt.Errorf("status %d: %w", code, harvesterrors.ErrInvalidResponse))
	}
}

// redact hides the token value in log output.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
