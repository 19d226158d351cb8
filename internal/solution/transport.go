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
	"fmt"
	"net/http"
	"time"

	"github.com/sirseerhq/sirseer-harvest/pkg/version"
)

// userAgentTransport sets the User-Agent header on every request.
type userAgentTransport struct {
	base http.RoundTripper
}

func newUserAgentTransport(base http.RoundTripper) http.RoundTripper {
	return &userAgentTransport{base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", version.UserAgent())
	return t.base.RoundTrip(clone)
}

// retryTransport adds exponential backoff retry logic for gateway failures.
type retryTransport struct {
	base           http.RoundTripper
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// newRetryTransport creates a new transport with retry logic. maxRetries
// is the number of additional attempts after the first.
func newRetryTransport(base http.RoundTripper, maxRetries int) http.RoundTripper {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &retryTransport{
		base:           base,
		maxRetries:     maxRetries,
		initialBackoff: time.Second,
		maxBackoff:     30 * time.Second,
	}
}

// RoundTrip implements http.RoundTripper with retry logic. The last
// response is returned as is once retries are exhausted so the caller can
// classify its status.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	backoff := t.initialBackoff

	for attempt := 0; ; attempt++ {
		// Clone request for each attempt
		resp, err := t.base.RoundTrip(req.Clone(req.Context()))
		if err != nil {
			return nil, err
		}
		if !isRetryableStatusCode(resp.StatusCode) || attempt >= t.maxRetries {
			return resp, nil
		}
		resp.Body.Close()

		select {
		case <-time.After(backoff):
			backoff *= 2
			if backoff > t.maxBackoff {
				backoff = t.maxBackoff
			}
		case <-req.Context().Done():
			return nil, fmt.Errorf("retry wait canceled: %w", req.Context().Err())
		}
	}
}

// isRetryableStatusCode checks if an HTTP status code should trigger a retry.
func isRetryableStatusCode(code int) bool {
	switch code {
	case http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
