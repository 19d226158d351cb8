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

package fetcherr

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// Inspector provides methods to inspect and categorize remote API errors.
type Inspector interface {
	// IsAuthError returns true if the error represents an authentication or authorization failure.
	IsAuthError(err error) bool

	// IsNotFoundError returns true if the error represents a resource not found error.
	IsNotFoundError(err error) bool

	// IsRateLimitError returns true if the error represents a quota or rate limit error.
	IsRateLimitError(err error) bool

	// IsServerError returns true if the error represents a server-side 5xx failure.
	IsServerError(err error) bool

	// IsNetworkError returns true if the error represents a network connectivity error.
	IsNetworkError(err error) bool
}

// MessageInspector implements Inspector by matching on error text.
type MessageInspector struct{}

// NewInspector creates a new MessageInspector.
func NewInspector() Inspector {
	return &MessageInspector{}
}

// IsAuthError checks if the error is an authentication or authorization error.
func (i *MessageInspector) IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "invalid credentials") ||
		strings.Contains(errStr, "token expired")
}

// IsNotFoundError checks if the error is a not found error.
func (i *MessageInspector) IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "404") ||
		strings.Contains(errStr, "not found")
}

// IsRateLimitError checks if the error is a rate limit error.
func (i *MessageInspector) IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "ratelimitexceeded") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "quota exceeded")
}

// IsServerError checks if the error reports a 5xx status.
func (i *MessageInspector) IsServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500 internal server error") ||
		strings.Contains(errStr, "502 bad gateway") ||
		strings.Contains(errStr, "503 service unavailable") ||
		strings.Contains(errStr, "504 gateway timeout") ||
		strings.Contains(errStr, "backenderror")
}

// IsNetworkError checks if the error is a network connectivity error.
func (i *MessageInspector) IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "dial tcp") ||
		strings.Contains(errStr, "tls handshake") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "unexpected eof")
}

// ErrorChainInspector wraps a base inspector and adds support for checking
// Google API errors and self-describing errors in the chain.
type ErrorChainInspector struct {
	base Inspector
}

// NewErrorChainInspector creates a new ErrorChainInspector that checks both
// the error chain and falls back to string-based inspection.
func NewErrorChainInspector(base Inspector) Inspector {
	return &ErrorChainInspector{base: base}
}

// IsAuthError checks the error chain first, then falls back to base inspector.
func (e *ErrorChainInspector) IsAuthError(err error) bool {
	var authErr interface{ IsAuthError() bool }
	if errors.As(err, &authErr) && authErr.IsAuthError() {
		return true
	}
	if code, ok := apiStatus(err); ok {
		return code == http.StatusUnauthorized ||
			(code == http.StatusForbidden && !isQuotaReason(err))
	}
	return e.base.IsAuthError(err)
}

// IsNotFoundError checks the error chain first, then falls back to base inspector.
func (e *ErrorChainInspector) IsNotFoundError(err error) bool {
	var notFoundErr interface{ IsNotFoundError() bool }
	if errors.As(err, &notFoundErr) && notFoundErr.IsNotFoundError() {
		return true
	}
	if code, ok := apiStatus(err); ok {
		return code == http.StatusNotFound || code == http.StatusBadRequest
	}
	return e.base.IsNotFoundError(err)
}

// IsRateLimitError checks the error chain first, then falls back to base inspector.
func (e *ErrorChainInspector) IsRateLimitError(err error) bool {
	var rateLimitErr interface{ IsRateLimitError() bool }
	if errors.As(err, &rateLimitErr) && rateLimitErr.IsRateLimitError() {
		return true
	}
	if code, ok := apiStatus(err); ok {
		return code == http.StatusTooManyRequests ||
			(code == http.StatusForbidden && isQuotaReason(err))
	}
	return e.base.IsRateLimitError(err)
}

// IsServerError checks the error chain first, then falls back to base inspector.
func (e *ErrorChainInspector) IsServerError(err error) bool {
	if code, ok := apiStatus(err); ok {
		return code >= http.StatusInternalServerError
	}
	return e.base.IsServerError(err)
}

// IsNetworkError checks the error chain first, then falls back to base inspector.
func (e *ErrorChainInspector) IsNetworkError(err error) bool {
	var networkErr interface{ IsNetworkError() bool }
	if errors.As(err, &networkErr) && networkErr.IsNetworkError() {
		return true
	}
	if _, ok := apiStatus(err); ok {
		return false
	}
	return e.base.IsNetworkError(err)
}

func apiStatus(err error) (int, bool) {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	return 0, false
}

// isQuotaReason reports whether a 403 from a Google API is a quota rejection
// rather than a permission failure.
func isQuotaReason(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, item := range apiErr.Errors {
		switch item.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded", "quotaExceeded", "dailyLimitExceeded":
			return true
		}
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "rate limit")
}
