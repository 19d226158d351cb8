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
	"log/slog"
	"math"
	"time"

	"github.com/sirseerhq/sirseer-harvest/internal/fetcherr"
)

// RetryConfig configures the retry behavior for API calls
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts
	MaxRetries int
	// InitialBackoff is the initial backoff duration
	InitialBackoff time.Duration
	// MaxBackoff is the maximum backoff duration
	MaxBackoff time.Duration
	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryMailbox wraps a Mailbox with automatic retry of transient failures
// using exponential backoff. Structural and fatal failures are returned
// immediately.
type RetryMailbox struct {
	mailbox Mailbox
	config  *RetryConfig
	logger  *slog.Logger
}

// NewRetryMailbox creates a new RetryMailbox with the given configuration
func NewRetryMailbox(mb Mailbox, config *RetryConfig, logger *slog.Logger) *RetryMailbox {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryMailbox{
		mailbox: mb,
		config:  config,
		logger:  logger.With("component", "mailbox-retry"),
	}
}

// Search implements the Mailbox interface with retry logic
func (r *RetryMailbox) Search(ctx context.Context, req SearchRequest) (*SearchPage, error) {
	var page *SearchPage
	err := r.do(ctx, "search", func() error {
		var err error
		page, err = r.mailbox.Search(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// GetContent implements the Mailbox interface with retry logic
func (r *RetryMailbox) GetContent(ctx context.Context, id string) (*Message, error) {
	var msg *Message
	err := r.do(ctx, "get", func() error {
		var err error
		msg, err = r.mailbox.GetContent(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *RetryMailbox) do(ctx context.Context, op string, call func() error) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		err := call()
		if err == nil {
			return nil
		}
		lastErr = err

		// Don't retry on non-retryable errors
		if fetcherr.ClassOf(err) != fetcherr.Transient {
			return err
		}

		// Don't retry if context is cancelled
		if ctx.Err() != nil {
			return fetcherr.Wrap(fetcherr.Fatal, op, ctx.Err())
		}

		if attempt == r.config.MaxRetries {
			break
		}

		backoff := r.calculateBackoff(attempt)
		r.logger.Warn("transient mail failure, retrying",
			"op", op,
			"attempt", attempt+1,
			"max_retries", r.config.MaxRetries,
			"backoff", backoff,
			"error", err)

		// Wait with context cancellation support
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return fetcherr.Wrap(fetcherr.Fatal, op, ctx.Err())
		}
	}

	return fmt.Errorf("failed after %d retries: %w", r.config.MaxRetries, lastErr)
}

// calculateBackoff calculates the backoff duration for the given attempt
func (r *RetryMailbox) calculateBackoff(attempt int) time.Duration {
	backoff := float64(r.config.InitialBackoff) * math.Pow(r.config.BackoffMultiplier, float64(attempt))

	// Apply max backoff limit
	if backoff > float64(r.config.MaxBackoff) {
		backoff = float64(r.config.MaxBackoff)
	}

	// Add jitter (±10%)
	jitter := backoff * 0.1 * (2*float64(time.Now().UnixNano()%100)/100 - 1)
	backoff += jitter

	return time.Duration(backoff)
}
