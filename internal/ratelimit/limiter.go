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

// Package ratelimit provides the blocking call limiter shared by the
// content fetchers.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limiter admits at most maxCalls calls per period. Wait blocks until the
// next call is admitted.
type Limiter struct {
	limiter *rate.Limiter
}

// New returns a Limiter admitting maxCalls calls per period. A non-positive
// period or maxCalls yields a limiter that never blocks.
func New(maxCalls int, period time.Duration) *Limiter {
	if maxCalls <= 0 || period <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	every := rate.Every(period / time.Duration(maxCalls))
	return &Limiter{limiter: rate.NewLimiter(every, maxCalls)}
}

// Unlimited returns a Limiter that never blocks.
func Unlimited() *Limiter {
	return New(0, 0)
}

// Wait blocks until a call is admitted or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if err := l.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}
