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
	"context"
	"errors"
	"fmt"
)

// Class is the failure class of a fetch operation.
type Class int

const (
	// OK is the class of a nil error.
	OK Class = iota
	// Transient failures (timeouts, quota, server errors) are retried on the next run.
	Transient
	// Structural failures (malformed content, missing token, non-JSON) are logged and skipped.
	Structural
	// Fatal failures (session, cancelled run) abort the whole run.
	Fatal
)

// String returns the lower-case name of the class.
func (c Class) String() string {
	switch c {
	case OK:
		return "ok"
	case Transient:
		return "transient"
	case Structural:
		return "structural"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Error attaches a failure class and the failing operation to an error.
type Error struct {
	Class Class
	Op    string
	Err   error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns err tagged with class. It returns nil if err is nil.
func Wrap(class Class, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Class: class, Op: op, Err: err}
}

// ClassOf classifies err. Explicitly tagged errors win; context errors and
// inspected API errors are mapped next; anything unrecognised is structural.
func ClassOf(err error) Class {
	return classify(err, NewErrorChainInspector(NewInspector()))
}

func classify(err error, inspector Inspector) Class {
	if err == nil {
		return OK
	}

	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Class
	}

	switch {
	case errors.Is(err, context.Canceled):
		return Fatal
	case errors.Is(err, context.DeadlineExceeded):
		return Transient
	case inspector.IsAuthError(err):
		return Fatal
	case inspector.IsRateLimitError(err),
		inspector.IsServerError(err),
		inspector.IsNetworkError(err):
		return Transient
	case inspector.IsNotFoundError(err):
		return Structural
	default:
		return Structural
	}
}
