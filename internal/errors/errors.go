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

// Package errors defines sentinel errors for consistent error handling across the application.
// These errors map to specific exit codes in the CLI for proper scripting support.
package errors

import "errors"

// Sentinel errors for consistent error handling and exit code mapping
var (
	// ErrSession indicates a mail-service session could not be obtained or was rejected.
	// Maps to exit code 2.
	ErrSession = errors.New("mail session unavailable")

	// ErrNetworkFailure indicates a network connection problem.
	// Maps to exit code 3.
	ErrNetworkFailure = errors.New("network connection failed")

	// ErrRateLimit indicates a remote API quota has been exceeded.
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrStateIO indicates the run-state could not be read or written.
	// Maps to exit code 4.
	ErrStateIO = errors.New("run state unavailable")

	// ErrStateCorrupted indicates the run-state failed integrity validation.
	// Maps to exit code 4.
	ErrStateCorrupted = errors.New("run state corrupted")

	// ErrMessageNotFound indicates the mail service has no item for an identifier.
	ErrMessageNotFound = errors.New("message not found")

	// ErrMalformedContent indicates an item carries more than one body part
	// of the expected MIME type.
	ErrMalformedContent = errors.New("malformed message content")

	// ErrMissingToken indicates a solution link has no token query parameter.
	ErrMissingToken = errors.New("solution link has no token")

	// ErrInvalidResponse indicates the content API did not return valid JSON.
	ErrInvalidResponse = errors.New("content api returned an invalid response")

	// ErrUnknownProblem indicates a link refers to a problem with no recorded difficulty.
	ErrUnknownProblem = errors.New("problem not recorded")
)
