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

// Sirseer-harvest incrementally collects Daily Coding Problem mails from
// Gmail, extracts their solution links and problem difficulty, and
// downloads every solution as a Markdown file.
//
// Each invocation is safe to repeat: progress is kept in a run-state file
// that is saved after every stage, and the search floor only advances
// after a complete run.
//
// Usage:
//
//	sirseer-harvest run [flags]
//	sirseer-harvest discover | process | resolve [flags]
//	sirseer-harvest check
//	sirseer-harvest export [--kind item|link|problem] [--output file]
//	sirseer-harvest add link <url>...
//	sirseer-harvest add problem <id> <difficulty>
//	sirseer-harvest auth
//
// Authentication uses a Google OAuth client secrets file and a stored user
// token; run "sirseer-harvest auth" once to create the token.
package main
