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

// Package solution resolves solution links found in mail bodies through
// the content API and renders the result as a Markdown document.
//
// A solution link such as
//
//	https://dailycodingproblem.com/solution/42?token=abc
//
// is rewritten to the content API
//
//	https://www.dailycodingproblem.com/api/solution?token=abc
//
// which answers with {"problemId", "problem", "solution"}.
package solution
