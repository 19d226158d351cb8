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

// Package harvest implements the incremental harvest pipeline: discovering
// message ids, processing message content into solution links and problem
// metadata, and resolving links into Markdown artifacts.
//
// Every stage reads the run-state, computes its delta without touching the
// state, and merges the delta only when the stage succeeds. Merges are
// idempotent, so any stage can be re-run after a partial failure.
package harvest
