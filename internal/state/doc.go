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

// Package state provides the run-state of the harvest pipeline and its
// persistence.
//
// The run-state is one aggregate: the floor timestamp for the next mail
// search, the discovered items with their subjects, the extracted solution
// links with their resolved artifact paths, and the problems with their
// difficulty. Every map only ever grows, subjects and resolutions only move
// from absent to present, and a problem's difficulty is never overwritten.
// The merge methods on RunState are the only way the pipeline mutates it,
// so re-applying the same results is a no-op.
//
// The aggregate is serialized as one JSON blob carrying a schema version and
// a SHA-256 checksum. FileStore writes it atomically using a
// write-to-temp-and-rename pattern; SQLiteStore keeps the same blob in a
// single-row table.
//
// Example usage:
//
//	store := state.NewFileStore("data/run_state.json")
//	rs, err := store.Load(ctx)
//	if err != nil {
//	    return err
//	}
//	rs.AddItems([]string{"18c2f3a9"})
//	err = store.Save(ctx, rs)
package state
