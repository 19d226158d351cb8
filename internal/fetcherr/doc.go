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

// Package fetcherr classifies failures of remote calls into the three
// classes the pipeline acts on. Transient failures are left for the next
// run, structural failures are logged and skipped, and fatal failures abort
// the run.
//
// Errors produced by this module's own clients carry their class explicitly
// (see Wrap). Errors from elsewhere are classified by inspecting the error
// chain for Google API status codes and finally by their message text.
package fetcherr
