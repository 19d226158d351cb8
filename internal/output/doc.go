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

// Package output writes run-state exports as NDJSON (Newline Delimited JSON).
// Each line is one record describing an item, a link or a problem, so an
// export can be streamed into other tools without loading it whole.
//
// Example usage:
//
//	w, err := output.NewFileWriter("export.ndjson")
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	n, err := output.Export(w, rs, output.KindItem, output.KindLink)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Exported %d records\n", n)
package output
