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

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-harvest/internal/output"
	"github.com/sirseerhq/sirseer-harvest/internal/state"
)

func newExportCommand(opts *globalOptions) *cobra.Command {
	var (
		outputFile string
		kinds      []string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the run-state as NDJSON",
		Long: `Export items, links and problems of the run-state as NDJSON, one record
per line. Use --kind to select record kinds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}

			var writer output.RecordWriter
			if outputFile == "" {
				writer = output.NewWriter(cmd.OutOrStdout())
			} else {
				fileWriter, fErr := output.NewFileWriter(outputFile)
				if fErr != nil {
					return fErr
				}
				writer = fileWriter
			}

			var n int
			err = a.withState(cmd.Context(), func(rs *state.RunState) (bool, error) {
				var exportErr error
				n, exportErr = output.Export(writer, rs, kinds...)
				return false, exportErr
			})
			if closeErr := writer.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return err
			}

			if outputFile != "" {
				fmt.Fprintf(a.stderr, "Exported %d records to %s\n", n, outputFile)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outputFile, "output", "", "Output file path (default: stdout)")
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "Record kinds to export: item, link, problem (default: all)")
	return cmd
}
