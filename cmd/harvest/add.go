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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-harvest/internal/state"
)

func newAddCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add links or problems the mails did not provide",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "link <url>...",
		Short: "Record solution links as unresolved",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			return a.withState(cmd.Context(), func(rs *state.RunState) (bool, error) {
				added := rs.AddLinks(args)
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d of %d links\n", added, len(args))
				return added > 0, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "problem <id> <difficulty>",
		Short: "Record a problem difficulty (Easy, Medium or Hard)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id < 0 {
				return fmt.Errorf("invalid problem id %q", args[0])
			}
			difficulty, ok := state.ParseDifficulty(args[1])
			if !ok {
				return fmt.Errorf("invalid difficulty %q: want Easy, Medium or Hard", args[1])
			}

			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			return a.withState(cmd.Context(), func(rs *state.RunState) (bool, error) {
				if !rs.AddProblem(id, difficulty) {
					fmt.Fprintf(cmd.OutOrStdout(), "Problem %d already recorded as %s\n", id, rs.Problems[id])
					return false, nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added problem %d as %s\n", id, difficulty)
				return true, nil
			})
		},
	})

	return cmd
}
