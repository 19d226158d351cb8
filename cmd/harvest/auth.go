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
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAuthCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize read-only Gmail access and store the token",
		Long: `Print the Google consent URL, read the authorization code from stdin and
store the resulting token in the configured token file or keyring.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			provider, err := a.credentialProvider()
			if err != nil {
				return err
			}

			nonce := make([]byte, 16)
			if _, err := rand.Read(nonce); err != nil {
				return fmt.Errorf("failed to generate state: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Open this URL in a browser and authorize access:\n\n%s\n\nAuthorization code: ",
				provider.AuthCodeURL(hex.EncodeToString(nonce)))

			code, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			code = strings.TrimSpace(code)
			if code == "" {
				if err != nil {
					return fmt.Errorf("failed to read authorization code: %w", err)
				}
				return fmt.Errorf("no authorization code entered")
			}

			if err := provider.Exchange(cmd.Context(), code); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token stored.")
			return nil
		},
	}
}
