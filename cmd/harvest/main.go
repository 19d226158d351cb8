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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	harvesterrors "github.com/sirseerhq/sirseer-harvest/internal/errors"
	"github.com/sirseerhq/sirseer-harvest/pkg/version"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath   string
	logLevel     string
	logFormat    string
	stateFile    string
	stateBackend string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(mapErrorToExitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "sirseer-harvest",
		Short: "Harvest Daily Coding Problem solutions from Gmail",
		Long: `SirSeer Harvest incrementally collects Daily Coding Problem mails,
extracts their solution links and difficulty, and downloads each solution as
Markdown. Runs are safe to repeat; progress is kept in a run-state file.`,
		Version:       version.Version,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // We'll handle error printing ourselves
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file path (default: .sirseer-harvest.yaml or ~/.sirseer/harvest.yaml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: text or json")
	flags.StringVar(&opts.stateFile, "state-file", "", "Run-state file path")
	flags.StringVar(&opts.stateBackend, "state-backend", "", "Run-state backend: file or sqlite")

	rootCmd.AddCommand(
		newRunCommand(opts),
		newStageCommand(opts, stageDiscover),
		newStageCommand(opts, stageProcess),
		newStageCommand(opts, stageResolve),
		newCheckCommand(opts),
		newExportCommand(opts),
		newAddCommand(opts),
		newAuthCommand(opts),
	)
	return rootCmd
}

// setupLogger creates the process logger. Logs go to w so stdout stays
// free for command output.
func setupLogger(level, format string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, harvesterrors.ErrSession) {
		return 2 // Mail session errors
	}

	if errors.Is(err, harvesterrors.ErrNetworkFailure) ||
		errors.Is(err, harvesterrors.ErrRateLimit) {
		return 3 // Network errors
	}

	if errors.Is(err, harvesterrors.ErrStateIO) ||
		errors.Is(err, harvesterrors.ErrStateCorrupted) {
		return 4 // Run-state errors
	}

	return 1 // General error
}
