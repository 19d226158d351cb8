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
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sirseerhq/sirseer-harvest/internal/harvest"
	"github.com/sirseerhq/sirseer-harvest/internal/mailbox"
	"github.com/sirseerhq/sirseer-harvest/internal/metadata"
)

const (
	stageRun      = "run"
	stageDiscover = harvest.StageDiscover
	stageProcess  = harvest.StageProcess
	stageResolve  = harvest.StageResolve
)

// runOptions holds the flags of the pipeline commands.
type runOptions struct {
	query             string
	batchSize         int
	downloadBatchSize int
	maxFailures       int
	noMetadata        bool
	printMetadata     bool
}

var stageDescriptions = map[string]string{
	stageDiscover: "Search the mailbox and record new message ids",
	stageProcess:  "Fetch unprocessed messages and extract links and problems",
	stageResolve:  "Download unresolved solution links",
}

func newRunCommand(opts *globalOptions) *cobra.Command {
	ro := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run discover, process and resolve in sequence",
		Long: `Run the full harvest: discover new messages, process a batch of them, and
download a batch of solution links. The state is saved after every stage; the
search floor only advances when all three stages succeed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, opts, ro, stageRun)
		},
	}
	addRunFlags(cmd.Flags(), ro)
	return cmd
}

func newStageCommand(opts *globalOptions, stage string) *cobra.Command {
	ro := &runOptions{}
	cmd := &cobra.Command{
		Use:   stage,
		Short: stageDescriptions[stage],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, opts, ro, stage)
		},
	}
	addRunFlags(cmd.Flags(), ro)
	return cmd
}

func addRunFlags(flags *pflag.FlagSet, ro *runOptions) {
	flags.StringVar(&ro.query, "query", "", "Mail search query (overrides config)")
	flags.IntVar(&ro.batchSize, "batch-size", 0, "Messages processed per run (overrides config)")
	flags.IntVar(&ro.downloadBatchSize, "download-batch-size", 0, "Links resolved per run (overrides config)")
	flags.IntVar(&ro.maxFailures, "max-failures", 0, "Structural failures before a message is skipped; 0 retries forever (overrides config)")
	flags.BoolVar(&ro.noMetadata, "no-metadata", false, "Do not write a run metadata file")
	flags.BoolVar(&ro.printMetadata, "print-metadata", false, "Print the run metadata as JSON to stdout")
}

// apply copies the flags that were set explicitly into the configuration.
func (ro *runOptions) apply(flags *pflag.FlagSet, a *app) error {
	if flags.Changed("query") {
		a.cfg.Mail.Query = ro.query
	}
	if flags.Changed("batch-size") {
		a.cfg.Pipeline.BatchSize = ro.batchSize
	}
	if flags.Changed("download-batch-size") {
		a.cfg.Pipeline.DownloadBatchSize = ro.downloadBatchSize
	}
	if flags.Changed("max-failures") {
		a.cfg.Pipeline.MaxStructuralFailures = ro.maxFailures
	}
	return a.cfg.Validate()
}

func runPipeline(cmd *cobra.Command, opts *globalOptions, ro *runOptions, stage string) error {
	a, err := loadApp(cmd, opts)
	if err != nil {
		return err
	}
	if err := ro.apply(cmd.Flags(), a); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	ctx := cmd.Context()

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	var previous *metadata.RunMetadata
	if !ro.noMetadata {
		if previous, err = metadata.LoadLatestMetadata(a.cfg.Paths.MetadataDir); err != nil {
			a.logger.Warn("ignoring unreadable run metadata", "error", err)
			previous = nil
		}
	}

	// Resolving links needs no mail session.
	var mb mailbox.Mailbox
	if stage != stageResolve {
		if mb, err = openMailbox(ctx, a); err != nil {
			return err
		}
	}
	pipeline := a.newPipeline(store, mb)

	tracker := metadata.New()
	md, runErr := runStage(ctx, pipeline, stage, tracker)

	if md != nil && !ro.noMetadata {
		if previous != nil {
			md.PreviousRun = previous.Ref()
		}
		if path, err := metadata.SaveMetadata(md, a.cfg.Paths.MetadataDir); err != nil {
			a.logger.Warn("failed to save run metadata", "error", err)
		} else {
			a.logger.Debug("run metadata saved", "path", path)
		}
	}
	if md != nil {
		printSummary(a.stderr, md)
		if ro.printMetadata {
			if err := metadata.WriteMetadataToWriter(md, cmd.OutOrStdout()); err != nil {
				a.logger.Warn("failed to print run metadata", "error", err)
			}
		}
	}
	return runErr
}

func runStage(ctx context.Context, p *harvest.Pipeline, stage string, tracker *metadata.Tracker) (*metadata.RunMetadata, error) {
	switch stage {
	case stageDiscover:
		return p.Discover(ctx, tracker)
	case stageProcess:
		return p.Process(ctx, tracker)
	case stageResolve:
		return p.Resolve(ctx, tracker)
	default:
		return p.Run(ctx, tracker)
	}
}

func printSummary(w io.Writer, md *metadata.RunMetadata) {
	r := md.Results
	status := "completed"
	if !md.Completed {
		status = "incomplete"
	}
	fmt.Fprintf(w, "Harvest %s in %s\n", status, r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "  discovered %d messages (%d new)\n", r.Discovered, r.ItemsAdded)
	fmt.Fprintf(w, "  processed %d messages: %d links, %d problems added\n", r.Processed, r.LinksAdded, r.ProblemsAdded)
	fmt.Fprintf(w, "  resolved %d links, skipped %d\n", r.Resolved, r.Skipped)
	if r.TransientErrors > 0 || r.StructuralErrors > 0 {
		fmt.Fprintf(w, "  failures: %d transient, %d structural\n", r.TransientErrors, r.StructuralErrors)
	}
}
