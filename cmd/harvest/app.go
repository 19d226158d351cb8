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
	"log/slog"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/sirseerhq/sirseer-harvest/internal/artifact"
	"github.com/sirseerhq/sirseer-harvest/internal/config"
	"github.com/sirseerhq/sirseer-harvest/internal/credential"
	"github.com/sirseerhq/sirseer-harvest/internal/harvest"
	"github.com/sirseerhq/sirseer-harvest/internal/mailbox"
	"github.com/sirseerhq/sirseer-harvest/internal/ratelimit"
	"github.com/sirseerhq/sirseer-harvest/internal/solution"
	"github.com/sirseerhq/sirseer-harvest/internal/state"
)

// app carries the resolved configuration of one command invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	stderr io.Writer
}

// openMailbox creates the mail session. Tests replace it.
var openMailbox = func(ctx context.Context, a *app) (mailbox.Mailbox, error) {
	return a.gmailMailbox(ctx)
}

// loadApp resolves configuration in precedence order and applies the
// persistent flags that were set explicitly.
func loadApp(cmd *cobra.Command, opts *globalOptions) (*app, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = opts.logFormat
	}
	if flags.Changed("state-file") {
		cfg.Paths.StateFile = opts.stateFile
	}
	if flags.Changed("state-backend") {
		cfg.Paths.StateBackend = opts.stateBackend
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: setupLogger(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr()),
		stderr: cmd.ErrOrStderr(),
	}, nil
}

func (a *app) openStore(ctx context.Context) (state.Store, error) {
	switch a.cfg.Paths.StateBackend {
	case config.BackendSQLite:
		return state.OpenSQLite(ctx, a.cfg.Paths.StateFile)
	default:
		return state.NewFileStore(a.cfg.Paths.StateFile), nil
	}
}

func (a *app) tokenStore() (credential.TokenStore, error) {
	creds := a.cfg.Credentials
	if creds.Source == config.SourceKeyring {
		ring, err := credential.OpenKeyring(creds.KeyringService)
		if err != nil {
			return nil, err
		}
		return credential.NewKeyringTokenStore(ring, ""), nil
	}
	return credential.NewFileTokenStore(creds.TokenFile), nil
}

func (a *app) credentialProvider() (*credential.Provider, error) {
	store, err := a.tokenStore()
	if err != nil {
		return nil, err
	}
	creds := a.cfg.Credentials
	return credential.LoadProvider(creds.CredentialsFile, creds.Scopes, store, a.logger)
}

func (a *app) gmailMailbox(ctx context.Context) (mailbox.Mailbox, error) {
	provider, err := a.credentialProvider()
	if err != nil {
		return nil, err
	}
	ts, err := provider.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	gmail, err := mailbox.NewGmailMailbox(ctx, mailbox.GmailOptions{User: a.cfg.Mail.User},
		option.WithTokenSource(ts))
	if err != nil {
		return nil, err
	}

	retry := mailbox.DefaultRetryConfig()
	retry.MaxRetries = a.cfg.Mail.MaxRetries
	return mailbox.NewRetryMailbox(gmail, retry, a.logger), nil
}

func (a *app) newPipeline(store state.Store, mb mailbox.Mailbox) *harvest.Pipeline {
	cfg := a.cfg

	client := solution.NewClient(solution.Options{
		Scheme:     cfg.Solution.Scheme,
		APIHost:    cfg.Solution.APIHost,
		APIPath:    cfg.Solution.APIPath,
		Timeout:    cfg.Solution.Timeout,
		MaxRetries: cfg.Solution.MaxRetries,
	}, a.logger)

	walker := harvest.NewWalker(mb, cfg.Mail.PageSize, cfg.Mail.MaxPages, a.logger)
	processor := harvest.NewProcessor(mb,
		ratelimit.New(cfg.RateLimit.ContentCalls, cfg.RateLimit.Period),
		harvest.ProcessorOptions{
			MimeType:    cfg.Mail.MimeType,
			MaxFailures: cfg.Pipeline.MaxStructuralFailures,
		}, a.logger)
	downloader := harvest.NewDownloader(client,
		artifact.NewWriter(cfg.Paths.SolutionsDir),
		ratelimit.New(cfg.RateLimit.SolutionCalls, cfg.RateLimit.Period),
		a.logger)

	return harvest.NewPipeline(store, walker, processor, downloader, harvest.Options{
		Query:             cfg.Mail.Query,
		BatchSize:         cfg.Pipeline.BatchSize,
		DownloadBatchSize: cfg.Pipeline.DownloadBatchSize,
		MaxFailures:       cfg.Pipeline.MaxStructuralFailures,
		MimeType:          cfg.Mail.MimeType,
	}, a.logger)
}

// withState loads the run-state, calls fn and saves the state if fn
// reports a change.
func (a *app) withState(ctx context.Context, fn func(*state.RunState) (bool, error)) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	rs, err := store.Load(ctx)
	if err != nil {
		return err
	}
	changed, err := fn(rs)
	if err != nil || !changed {
		return err
	}
	return store.Save(ctx, rs)
}
