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

package credential

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	harvesterrors "github.com/sirseerhq/sirseer-harvest/internal/errors"
	"github.com/sirseerhq/sirseer-harvest/internal/fetcherr"
)

// GmailReadOnlyScope is the only scope the harvest needs.
const GmailReadOnlyScope = "https://www.googleapis.com/auth/gmail.readonly"

// Provider turns stored credentials into a token source for the mail
// session.
type Provider struct {
	config *oauth2.Config
	store  TokenStore
	logger *slog.Logger
}

// NewProvider creates a Provider from Google client secrets JSON.
func NewProvider(clientSecrets []byte, scopes []string, store TokenStore, logger *slog.Logger) (*Provider, error) {
	if len(scopes) == 0 {
		scopes = []string{GmailReadOnlyScope}
	}
	config, err := google.ConfigFromJSON(clientSecrets, scopes...)
	if err != nil {
		return nil, sessionError("parse client credentials", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		config: config,
		store:  store,
		logger: logger.With("component", "credential"),
	}, nil
}

// LoadProvider creates a Provider from a client secrets file.
func LoadProvider(credentialsFile string, scopes []string, store TokenStore, logger *slog.Logger) (*Provider, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, sessionError("read client credentials", err)
	}
	return NewProvider(data, scopes, store, logger)
}

// TokenSource returns a token source that refreshes the stored token as
// needed and saves every refreshed token back to the store.
func (p *Provider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := p.store.Load()
	if err != nil {
		return nil, sessionError("load token", err)
	}
	if !tok.Valid() && tok.RefreshToken == "" {
		return nil, sessionError("load token", fmt.Errorf("token expired and has no refresh token"))
	}

	return &savingTokenSource{
		base:   p.config.TokenSource(ctx, tok),
		store:  p.store,
		last:   tok.AccessToken,
		logger: p.logger,
	}, nil
}

// AuthCodeURL returns the consent page URL for an offline token.
func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and stores it.
func (p *Provider) Exchange(ctx context.Context, code string) error {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return sessionError("exchange authorization code", err)
	}
	if err := p.store.Save(tok); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	p.logger.Info("token stored")
	return nil
}

type savingTokenSource struct {
	mu     sync.Mutex
	base   oauth2.TokenSource
	store  TokenStore
	last   string
	logger *slog.Logger
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.base.Token()
	if err != nil {
		return nil, sessionError("refresh token", err)
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.store.Save(tok); err != nil {
			s.logger.Warn("failed to save refreshed token", "error", err)
		} else {
			s.logger.Debug("refreshed token saved", "expiry", tok.Expiry)
		}
	}
	return tok, nil
}

func sessionError(op string, err error) error {
	return fetcherr.Wrap(fetcherr.Fatal, op, fmt.Errorf("%w: %w", harvesterrors.ErrSession, err))
}
