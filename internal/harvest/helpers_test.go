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

package harvest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sirseerhq/sirseer-harvest/internal/artifact"
	"github.com/sirseerhq/sirseer-harvest/internal/mailbox"
	"github.com/sirseerhq/sirseer-harvest/internal/ratelimit"
	"github.com/sirseerhq/sirseer-harvest/internal/solution"
	"github.com/sirseerhq/sirseer-harvest/internal/state"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// solutionAPI serves content API responses keyed by token.
type solutionAPI struct {
	responses map[string]any
	calls     []string
	calledAt  []time.Time
}

func (a *solutionAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	a.calls = append(a.calls, token)
	a.calledAt = append(a.calledAt, time.Now())

	resp, ok := a.responses[token]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if raw, ok := resp.(string); ok {
		_, _ = w.Write([]byte(raw))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func newSolutionClient(t *testing.T, api *solutionAPI) *solution.Client {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	return solution.NewClient(solution.Options{
		Scheme:  "http",
		APIHost: strings.TrimPrefix(server.URL, "http://"),
		Timeout: 5 * time.Second,
	}, discardLogger())
}

type fixture struct {
	store       *state.FileStore
	mailbox     *mailbox.MockMailbox
	api         *solutionAPI
	artifactDir string
	pipeline    *Pipeline
}

func newFixture(t *testing.T, opts Options, mb *mailbox.MockMailbox) *fixture {
	t.Helper()
	dir := t.TempDir()

	f := &fixture{
		store:       state.NewFileStore(filepath.Join(dir, "state", "run_state.json")),
		mailbox:     mb,
		api:         &solutionAPI{responses: make(map[string]any)},
		artifactDir: filepath.Join(dir, "solutions"),
	}

	logger := discardLogger()
	walker := NewWalker(mb, 0, 0, logger)
	processor := NewProcessor(mb, ratelimit.Unlimited(), ProcessorOptions{MaxFailures: opts.MaxFailures}, logger)
	downloader := NewDownloader(newSolutionClient(t, f.api), artifact.NewWriter(f.artifactDir), ratelimit.Unlimited(), logger)
	f.pipeline = NewPipeline(f.store, walker, processor, downloader, opts, logger)
	return f
}

func (f *fixture) seed(t *testing.T, rs *state.RunState) {
	t.Helper()
	require.NoError(t, f.store.Save(context.Background(), rs))
}

func (f *fixture) load(t *testing.T) *state.RunState {
	t.Helper()
	rs, err := f.store.Load(context.Background())
	require.NoError(t, err)
	return rs
}

// timedMailbox records when each message content was fetched.
type timedMailbox struct {
	mailbox.Mailbox
	fetchedAt []time.Time
}

func (m *timedMailbox) GetContent(ctx context.Context, id string) (*mailbox.Message, error) {
	m.fetchedAt = append(m.fetchedAt, time.Now())
	return m.Mailbox.GetContent(ctx, id)
}

// requireSpaced fails unless consecutive times are at least gap apart.
func requireSpaced(t *testing.T, times []time.Time, gap time.Duration) {
	t.Helper()
	for i := 1; i < len(times); i++ {
		require.GreaterOrEqual(t, times[i].Sub(times[i-1]), gap, "call %d came too early", i)
	}
}
