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

package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	harvesterrors "github.com/sirseerhq/sirseer-harvest/internal/errors"
)

func sampleState() *RunState {
	rs := New()
	rs.LastFetchAt = 1700000000
	rs.AddItems([]string{"m1", "m2"})
	rs.SetSubject("m1", "Daily Coding Problem: Problem #42 [Hard]")
	rs.AddLinks([]string{"https://dailycodingproblem.com/solution/42?token=abc"})
	rs.AddProblem(42, Hard)
	return rs
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	stateFile := filepath.Join(t.TempDir(), "nested", "run_state.json")
	store := NewFileStore(stateFile)

	if err := store.Save(ctx, sampleState()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(stateFile); err != nil {
		t.Fatalf("State file not created: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.LastFetchAt != 1700000000 {
		t.Errorf("LastFetchAt mismatch: got %d, want %d", loaded.LastFetchAt, 1700000000)
	}
	if subject, ok := loaded.Items["m1"].Get(); !ok || subject != "Daily Coding Problem: Problem #42 [Hard]" {
		t.Errorf("Items[m1] = %q, %v", subject, ok)
	}
	if loaded.Items["m2"].IsSet() {
		t.Error("Items[m2] should be absent")
	}
	if _, ok := loaded.Items["m2"]; !ok {
		t.Error("Items[m2] key should survive a round trip")
	}
	if loaded.Problems[42] != Hard {
		t.Errorf("Problems[42] = %q, want Hard", loaded.Problems[42])
	}
	if loaded.Version != CurrentVersion {
		t.Errorf("Version mismatch: got %d, want %d", loaded.Version, CurrentVersion)
	}
	if loaded.Checksum == "" {
		t.Error("Checksum should not be empty")
	}
}

func TestFileStore_LoadMissingFileIsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nonexistent.json"))

	rs, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load should not fail for a missing file: %v", err)
	}
	if len(rs.Items) != 0 || len(rs.Links) != 0 || len(rs.Problems) != 0 || rs.LastFetchAt != 0 {
		t.Errorf("expected empty state, got %+v", rs)
	}
}

func TestFileStore_LoadCorruptedJSON(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "corrupted.json")
	if err := os.WriteFile(stateFile, []byte("{ invalid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewFileStore(stateFile).Load(context.Background())
	if err == nil {
		t.Fatal("Load should fail for corrupted JSON")
	}
	if !strings.Contains(err.Error(), "corrupted (invalid JSON)") {
		t.Errorf("Unexpected error message: %v", err)
	}
	if !errors.Is(err, harvesterrors.ErrStateCorrupted) {
		t.Errorf("expected ErrStateCorrupted, got %v", err)
	}
}

func TestFileStore_LoadChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	stateFile := filepath.Join(t.TempDir(), "tampered.json")
	store := NewFileStore(stateFile)

	rs := New()
	rs.LastFetchAt = 100
	if err := store.Save(ctx, rs); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(stateFile)
	if err != nil {
		t.Fatal(err)
	}

	// Tamper with the content by changing a field
	tamperedData := strings.Replace(string(data), `"last_fetch_at":100`, `"last_fetch_at":200`, 1)
	if tamperedData == string(data) {
		t.Fatal("tampering did not change the state file")
	}
	if err := os.WriteFile(stateFile, []byte(tamperedData), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = store.Load(ctx)
	if err == nil {
		t.Fatal("Load should fail for tampered state")
	}
	if !strings.Contains(err.Error(), "checksum mismatch") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestDecode_VersionMismatch(t *testing.T) {
	_, err := Decode([]byte(`{"version":0,"checksum":"","last_fetch_at":0,"items":{},"links":{},"problems":{}}`))
	if err == nil {
		t.Fatal("Decode should fail for version mismatch")
	}
	if !strings.Contains(err.Error(), "incompatible with current version") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestEncode_AbsentValuesAreNull(t *testing.T) {
	rs := New()
	rs.AddItems([]string{"m1"})
	rs.AddLinks([]string{"https://example.com/solution?token=t"})

	data, err := Encode(rs)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"items":{"m1":null}`) {
		t.Errorf("absent subject should encode as null: %s", data)
	}
	if !strings.Contains(string(data), `"links":{"https://example.com/solution?token=t":null}`) {
		t.Errorf("absent resolution should encode as null: %s", data)
	}
}

func TestAtomicWrite(t *testing.T) {
	ctx := context.Background()
	stateFile := filepath.Join(t.TempDir(), "atomic.json")
	store := NewFileStore(stateFile)

	if err := store.Save(ctx, sampleState()); err != nil {
		t.Fatal(err)
	}

	initialData, err := os.ReadFile(stateFile)
	if err != nil {
		t.Fatal(err)
	}

	// Simulate a partial write by creating temp file
	tempFile := stateFile + ".tmp"
	if err := os.WriteFile(tempFile, []byte("partial write"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Verify original file is still intact
	currentData, err := os.ReadFile(stateFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(currentData) != string(initialData) {
		t.Error("Original state file was modified during partial write")
	}

	// A subsequent save replaces the stale temp file
	if err := store.Save(ctx, sampleState()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(tempFile); !os.IsNotExist(err) {
		t.Error("temp file should be renamed away after save")
	}
}
