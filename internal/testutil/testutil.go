// Package testutil provides shared test helpers for setting up inboxes and
// memory-backed services.
package testutil

import (
	"log/slog"
	"os"
	"testing"

	"github.com/starford/subtaste/internal/genomeservice"
	"github.com/starford/subtaste/internal/genomestore"
	"github.com/starford/subtaste/internal/storage"
)

// QuietLogger logs errors only, to stderr.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestService creates a genome service over an in-memory store.
func TestService(t *testing.T, opts ...genomeservice.Option) *genomeservice.Service {
	t.Helper()
	opts = append([]genomeservice.Option{genomeservice.WithLogger(QuietLogger())}, opts...)
	store := genomestore.NewMemory()
	t.Cleanup(func() { _ = store.Close() })
	return genomeservice.New(store, opts...)
}

// TestInbox creates a temporary inbox directory with a storage.FS.
func TestInbox(t *testing.T) (string, *storage.FS) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store.Root(), store
}
