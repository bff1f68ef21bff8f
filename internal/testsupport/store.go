package testsupport

import (
	"testing"

	"animebot/internal/config"
	"animebot/internal/snapshot"
)

// MustOpenSnapshotStore opens the config's snapshot store and registers cleanup.
func MustOpenSnapshotStore(t testing.TB, cfg *config.Config) *snapshot.Store {
	t.Helper()

	store, err := snapshot.Open(cfg.SnapshotPath())
	if err != nil {
		t.Fatalf("snapshot.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
