package snapshot

import (
	"testing"

	"github.com/khanhnv2901/webaudit/internal/model"
	serrors "github.com/khanhnv2901/webaudit/internal/shared/errors"
)

func TestSaveThenLoadRoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "https://audit.example.com/snapshots")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report := &model.Report{URL: "https://example.com", FetchedStatus: 200}
	path, url, err := store.Save(report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://audit.example.com/snapshots/"+path {
		t.Fatalf("unexpected url %q", url)
	}

	got, err := store.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.URL != report.URL {
		t.Fatalf("got %+v", got)
	}
}

func TestLoadByBareID(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path, _, err := store.Save(&model.Report{URL: "https://example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bareID := path[:len(path)-len(".json")]

	got, err := store.Load(bareID)
	if err != nil {
		t.Fatalf("unexpected error loading by bare id: %v", err)
	}
	if got.URL != "https://example.com" {
		t.Fatalf("got %+v", got)
	}
}

func TestLoadMissingReturnsSnapshotMissing(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Load("does-not-exist"); err != serrors.ErrSnapshotMissing {
		t.Fatalf("expected ErrSnapshotMissing, got %v", err)
	}
}

func TestLoadRejectsPathTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Load("../../etc/passwd"); err == nil {
		t.Fatal("expected error for path traversal attempt")
	}
}
