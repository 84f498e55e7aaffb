// Package snapshot persists a Report as a shareable blob and loads it back
// by id. The only implementation here is a local-disk store; the interface
// is small enough that a future object-storage backend is a drop-in.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/khanhnv2901/webaudit/internal/model"
	"github.com/khanhnv2901/webaudit/internal/security"
	consts "github.com/khanhnv2901/webaudit/internal/shared/constants"
	serrors "github.com/khanhnv2901/webaudit/internal/shared/errors"
)

// Store saves and loads shareable report snapshots.
type Store interface {
	// Save writes payload and returns its storage-relative path plus the
	// absolute URL a client should be given to fetch it back.
	Save(payload *model.Report) (path string, absoluteURL string, err error)
	// Load fetches a previously saved report by its path or bare id.
	Load(pathOrID string) (*model.Report, error)
}

// DiskStore stores one JSON file per snapshot under a base directory,
// guarded against path traversal via security.ResolveWithin.
type DiskStore struct {
	baseDir string
	baseURL string
}

// NewDiskStore returns a DiskStore rooted at dir, creating it if needed.
// baseURL is prefixed to the returned path to build ShareBlobURL, e.g.
// "https://audit.example.com/snapshots".
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, consts.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &DiskStore{baseDir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save writes payload to <id>.json under the store's base directory.
func (s *DiskStore) Save(payload *model.Report) (string, string, error) {
	id := uuid.NewString()
	filename := id + ".json"

	target, err := security.ResolveWithin(s.baseDir, filename)
	if err != nil {
		return "", "", fmt.Errorf("resolve snapshot path: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(target, data, consts.DefaultFilePerm); err != nil {
		return "", "", fmt.Errorf("write snapshot: %w", err)
	}

	relPath := filename
	url := relPath
	if s.baseURL != "" {
		url = s.baseURL + "/" + relPath
	}
	return relPath, url, nil
}

// Load reads a snapshot by its stored path, or by a bare legacy id (tried
// first as "<id>.json", then as "<id>" verbatim).
func (s *DiskStore) Load(pathOrID string) (*model.Report, error) {
	candidates := []string{pathOrID}
	if !strings.HasSuffix(pathOrID, ".json") {
		candidates = []string{pathOrID + ".json", pathOrID}
	}

	for _, c := range candidates {
		target, err := security.ResolveWithin(s.baseDir, c)
		if err != nil {
			continue
		}
		data, err := os.ReadFile(target)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		var report model.Report
		if err := json.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot: %w", err)
		}
		return &report, nil
	}
	return nil, serrors.ErrSnapshotMissing
}
