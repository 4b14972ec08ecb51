package transfer

import (
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/cpan115/pan115/internal/api"
)

// Mirror maps local-relative directory paths (posix style, "" = target root)
// onto remote folder ids for one tree operation. Folder resolution happens in
// a sequential shallow-to-deep pre-pass, so by the time concurrent uploaders
// read the cache it is effectively frozen; the lock keeps stray interleavings
// safe anyway.
type Mirror struct {
	files  *api.FilesAPI
	rootID int64

	mu    sync.Mutex
	cache map[string]int64
}

func NewMirror(files *api.FilesAPI, rootID int64) *Mirror {
	return &Mirror{
		files:  files,
		rootID: rootID,
		cache:  map[string]int64{"": rootID},
	}
}

// EnsureFolder returns the id of the child folder name under parentID,
// creating it remotely if it does not exist. The list-then-create sequence is
// only race-free because the orchestrator serializes the directory pre-pass.
func (m *Mirror) EnsureFolder(ctx context.Context, parentID int64, name string) (int64, error) {
	if parentID < 0 {
		return 0, fmt.Errorf("invalid parent folder id %d", parentID)
	}

	entries, err := m.files.ListAll(ctx, parentID, true)
	if err != nil {
		return 0, fmt.Errorf("ensure folder %q: %w", name, err)
	}

	for _, entry := range entries {
		if entry.IsDir() && entry.Name == name && entry.ParentID.Int64() == parentID {
			return entry.ID.Int64(), nil
		}
	}

	id, err := m.files.AddFolder(ctx, parentID, name)
	if err != nil {
		return 0, fmt.Errorf("ensure folder %q: %w", name, err)
	}
	return id, nil
}

// EnsurePath resolves the relative directory path rel, creating remote
// folders as needed, and caches the mapping. The parent of rel must already
// be cached (the pre-pass orders directories shallow-to-deep).
func (m *Mirror) EnsurePath(ctx context.Context, rel string) (int64, error) {
	if id, ok := m.lookup(rel); ok {
		return id, nil
	}

	parentID := m.Resolve(parentRel(rel))
	id, err := m.EnsureFolder(ctx, parentID, path.Base(rel))
	if err != nil {
		return 0, err
	}

	m.bind(rel, id)
	return id, nil
}

// Resolve returns the cached folder id for rel. A path missing from the
// cache falls back to the nearest resolvable ancestor, ultimately the target
// root; it never blocks or fails.
func (m *Mirror) Resolve(rel string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		if id, ok := m.cache[rel]; ok {
			return id
		}
		if rel == "" {
			return m.rootID
		}
		rel = parentRel(rel)
	}
}

func (m *Mirror) lookup(rel string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.cache[rel]
	return id, ok
}

func (m *Mirror) bind(rel string, id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[rel] = id
}

func parentRel(rel string) string {
	parent := path.Dir(rel)
	if parent == "." || parent == "/" {
		return ""
	}
	return parent
}
