package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/cpan115/pan115/internal/api"
	"github.com/cpan115/pan115/internal/utils"
)

// RemoteFile is one downloadable file discovered while flattening a remote
// folder tree.
type RemoteFile struct {
	ID       int64
	Name     string
	PickCode string
	Size     int64
	// RelPath is the posix-style path relative to the walked root.
	RelPath string
	// LocalPath is the destination on disk, already joined and validated
	// against the local base directory.
	LocalPath string
}

// Walker flattens a remote folder subtree into a list of files to fetch.
// Listing failures inside a subtree do not abort the walk: the subtree is
// skipped and recorded so callers can report an incomplete flatten.
type Walker struct {
	files *api.FilesAPI
}

func NewWalker(files *api.FilesAPI) *Walker {
	return &Walker{files: files}
}

// Walk flattens the remote folder folderID into files destined for localBase.
// omitted lists the relative paths of subtrees whose listing failed. Entries
// whose names would escape localBase are also omitted rather than written
// outside the destination.
func (w *Walker) Walk(ctx context.Context, folderID int64, localBase string) (files []*RemoteFile, omitted []string, err error) {
	if err := w.walk(ctx, folderID, localBase, "", &files, &omitted); err != nil {
		return nil, nil, err
	}
	return files, omitted, nil
}

func (w *Walker) walk(ctx context.Context, folderID int64, localBase, rel string, files *[]*RemoteFile, omitted *[]string) error {
	entries, err := w.files.ListAll(ctx, folderID, true)
	if err != nil {
		if rel == "" {
			// The root listing failing means there is nothing to walk at all.
			return fmt.Errorf("list folder %d: %w", folderID, err)
		}
		slog.Warn("skipping unreadable folder", "path", rel, "error", err)
		*omitted = append(*omitted, rel+"/")
		return nil
	}

	for _, entry := range entries {
		entryRel := path.Join(rel, entry.Name)

		if entry.IsDir() {
			if err := w.walk(ctx, entry.ID.Int64(), localBase, entryRel, files, omitted); err != nil {
				return err
			}
			continue
		}

		local, err := utils.SafeJoin(localBase, rel, entry.Name)
		if err != nil {
			slog.Warn("skipping entry outside destination", "name", entry.Name, "error", err)
			*omitted = append(*omitted, entryRel)
			continue
		}

		*files = append(*files, &RemoteFile{
			ID:        entry.ID.Int64(),
			Name:      entry.Name,
			PickCode:  entry.PickCode,
			Size:      entry.Size.Int64(),
			RelPath:   entryRel,
			LocalPath: local,
		})
	}

	return nil
}
