package transfer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/cpan115/pan115/internal/api"
	"github.com/cpan115/pan115/internal/utils"
)

// UploadOptions controls a tree or single-file upload.
type UploadOptions struct {
	// TargetID is the remote destination folder, 0 for the root.
	TargetID int64

	// CreateFolder mirrors the local root directory itself as a new remote
	// folder under TargetID before uploading its contents.
	CreateFolder bool

	// Workers bounds the file fan-out. <= 0 picks max(1, NumCPU-1).
	Workers int

	// Progress receives byte progress for single-file uploads.
	Progress Progress

	// OnFileDone receives per-file completions during a tree upload.
	OnFileDone BatchProgress
}

// Outcome is the auto-dispatched result of an upload or download entry
// point: exactly one of File or Batch is set.
type Outcome struct {
	File  *Result
	Batch *BatchResult
}

// Uploader mirrors local trees onto the remote namespace and pushes file
// content through the instant-upload handshake.
type Uploader struct {
	client  *api.Client
	objects ObjectPutter
	neg     *Negotiator
}

func NewUploader(client *api.Client, objects ObjectPutter) *Uploader {
	return &Uploader{
		client:  client,
		objects: objects,
		neg:     NewNegotiator(client.Upload),
	}
}

// Upload dispatches on the path type: files produce a single Result, and
// directories a BatchResult.
func (u *Uploader) Upload(ctx context.Context, localPath string, opts *UploadOptions) (*Outcome, error) {
	if opts == nil {
		opts = &UploadOptions{}
	}

	abs, err := utils.ResolvePath(localPath)
	if err != nil {
		return nil, err
	}

	switch {
	case utils.DirExists(abs):
		batch, err := u.UploadTree(ctx, abs, opts)
		if err != nil {
			return nil, err
		}
		return &Outcome{Batch: batch}, nil
	case utils.FileExists(abs):
		return &Outcome{File: u.UploadFile(ctx, abs, opts.TargetID, opts.Progress)}, nil
	default:
		return nil, fmt.Errorf("path does not exist: %s", localPath)
	}
}

// UploadFile uploads one local file into the remote folder targetID. All
// failures are folded into the result; the batch machinery treats them
// uniformly.
func (u *Uploader) UploadFile(ctx context.Context, localPath string, targetID int64, progress Progress) *Result {
	name := filepath.Base(localPath)

	digest, err := HashFile(localPath)
	if err != nil {
		return uploadFailure(name, 0, err)
	}

	neg, err := u.neg.Negotiate(ctx, localPath, digest, targetID)
	if err != nil {
		return uploadFailure(name, digest.Size, err)
	}

	if neg.State == StateInstantComplete {
		slog.Debug("upload", "file", name, "size", digest.Size, "instant", true)
		return &Result{
			Success:  true,
			PickCode: neg.Init.PickCode,
			Name:     name,
			Size:     digest.Size,
			Message:  "instant upload",
		}
	}

	token, err := u.client.Upload.Token(ctx)
	if err != nil {
		return uploadFailure(name, digest.Size, err)
	}

	if err := u.objects.Put(ctx, token, neg.Init, localPath, progress); err != nil {
		return uploadFailure(name, digest.Size, err)
	}

	slog.Debug("upload", "file", name, "size", digest.Size, "instant", false)
	return &Result{
		Success:  true,
		PickCode: neg.Init.PickCode,
		Name:     name,
		Size:     digest.Size,
		Message:  "uploaded",
	}
}

// UploadTree mirrors the directory structure under root onto the remote
// target, then fans the files out across a bounded worker pool. Directory
// creation failures abort the batch: files could not be addressed correctly
// without their parents. File failures never abort remaining work.
func (u *Uploader) UploadTree(ctx context.Context, root string, opts *UploadOptions) (*BatchResult, error) {
	if !utils.DirExists(root) {
		return nil, fmt.Errorf("not a directory: %s", root)
	}

	rootName := filepath.Base(root)
	targetID := opts.TargetID

	mirror := NewMirror(u.client.Files, targetID)
	if opts.CreateFolder {
		id, err := mirror.EnsureFolder(ctx, targetID, rootName)
		if err != nil {
			return nil, fmt.Errorf("create root folder %q: %w", rootName, err)
		}
		targetID = id
		mirror = NewMirror(u.client.Files, targetID)
	}

	dirs, files, err := enumerateTree(root)
	if err != nil {
		return nil, err
	}

	// Folder pre-pass: sequential, shallow-to-deep, so every child can find
	// its parent id in the cache and list-then-create never races.
	for _, rel := range dirs {
		if _, err := mirror.EnsurePath(ctx, rel); err != nil {
			return nil, fmt.Errorf("directory pre-pass: %w", err)
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = max(1, runtime.NumCPU()-1)
	}

	sink := newResultSink(len(files), opts.OnFileDone)
	jobs := make(chan string, len(files))

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for rel := range jobs {
				select {
				case <-ctx.Done():
					sink.add(uploadFailure(path.Base(rel), 0, ctx.Err()))
					continue
				default:
				}

				folderID := mirror.Resolve(parentRel(rel))
				res := u.UploadFile(ctx, filepath.Join(root, filepath.FromSlash(rel)), folderID, nil)
				res.RelPath = rel
				if !res.Success {
					slog.Warn("upload failed", "file", rel, "error", res.Message)
				}
				sink.add(res)
			}
		}()
	}

	for _, rel := range files {
		jobs <- rel
	}
	close(jobs)
	wg.Wait()

	batch := &BatchResult{
		FolderID:   targetID,
		FolderName: rootName,
		Root:       root,
	}
	sink.collect(batch)

	slog.Info("upload tree done", "folder", rootName, "total", batch.TotalFiles, "succeeded", batch.Succeeded, "failed", batch.Failed)
	return batch, nil
}

// enumerateTree walks root once and partitions it into directory and file
// paths relative to root (posix style). Directories come back sorted by
// depth ascending for the pre-pass.
func enumerateTree(root string) (dirs, files []string, err error) {
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			dirs = append(dirs, rel)
		} else if d.Type().IsRegular() {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("enumerate %s: %w", root, err)
	}

	sort.SliceStable(dirs, func(i, j int) bool {
		di, dj := strings.Count(dirs[i], "/"), strings.Count(dirs[j], "/")
		if di != dj {
			return di < dj
		}
		return dirs[i] < dirs[j]
	})

	return dirs, files, nil
}

func uploadFailure(name string, size int64, err error) *Result {
	return &Result{
		Name:    name,
		Size:    size,
		Message: err.Error(),
	}
}
