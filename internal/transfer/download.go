package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"sync"

	"github.com/imroc/req/v3"

	"github.com/cpan115/pan115/internal/api"
	"github.com/cpan115/pan115/internal/utils"
)

// Download URLs are minted for browser-like clients; the service rejects
// fetches without a matching referer.
const (
	downloadUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"
	downloadReferer   = "https://115.com/"
)

// Transfer modes for batch downloads.
const (
	ModeConcurrent = "concurrent"
	ModeLoop       = "loop"
)

const defaultDownloadWorkers = 5

// resolveWorkers picks the concurrent-mode pool size: 0 means the default,
// negative requests available parallelism.
func resolveWorkers(n int) int {
	switch {
	case n < 0:
		return max(1, runtime.NumCPU())
	case n == 0:
		return defaultDownloadWorkers
	}
	return n
}

// DownloadOptions controls a download entry point.
type DownloadOptions struct {
	// Dir is the local destination directory.
	Dir string

	// Filename overrides the remote name for single-file downloads.
	Filename string

	// Overwrite replaces existing local files. When false an existing file
	// is left alone and recorded as a skip.
	Overwrite bool

	// Mode is ModeConcurrent (default) or ModeLoop for sequential batches.
	Mode string

	// Workers bounds concurrent-mode fan-out. 0 picks the default of 5;
	// a negative value requests available parallelism (CPU count).
	Workers int

	// CreateFolder nests the batch under a directory named after the remote
	// folder instead of writing into Dir directly.
	CreateFolder bool

	// Progress receives byte progress for single-file downloads.
	Progress Progress

	// OnFileDone receives per-file completions during a batch download.
	OnFileDone BatchProgress
}

// Downloader fetches file content through short-lived signed URLs.
type Downloader struct {
	client *api.Client
	http   *req.Client
}

func NewDownloader(client *api.Client) *Downloader {
	httpc := req.C().
		SetUserAgent(downloadUserAgent).
		SetCommonHeader("Referer", downloadReferer).
		SetTimeout(0).
		DisableAutoReadResponse()

	return &Downloader{client: client, http: httpc}
}

// Download resolves target and dispatches. A numeric target is a file or
// folder id; anything else is a remote path, which must name a file.
func (d *Downloader) Download(ctx context.Context, target string, opts *DownloadOptions) (*Outcome, error) {
	if opts == nil {
		opts = &DownloadOptions{}
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}

	if id, err := strconv.ParseInt(target, 10, 64); err == nil {
		info, err := d.client.Files.InfoByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			batch, err := d.DownloadTree(ctx, id, info.FileName, opts)
			if err != nil {
				return nil, err
			}
			return &Outcome{Batch: batch}, nil
		}
		return d.downloadSingle(ctx, info, opts)
	}

	info, err := d.client.Files.InfoByPath(ctx, target)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a folder; use its numeric id to download a folder", target)
	}
	return d.downloadSingle(ctx, info, opts)
}

func (d *Downloader) downloadSingle(ctx context.Context, info *api.EntryInfo, opts *DownloadOptions) (*Outcome, error) {
	name := opts.Filename
	if name == "" {
		name = info.FileName
	}

	dest, err := utils.SafeJoin(opts.Dir, name)
	if err != nil {
		return nil, err
	}

	res := d.DownloadFile(ctx, info.PickCode, dest, opts.Overwrite, opts.Progress)
	res.Name = name
	return &Outcome{File: res}, nil
}

// DownloadFile fetches one file by pick code into destPath. Failures land in
// the result, never as an error, so batches treat every file uniformly. A
// partially written file is removed on failure.
func (d *Downloader) DownloadFile(ctx context.Context, pickCode, destPath string, overwrite bool, progress Progress) *Result {
	res := &Result{DestPath: destPath}

	if !overwrite && utils.FileExists(destPath) {
		res.Skipped = true
		res.Message = "exists locally, skipped"
		return res
	}

	target, err := d.client.Files.DownloadURL(ctx, pickCode)
	if err != nil {
		res.Message = err.Error()
		return res
	}
	res.Name = target.FileName
	res.Size = target.FileSize.Int64()
	res.PickCode = pickCode

	if err := d.streamTo(ctx, target.URL.URL, destPath, res.Size, progress); err != nil {
		res.Message = err.Error()
		return res
	}

	res.Success = true
	res.Message = "downloaded"
	return res
}

// streamTo copies the response body to destPath in small chunks. Any failure
// after the file is created deletes the partial write.
func (d *Downloader) streamTo(ctx context.Context, url, destPath string, size int64, progress Progress) error {
	if url == "" {
		return api.ErrNoDownloadURL
	}

	resp, err := d.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.IsErrorState() {
		return fmt.Errorf("fetch: unexpected status %s", resp.Status)
	}

	if err := utils.EnsureParent(destPath); err != nil {
		return err
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}

	body := &progressReader{
		reader:    resp.Body,
		totalSize: size,
		callback:  progress,
	}

	buf := make([]byte, 8*1024)
	_, copyErr := io.CopyBuffer(f, body, buf)
	closeErr := f.Close()

	if copyErr != nil || closeErr != nil {
		os.Remove(destPath)
		if copyErr != nil {
			return fmt.Errorf("stream to %s: %w", destPath, copyErr)
		}
		return fmt.Errorf("stream to %s: %w", destPath, closeErr)
	}

	return nil
}

// DownloadTree flattens the remote folder and fetches every file, either
// through a bounded worker pool or sequentially in loop mode. Both modes
// produce the same aggregate result shape.
func (d *Downloader) DownloadTree(ctx context.Context, folderID int64, folderName string, opts *DownloadOptions) (*BatchResult, error) {
	base, err := utils.ResolvePath(opts.Dir)
	if err != nil {
		return nil, err
	}
	if opts.CreateFolder {
		safe, err := utils.SafeJoin(base, folderName)
		if err != nil {
			return nil, err
		}
		base = safe
	}
	if err := utils.EnsureDir(base); err != nil {
		return nil, err
	}

	files, omitted, err := NewWalker(d.client.Files).Walk(ctx, folderID, base)
	if err != nil {
		return nil, err
	}

	sink := newResultSink(len(files), opts.OnFileDone)

	fetch := func(rf *RemoteFile) {
		select {
		case <-ctx.Done():
			sink.add(&Result{Name: rf.Name, RelPath: rf.RelPath, DestPath: rf.LocalPath, Message: ctx.Err().Error()})
			return
		default:
		}

		res := d.DownloadFile(ctx, rf.PickCode, rf.LocalPath, opts.Overwrite, nil)
		res.Name = rf.Name
		res.RelPath = rf.RelPath
		if !res.Success {
			slog.Warn("download failed", "file", rf.RelPath, "error", res.Message)
		}
		sink.add(res)
	}

	if opts.Mode == ModeLoop {
		for _, rf := range files {
			fetch(rf)
		}
	} else {
		workers := resolveWorkers(opts.Workers)

		jobs := make(chan *RemoteFile, len(files))
		var wg sync.WaitGroup
		wg.Add(workers)
		for range workers {
			go func() {
				defer wg.Done()
				for rf := range jobs {
					fetch(rf)
				}
			}()
		}
		for _, rf := range files {
			jobs <- rf
		}
		close(jobs)
		wg.Wait()
	}

	batch := &BatchResult{
		FolderID:   folderID,
		FolderName: folderName,
		Root:       base,
		Omitted:    omitted,
	}
	sink.collect(batch)

	slog.Info("download tree done", "folder", folderName, "total", batch.TotalFiles, "succeeded", batch.Succeeded, "failed", batch.Failed, "omitted", len(omitted))
	return batch, nil
}
