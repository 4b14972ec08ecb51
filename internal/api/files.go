package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/imroc/req/v3"
)

const (
	pathFiles     = "/open/ufile/files"
	pathSearch    = "/open/ufile/search"
	pathCopy      = "/open/ufile/copy"
	pathMove      = "/open/ufile/move"
	pathDownURL   = "/open/ufile/downurl"
	pathUpdate    = "/open/ufile/update"
	pathDelete    = "/open/ufile/delete"
	pathFolderAdd = "/open/folder/add"
	pathInfo      = "/open/folder/get_info"
)

// FilesAPI covers the file and folder endpoints of the 115 open API.
type FilesAPI struct {
	client *req.Client
}

// List fetches a single listing page for a folder.
func (f *FilesAPI) List(ctx context.Context, params *ListParams) (*ListResponse, error) {
	limit := params.Limit
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	query := map[string]string{
		"cid":    strconv.FormatInt(params.CID, 10),
		"limit":  strconv.Itoa(limit),
		"offset": strconv.Itoa(params.Offset),
	}
	if params.ShowDir {
		query["show_dir"] = "1"
	}
	if params.Suffix != "" {
		query["suffix"] = params.Suffix
	}
	if params.Order != "" {
		query["o"] = params.Order
		if params.Asc {
			query["asc"] = "1"
		} else {
			query["asc"] = "0"
		}
	}

	var body ListResponse
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetSuccessResult(&body).
		Get(pathFiles)

	if err := checkAPIResponse(resp, err, "files list", &body); err != nil {
		return nil, err
	}

	return &body, nil
}

// ListAll pages through the complete contents of a folder. It stops when the
// accumulated entries reach the server-reported count or a page comes back
// short.
func (f *FilesAPI) ListAll(ctx context.Context, cid int64, showDir bool) ([]*FileEntry, error) {
	var all []*FileEntry
	offset := 0

	for {
		page, err := f.List(ctx, &ListParams{
			CID:     cid,
			Limit:   MaxPageSize,
			Offset:  offset,
			ShowDir: showDir,
		})
		if err != nil {
			return nil, err
		}
		if len(page.Data) == 0 {
			break
		}

		all = append(all, page.Data...)
		if len(all) >= page.Count || len(page.Data) < MaxPageSize {
			break
		}
		offset += len(page.Data)
	}

	return all, nil
}

// AddFolder creates a folder under pid and returns the new folder id.
func (f *FilesAPI) AddFolder(ctx context.Context, pid int64, name string) (int64, error) {
	if pid < 0 {
		return 0, fmt.Errorf("invalid parent folder id %d", pid)
	}
	if name == "" {
		return 0, fmt.Errorf("folder name cannot be empty")
	}

	var body addFolderResponse
	resp, err := f.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"pid":       strconv.FormatInt(pid, 10),
			"file_name": name,
		}).
		SetSuccessResult(&body).
		Post(pathFolderAdd)

	if err := checkAPIResponse(resp, err, "folder add", &body); err != nil {
		return 0, err
	}

	if body.Data.FileID == 0 {
		return 0, fmt.Errorf("folder add: no folder id in response")
	}

	return int64(body.Data.FileID), nil
}

// InfoByID fetches the detail record for a file or folder id.
// The root folder has no detail record.
func (f *FilesAPI) InfoByID(ctx context.Context, fileID int64) (*EntryInfo, error) {
	if fileID == RootFolderID {
		return nil, ErrRootInfo
	}
	return f.info(ctx, map[string]string{"file_id": strconv.FormatInt(fileID, 10)})
}

// InfoByPath fetches the detail record for a remote absolute path.
func (f *FilesAPI) InfoByPath(ctx context.Context, remotePath string) (*EntryInfo, error) {
	remotePath = strings.TrimSpace(remotePath)
	if remotePath == "" {
		return nil, fmt.Errorf("remote path cannot be empty")
	}
	if !strings.HasPrefix(remotePath, "/") {
		remotePath = "/" + remotePath
	}
	if remotePath == "/" {
		return nil, ErrRootInfo
	}
	return f.info(ctx, map[string]string{"path": remotePath})
}

func (f *FilesAPI) info(ctx context.Context, query map[string]string) (*EntryInfo, error) {
	var body entryInfoResponse
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetSuccessResult(&body).
		Get(pathInfo)

	if err := checkAPIResponse(resp, err, "folder info", &body); err != nil {
		return nil, err
	}

	return &body.Data, nil
}

// Search queries files by keyword.
func (f *FilesAPI) Search(ctx context.Context, params *SearchParams) (*SearchResponse, error) {
	if params.Keyword == "" {
		return nil, fmt.Errorf("search keyword cannot be empty")
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	query := map[string]string{
		"search_value": params.Keyword,
		"limit":        strconv.Itoa(limit),
		"offset":       strconv.Itoa(params.Offset),
	}
	if params.CID != 0 {
		query["cid"] = strconv.FormatInt(params.CID, 10)
	}

	var body SearchResponse
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetSuccessResult(&body).
		Get(pathSearch)

	if err := checkAPIResponse(resp, err, "files search", &body); err != nil {
		return nil, err
	}

	return &body, nil
}

// Copy copies files into the folder pid.
func (f *FilesAPI) Copy(ctx context.Context, pid int64, fileIDs ...int64) error {
	var body struct{ envelope }
	resp, err := f.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"pid":     strconv.FormatInt(pid, 10),
			"file_id": joinIDs(fileIDs),
		}).
		SetSuccessResult(&body).
		Post(pathCopy)

	return checkAPIResponse(resp, err, "files copy", &body)
}

// Move moves files into the folder toCID.
func (f *FilesAPI) Move(ctx context.Context, toCID int64, fileIDs ...int64) error {
	var body struct{ envelope }
	resp, err := f.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"to_cid":   strconv.FormatInt(toCID, 10),
			"file_ids": joinIDs(fileIDs),
		}).
		SetSuccessResult(&body).
		Post(pathMove)

	return checkAPIResponse(resp, err, "files move", &body)
}

// Rename changes the display name of a file or folder.
func (f *FilesAPI) Rename(ctx context.Context, fileID int64, newName string) error {
	var body struct{ envelope }
	resp, err := f.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"file_id":   strconv.FormatInt(fileID, 10),
			"file_name": newName,
		}).
		SetSuccessResult(&body).
		Post(pathUpdate)

	return checkAPIResponse(resp, err, "files rename", &body)
}

// Delete moves files to the recycle bin.
func (f *FilesAPI) Delete(ctx context.Context, fileIDs ...int64) error {
	var body struct{ envelope }
	resp, err := f.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"file_ids": joinIDs(fileIDs),
		}).
		SetSuccessResult(&body).
		Post(pathDelete)

	return checkAPIResponse(resp, err, "files delete", &body)
}

// DownloadURL resolves a pick code into a direct download target.
func (f *FilesAPI) DownloadURL(ctx context.Context, pickCode string) (*DownloadTarget, error) {
	if pickCode == "" {
		return nil, ErrEmptyPickCode
	}

	var body downloadURLResponse
	resp, err := f.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"pick_code": pickCode}).
		SetSuccessResult(&body).
		Post(pathDownURL)

	if err := checkAPIResponse(resp, err, "files downurl", &body); err != nil {
		return nil, err
	}

	// data is keyed by file id and holds exactly one record
	for _, target := range body.Data {
		if target != nil && target.URL.URL != "" {
			return target, nil
		}
	}

	return nil, ErrNoDownloadURL
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
