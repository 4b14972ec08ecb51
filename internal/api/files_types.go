package api

import "bytes"

// File category values used by the listing and info endpoints.
const (
	CategoryFolder = 0
	CategoryFile   = 1
)

// RootFolderID is the id of the remote root directory.
const RootFolderID int64 = 0

// MaxPageSize is the listing page ceiling enforced by the service.
const MaxPageSize = 1150

// FileEntry is one row of a folder listing.
type FileEntry struct {
	ID       Int64String `json:"fid"`
	ParentID Int64String `json:"pid"`
	Name     string      `json:"fn"`
	Category Int64String `json:"fc"` // 0 folder, 1 file
	Size     Int64String `json:"fs"`
	PickCode string      `json:"pc"`
	SHA1     string      `json:"sha1"`
}

func (e *FileEntry) IsDir() bool {
	return int64(e.Category) == CategoryFolder
}

// ListParams are the query parameters for the folder listing endpoint.
type ListParams struct {
	CID     int64  // folder to list
	Limit   int    // page size, capped at MaxPageSize by the service
	Offset  int    // page cursor
	ShowDir bool   // include sub-folders in the listing
	Suffix  string // optional file suffix filter
	Order   string // optional sort field: file_name, file_size, user_utime, file_type
	Asc     bool   // sort ascending
}

type ListResponse struct {
	envelope
	Data  []*FileEntry `json:"data"`
	Count int          `json:"count"`
}

type addFolderResponse struct {
	envelope
	Data struct {
		FileID   Int64String `json:"file_id"`
		FileName string      `json:"file_name"`
	} `json:"data"`
}

// EntryInfo is the detail record for a single file or folder.
type EntryInfo struct {
	FileName     string      `json:"file_name"`
	FileCategory Int64String `json:"file_category"` // 0 folder, 1 file
	PickCode     string      `json:"pick_code"`
	SHA1         string      `json:"sha1"`
	SizeByte     Int64String `json:"size_byte"`
	FileCount    Int64String `json:"count"`
}

func (i *EntryInfo) IsDir() bool {
	return int64(i.FileCategory) == CategoryFolder
}

type entryInfoResponse struct {
	envelope
	Data EntryInfo `json:"data"`
}

// SearchEntry is one row of a search result. The search endpoint uses long
// field names where the listing endpoint uses short ones.
type SearchEntry struct {
	FileID       Int64String `json:"file_id"`
	FileName     string      `json:"file_name"`
	FileCategory Int64String `json:"file_category"`
	FileSize     Int64String `json:"file_size"`
	PickCode     string      `json:"pick_code"`
	SHA1         string      `json:"sha1"`
}

// SearchParams are the query parameters for the search endpoint.
type SearchParams struct {
	Keyword string
	CID     int64
	Limit   int
	Offset  int
}

type SearchResponse struct {
	envelope
	Data  []*SearchEntry `json:"data"`
	Count int            `json:"count"`
}

// DownloadTarget is the per-file record of the downurl endpoint.
type DownloadTarget struct {
	FileName string      `json:"file_name"`
	FileSize Int64String `json:"file_size"`
	PickCode string      `json:"pick_code"`
	URL      struct {
		URL string `json:"url"`
	} `json:"url"`
}

// downloadURLData is keyed by file id. The endpoint returns an empty JSON
// array instead of an object when the pick code resolves to nothing.
type downloadURLData map[string]*DownloadTarget

func (d *downloadURLData) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] == '[' || string(trimmed) == "null" {
		*d = nil
		return nil
	}
	var m map[string]*DownloadTarget
	if err := jsonUnmarshal(data, &m); err != nil {
		return err
	}
	*d = m
	return nil
}

type downloadURLResponse struct {
	envelope
	Data downloadURLData `json:"data"`
}
