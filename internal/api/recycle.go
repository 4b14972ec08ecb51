package api

import (
	"context"
	"strconv"

	"github.com/imroc/req/v3"
)

const (
	pathRecycleList   = "/open/rb/list"
	pathRecycleRevert = "/open/rb/revert"
	pathRecycleDelete = "/open/rb/del"
)

// RecycleAPI covers the recycle-bin endpoints.
type RecycleAPI struct {
	client *req.Client
}

// RecycleEntry is one row of the recycle-bin listing.
type RecycleEntry struct {
	ID       Int64String `json:"id"`
	FileName string      `json:"file_name"`
	FileSize Int64String `json:"file_size"`
	DeleteAt Int64String `json:"dtime"`
}

type RecycleListResponse struct {
	envelope
	Data  []*RecycleEntry `json:"data"`
	Count int             `json:"count"`
}

// List pages the recycle bin. The service caps limit at 200.
func (r *RecycleAPI) List(ctx context.Context, limit, offset int) (*RecycleListResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 30
	}

	var body RecycleListResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"limit":  strconv.Itoa(limit),
			"offset": strconv.Itoa(offset),
		}).
		SetSuccessResult(&body).
		Get(pathRecycleList)

	if err := checkAPIResponse(resp, err, "recycle list", &body); err != nil {
		return nil, err
	}

	return &body, nil
}

// Revert restores entries from the recycle bin.
func (r *RecycleAPI) Revert(ctx context.Context, ids ...int64) error {
	var body struct{ envelope }
	resp, err := r.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"tid": joinIDs(ids)}).
		SetSuccessResult(&body).
		Post(pathRecycleRevert)

	return checkAPIResponse(resp, err, "recycle revert", &body)
}

// Purge permanently deletes entries; with no ids it empties the bin.
func (r *RecycleAPI) Purge(ctx context.Context, ids ...int64) error {
	form := map[string]string{}
	if len(ids) > 0 {
		form["tid"] = joinIDs(ids)
	}

	var body struct{ envelope }
	resp, err := r.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetSuccessResult(&body).
		Post(pathRecycleDelete)

	return checkAPIResponse(resp, err, "recycle purge", &body)
}
