package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/imroc/req/v3"
)

const (
	pathUploadToken  = "/open/upload/get_token"
	pathUploadInit   = "/open/upload/init"
	pathUploadResume = "/open/upload/resume"
)

// UploadAPI covers the upload scheduling endpoints. The actual byte transfer
// goes to the object-storage endpoint named by the token call, not here.
type UploadAPI struct {
	client *req.Client
}

// Token fetches STS credentials for the object-storage endpoint.
func (u *UploadAPI) Token(ctx context.Context) (*UploadToken, error) {
	var body uploadTokenResponse
	resp, err := u.client.R().
		SetContext(ctx).
		SetSuccessResult(&body).
		Get(pathUploadToken)

	if err := checkAPIResponse(resp, err, "upload token", &body); err != nil {
		return nil, err
	}

	return &body.Data, nil
}

// Init runs the upload scheduling handshake for one file. The response
// either completes the upload instantly, demands a second-factor signature,
// or names the object-storage destination for a physical transfer.
func (u *UploadAPI) Init(ctx context.Context, params *InitParams) (*InitData, error) {
	if params.FileName == "" {
		return nil, fmt.Errorf("upload init: file name cannot be empty")
	}
	if params.FileSize <= 0 {
		return nil, fmt.Errorf("upload init: file size must be positive")
	}
	if params.FileID == "" {
		return nil, fmt.Errorf("upload init: file digest cannot be empty")
	}
	// sign_key and sign_val travel together or not at all
	if (params.SignKey == "") != (params.SignVal == "") {
		return nil, fmt.Errorf("upload init: sign_key and sign_val must be provided together")
	}

	form := map[string]string{
		"file_name": params.FileName,
		"file_size": strconv.FormatInt(params.FileSize, 10),
		"target":    uploadTarget(params.Target),
		"fileid":    params.FileID,
	}
	if params.PreID != "" {
		form["preid"] = params.PreID
	}
	if params.PickCode != "" {
		form["pick_code"] = params.PickCode
	}
	if params.SignKey != "" {
		form["sign_key"] = params.SignKey
		form["sign_val"] = params.SignVal
	}

	var body uploadInitResponse
	resp, err := u.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetSuccessResult(&body).
		Post(pathUploadInit)

	if err := checkAPIResponse(resp, err, "upload init", &body); err != nil {
		return nil, err
	}

	return &body.Data.InitData, nil
}

// Resume re-runs the scheduling handshake for an interrupted transfer using
// the pick code issued by the first init.
func (u *UploadAPI) Resume(ctx context.Context, fileSize int64, fileID string, pickCode string, target int64) (*InitData, error) {
	if pickCode == "" {
		return nil, ErrEmptyPickCode
	}

	var body uploadInitResponse
	resp, err := u.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"file_size": strconv.FormatInt(fileSize, 10),
			"target":    uploadTarget(target),
			"fileid":    fileID,
			"pick_code": pickCode,
		}).
		SetSuccessResult(&body).
		Post(pathUploadResume)

	if err := checkAPIResponse(resp, err, "upload resume", &body); err != nil {
		return nil, err
	}

	return &body.Data.InitData, nil
}

// uploadTarget renders a folder id in the scheduling endpoint's
// "U_1_<folder>" convention.
func uploadTarget(folderID int64) string {
	return "U_1_" + strconv.FormatInt(folderID, 10)
}
