package api

import (
	"context"

	"github.com/imroc/req/v3"
)

const pathUserInfo = "/open/user/info"

// UserAPI covers the account endpoints.
type UserAPI struct {
	client *req.Client
}

// SpaceSize is a storage figure with the service's preformatted rendering.
type SpaceSize struct {
	Size       Int64String `json:"size"`
	SizeFormat string      `json:"size_format"`
}

// UserInfo is the account detail record.
type UserInfo struct {
	UserID    Int64String `json:"user_id"`
	UserName  string      `json:"user_name"`
	SpaceInfo struct {
		Total  SpaceSize `json:"all_total"`
		Used   SpaceSize `json:"all_use"`
		Remain SpaceSize `json:"all_remain"`
	} `json:"rt_space_info"`
	VIPInfo struct {
		LevelName string      `json:"level_name"`
		Expire    Int64String `json:"expire"`
	} `json:"vip_info"`
}

type userInfoResponse struct {
	envelope
	Data UserInfo `json:"data"`
}

// Info fetches the signed-in account's profile and space usage.
func (u *UserAPI) Info(ctx context.Context) (*UserInfo, error) {
	var body userInfoResponse
	resp, err := u.client.R().
		SetContext(ctx).
		SetSuccessResult(&body).
		Get(pathUserInfo)

	if err := checkAPIResponse(resp, err, "user info", &body); err != nil {
		return nil, err
	}

	return &body.Data, nil
}
