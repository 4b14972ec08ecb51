package api

import (
	"context"
	"time"

	"github.com/imroc/req/v3"
)

const authRefreshPath = "/open/refreshToken"

type refreshTokenResponse struct {
	envelope
	Data struct {
		AccessToken  string      `json:"access_token"`
		RefreshToken string      `json:"refresh_token"`
		ExpiresIn    Int64String `json:"expires_in"`
	} `json:"data"`
}

// refreshToken exchanges a refresh token for a new token pair at the
// passport service. The passport host differs from the API host, so this
// uses a standalone client.
func refreshToken(ctx context.Context, authBase string, refresh string) (Token, error) {
	if refresh == "" {
		return Token{}, ErrNotLoggedIn
	}

	var body refreshTokenResponse
	client := req.C().
		SetBaseURL(authBase).
		SetUserAgent(userAgent).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	resp, err := client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"refresh_token": refresh}).
		SetSuccessResult(&body).
		Post(authRefreshPath)

	if err := checkAPIResponse(resp, err, "auth refresh", &body); err != nil {
		return Token{}, err
	}

	return Token{
		AccessToken:  body.Data.AccessToken,
		RefreshToken: body.Data.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(body.Data.ExpiresIn) * time.Second),
	}, nil
}
