package api

import (
	"errors"
	"fmt"

	"github.com/imroc/req/v3"
)

var (
	ErrNotLoggedIn   = errors.New("api: not logged in")
	ErrEmptyPickCode = errors.New("api: pick code missing")
	ErrNoDownloadURL = errors.New("api: no download url for pick code")
	ErrRootInfo      = errors.New("api: cannot query info for the root folder")
)

// Token error codes documented by the 115 open platform. A request failing
// with one of these cannot be retried without a new token pair.
const (
	CodeRefreshTokenInvalid = 40140116
	CodeRefreshTokenExpired = 40140119
	CodeAccessTokenInvalid  = 40140125
)

// APIError is a non-true `state` envelope returned by the 115 API.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// IsTokenInvalid reports whether err is an APIError indicating the token
// pair is no longer usable and the user has to log in again.
func IsTokenInvalid(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case CodeRefreshTokenInvalid, CodeRefreshTokenExpired, CodeAccessTokenInvalid:
		return true
	}
	return false
}

// envelope is the common header of every 115 API response:
// {state, code, message, ...}. Endpoint responses embed it.
type envelope struct {
	State   StateFlag `json:"state"`
	Code    int       `json:"code"`
	Message string    `json:"message"`
}

func (e *envelope) apiHeader() *envelope { return e }

type apiResponse interface {
	apiHeader() *envelope
}

// checkAPIResponse handles the common error pattern: transport errors, HTTP
// error statuses, and the envelope's own state flag. Endpoints call this
// once per request so no caller ever branches on a raw envelope.
func checkAPIResponse(resp *req.Response, requestErr error, op string, body apiResponse) error {
	if requestErr != nil {
		return fmt.Errorf("http request error: %s: %w", op, requestErr)
	}

	if resp.IsErrorState() {
		return fmt.Errorf("api error: %s: http %s", op, resp.Status)
	}

	env := body.apiHeader()
	if !bool(env.State) {
		return fmt.Errorf("%s: %w", op, &APIError{Code: env.Code, Message: env.Message})
	}

	return nil
}
