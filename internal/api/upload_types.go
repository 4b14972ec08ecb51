package api

import "bytes"

// Upload init statuses returned by the scheduling endpoint.
const (
	// StatusInstantLegacy is a legacy variant of the instant-upload signal.
	// Current service docs only mark status 2 as authoritative, but the
	// deployed endpoint still emits 1 for some dedup hits, so both are
	// treated as terminal success.
	StatusInstantLegacy = 1

	// StatusInstant means the service already holds identical content and
	// no byte transfer is needed.
	StatusInstant = 2

	// Statuses demanding the sign_check/sign_key second-factor round trip.
	StatusSignCheck1 = 6
	StatusSignCheck2 = 7
	StatusSignCheck3 = 8
)

// Data codes that accompany a second-factor challenge.
const (
	CodeSignCheck1 = 700
	CodeSignCheck2 = 701
	CodeSignCheck3 = 702
)

// UploadToken is the STS credential set for the object-storage endpoint.
type UploadToken struct {
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"AccessKeyId"`
	AccessKeySecret string `json:"AccessKeySecret"`
	SecurityToken   string `json:"SecurityToken"`
	Expiration      string `json:"Expiration"`
}

type uploadTokenResponse struct {
	envelope
	Data UploadToken `json:"data"`
}

// InitParams is the request to the upload scheduling endpoint.
type InitParams struct {
	FileName string
	FileSize int64
	Target   int64  // destination folder id
	FileID   string // whole-file SHA-1, uppercase hex
	PreID    string // SHA-1 of the first 128 KiB, uppercase hex
	PickCode string // resume handle from a previous non-instant init
	SignKey  string // second-factor challenge key
	SignVal  string // SHA-1 of the challenged byte range, uppercase hex
}

// InitData is the payload of the init and resume endpoints.
type InitData struct {
	Status    Int64String `json:"status"`
	Code      Int64String `json:"code"`
	PickCode  string      `json:"pick_code"`
	SignCheck string      `json:"sign_check"` // "<start>-<end>" byte range to hash
	SignKey   string      `json:"sign_key"`
	Bucket    string      `json:"bucket"`
	Object    string      `json:"object"`
	Callback  struct {
		Callback    string `json:"callback"`
		CallbackVar string `json:"callback_var"`
	} `json:"callback"`
}

// NeedsSignCheck reports whether this response is a second-factor challenge.
func (d *InitData) NeedsSignCheck() bool {
	if d.SignCheck == "" || d.SignKey == "" {
		return false
	}
	switch int64(d.Status) {
	case StatusSignCheck1, StatusSignCheck2, StatusSignCheck3:
		return true
	}
	switch int64(d.Code) {
	case CodeSignCheck1, CodeSignCheck2, CodeSignCheck3:
		return true
	}
	return false
}

// Instant reports whether the service completed the upload without bytes.
func (d *InitData) Instant() bool {
	s := int64(d.Status)
	return s == StatusInstant || s == StatusInstantLegacy
}

// initDataPayload tolerates the endpoint wrapping its record in a
// single-element array.
type initDataPayload struct {
	InitData
}

func (p *initDataPayload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []InitData
		if err := jsonUnmarshal(data, &list); err != nil {
			return err
		}
		if len(list) > 0 {
			p.InitData = list[0]
		}
		return nil
	}
	return jsonUnmarshal(data, &p.InitData)
}

type uploadInitResponse struct {
	envelope
	Data initDataPayload `json:"data"`
}
