package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadInit_FormEncoding(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, pathUploadInit, r.URL.Path)
		assert.Equal(t, "a.txt", r.PostForm.Get("file_name"))
		assert.Equal(t, "1024", r.PostForm.Get("file_size"))
		assert.Equal(t, "U_1_42", r.PostForm.Get("target"))
		assert.Equal(t, "AAAA", r.PostForm.Get("fileid"))
		assert.Equal(t, "BBBB", r.PostForm.Get("preid"))
		assert.Empty(t, r.PostForm.Get("sign_key"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"state": true, "code": 0, "message": "", "data": {"status": 2, "pick_code": "pcX"}}`)
	}))

	data, err := client.Upload.Init(context.Background(), &InitParams{
		FileName: "a.txt",
		FileSize: 1024,
		Target:   42,
		FileID:   "AAAA",
		PreID:    "BBBB",
	})
	require.NoError(t, err)
	assert.True(t, data.Instant())
	assert.False(t, data.NeedsSignCheck())
}

func TestUploadInit_ValidatesParams(t *testing.T) {
	client := New("http://127.0.0.1:1", Token{})

	tests := []struct {
		name   string
		params InitParams
	}{
		{"missing name", InitParams{FileSize: 1, FileID: "A"}},
		{"zero size", InitParams{FileName: "a", FileID: "A"}},
		{"missing digest", InitParams{FileName: "a", FileSize: 1}},
		{"sign_key without sign_val", InitParams{FileName: "a", FileSize: 1, FileID: "A", SignKey: "k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Upload.Init(context.Background(), &tt.params)
			assert.Error(t, err)
		})
	}
}

func TestInitData_SignalClassification(t *testing.T) {
	tests := []struct {
		name      string
		data      InitData
		instant   bool
		signCheck bool
	}{
		{"status 2 instant", InitData{Status: 2}, true, false},
		{"status 1 legacy instant", InitData{Status: 1}, true, false},
		{"status 7 with challenge", InitData{Status: 7, SignCheck: "0-131071", SignKey: "sk"}, false, true},
		{"code 701 with challenge", InitData{Code: 701, SignCheck: "10-20", SignKey: "sk"}, false, true},
		{"status 7 without challenge fields", InitData{Status: 7}, false, false},
		{"plain transfer", InitData{Status: 0, PickCode: "pc", Bucket: "b", Object: "o"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.instant, tt.data.Instant())
			assert.Equal(t, tt.signCheck, tt.data.NeedsSignCheck())
		})
	}
}

func TestUploadInit_ArrayWrappedData(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"state": true, "code": 0, "message": "", "data": [
			{"status": 0, "pick_code": "pcY", "bucket": "bkt", "object": "obj/key",
			 "callback": {"callback": "cb", "callback_var": "cbv"}}
		]}`)
	}))

	data, err := client.Upload.Init(context.Background(), &InitParams{
		FileName: "b.bin", FileSize: 10, FileID: "CCCC",
	})
	require.NoError(t, err)
	assert.Equal(t, "bkt", data.Bucket)
	assert.Equal(t, "obj/key", data.Object)
	assert.Equal(t, "cb", data.Callback.Callback)
}

func TestUploadToken(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathUploadToken, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"state": true, "code": 0, "message": "", "data": {
			"endpoint": "https://oss-cn-shenzhen.aliyuncs.com",
			"AccessKeyId": "AKID", "AccessKeySecret": "SECRET", "SecurityToken": "STS"
		}}`)
	}))

	token, err := client.Upload.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKID", token.AccessKeyID)
	assert.Equal(t, "STS", token.SecurityToken)
}

func TestUploadResume_RequiresPickCode(t *testing.T) {
	client := New("http://127.0.0.1:1", Token{})
	_, err := client.Upload.Resume(context.Background(), 10, "AAAA", "", 0)
	assert.ErrorIs(t, err, ErrEmptyPickCode)
}
