package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, Token{}), server
}

func TestFilesList_DecodesEntries(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathFiles, r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("cid"))
		assert.Equal(t, "1", r.URL.Query().Get("show_dir"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"state": true, "code": 0, "message": "", "count": 2,
			"data": [
				{"fid": "100", "pid": "42", "fn": "docs", "fc": "0"},
				{"fid": 101, "pid": 42, "fn": "a.txt", "fc": 1, "fs": "2048", "pc": "pcAAA", "sha1": "DA39A3EE"}
			]
		}`)
	}))

	resp, err := client.Files.List(context.Background(), &ListParams{CID: 42, ShowDir: true})
	require.NoError(t, err)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, 2, resp.Count)

	dir, file := resp.Data[0], resp.Data[1]
	assert.True(t, dir.IsDir())
	assert.Equal(t, int64(100), dir.ID.Int64())
	assert.False(t, file.IsDir())
	assert.Equal(t, int64(2048), file.Size.Int64())
	assert.Equal(t, "pcAAA", file.PickCode)
}

func TestFilesList_EnvelopeFailureBecomesAPIError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"state": false, "code": 40140125, "message": "access_token invalid", "data": []}`)
	}))

	_, err := client.Files.List(context.Background(), &ListParams{CID: 0})
	require.Error(t, err)
	assert.True(t, IsTokenInvalid(err))
	assert.Contains(t, err.Error(), "40140125")
}

func TestFilesListAll_PagesUntilCount(t *testing.T) {
	const total = 2300

	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		require.Equal(t, MaxPageSize, limit)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"state": true, "code": 0, "message": "", "count": %d, "data": [`, total)
		for i := 0; i < limit && offset+i < total; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"fid": "%d", "fn": "f%d", "fc": "1"}`, offset+i, offset+i)
		}
		fmt.Fprint(w, `]}`)
	}))

	entries, err := client.Files.ListAll(context.Background(), 0, true)
	require.NoError(t, err)
	assert.Len(t, entries, total)
	assert.Equal(t, int32(2), calls.Load(), "2300 entries at a 1150 page ceiling must take exactly 2 fetches")
}

func TestFilesAddFolder_ReturnsNewID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "7", r.PostForm.Get("pid"))
		assert.Equal(t, "reports", r.PostForm.Get("file_name"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"state": true, "code": 0, "message": "", "data": {"file_id": "987", "file_name": "reports"}}`)
	}))

	id, err := client.Files.AddFolder(context.Background(), 7, "reports")
	require.NoError(t, err)
	assert.Equal(t, int64(987), id)
}

func TestFilesDownloadURL(t *testing.T) {
	t.Run("resolves single target", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "pcAAA", r.PostForm.Get("pick_code"))

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"state": true, "code": 0, "message": "", "data": {
				"12345": {"file_name": "a.txt", "file_size": "9", "pick_code": "pcAAA", "url": {"url": "https://cdn.example.com/a"}}
			}}`)
		}))

		target, err := client.Files.DownloadURL(context.Background(), "pcAAA")
		require.NoError(t, err)
		assert.Equal(t, "a.txt", target.FileName)
		assert.Equal(t, int64(9), target.FileSize.Int64())
		assert.Equal(t, "https://cdn.example.com/a", target.URL.URL)
	})

	t.Run("empty array data means no url", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"state": true, "code": 0, "message": "", "data": []}`)
		}))

		_, err := client.Files.DownloadURL(context.Background(), "bogus")
		assert.ErrorIs(t, err, ErrNoDownloadURL)
	})

	t.Run("empty pick code rejected before network", func(t *testing.T) {
		client := New("http://127.0.0.1:1", Token{})
		_, err := client.Files.DownloadURL(context.Background(), "")
		assert.ErrorIs(t, err, ErrEmptyPickCode)
	})
}

func TestFilesInfo_RootRejected(t *testing.T) {
	client := New("http://127.0.0.1:1", Token{})

	_, err := client.Files.InfoByID(context.Background(), RootFolderID)
	assert.ErrorIs(t, err, ErrRootInfo)

	_, err = client.Files.InfoByPath(context.Background(), "/")
	assert.ErrorIs(t, err, ErrRootInfo)
}

func TestFilesInfoByPath_NormalizesLeadingSlash(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/docs/a.txt", r.URL.Query().Get("path"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"state": true, "code": 0, "message": "", "data": {
			"file_name": "a.txt", "file_category": "1", "pick_code": "pcAAA", "size_byte": 9
		}}`)
	}))

	info, err := client.Files.InfoByPath(context.Background(), "docs/a.txt")
	require.NoError(t, err)
	assert.False(t, info.IsDir())
	assert.Equal(t, "pcAAA", info.PickCode)
}
