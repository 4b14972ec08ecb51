package transfer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/cpan115/pan115/internal/api"
)

// fakeEntry is one remote file or folder tracked by the fake service.
type fakeEntry struct {
	id     int64
	parent int64
	name   string
	dir    bool
	size   int64
	pick   string
}

// fakeRemote is an in-memory stand-in for the remote service, backing the
// orchestrator tests with real HTTP round trips.
type fakeRemote struct {
	t *testing.T

	mu        sync.Mutex
	nextID    int64
	entries   []*fakeEntry
	addCalls  int
	listCalls map[int64]int
	failList  map[int64]bool

	// initFn overrides the upload init response; the submitted form is
	// recorded either way. nil means instant upload for everything.
	initFn       func(form url.Values) map[string]any
	initForms    []url.Values
	downURLs     map[string]string
	downURLCalls int
	pathInfo     map[string]*fakeEntry

	server *httptest.Server
	client *api.Client
}

func newFakeRemote(t *testing.T) *fakeRemote {
	fr := &fakeRemote{
		t:         t,
		nextID:    1000,
		listCalls: map[int64]int{},
		failList:  map[int64]bool{},
		downURLs:  map[string]string{},
		pathInfo:  map[string]*fakeEntry{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/open/ufile/files", fr.handleList)
	mux.HandleFunc("/open/folder/add", fr.handleAdd)
	mux.HandleFunc("/open/folder/get_info", fr.handleInfo)
	mux.HandleFunc("/open/upload/get_token", fr.handleToken)
	mux.HandleFunc("/open/upload/init", fr.handleInit)
	mux.HandleFunc("/open/ufile/downurl", fr.handleDownURL)

	fr.server = httptest.NewServer(mux)
	t.Cleanup(fr.server.Close)

	fr.client = api.New(fr.server.URL, api.Token{AccessToken: "test-token"})
	return fr
}

func (fr *fakeRemote) addEntry(parent int64, name string, dir bool, size int64, pick string) *fakeEntry {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	fr.nextID++
	e := &fakeEntry{id: fr.nextID, parent: parent, name: name, dir: dir, size: size, pick: pick}
	fr.entries = append(fr.entries, e)
	return e
}

func (fr *fakeRemote) handleList(w http.ResponseWriter, r *http.Request) {
	cid, _ := strconv.ParseInt(r.URL.Query().Get("cid"), 10, 64)

	fr.mu.Lock()
	fr.listCalls[cid]++
	failed := fr.failList[cid]

	var rows []map[string]any
	for _, e := range fr.entries {
		if e.parent != cid {
			continue
		}
		fc := 1
		if e.dir {
			fc = 0
		}
		rows = append(rows, map[string]any{
			"fid": e.id, "pid": e.parent, "fn": e.name,
			"fc": fc, "fs": e.size, "pc": e.pick,
		})
	}
	fr.mu.Unlock()

	if failed {
		writeJSON(w, map[string]any{"state": false, "code": 20004, "message": "no such dir"})
		return
	}
	writeJSON(w, map[string]any{"state": true, "code": 0, "message": "", "data": rows, "count": len(rows)})
}

func (fr *fakeRemote) handleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		fr.t.Errorf("parse add form: %v", err)
	}
	pid, _ := strconv.ParseInt(r.PostForm.Get("pid"), 10, 64)
	name := r.PostForm.Get("file_name")

	e := fr.addEntry(pid, name, true, 0, "")

	fr.mu.Lock()
	fr.addCalls++
	fr.mu.Unlock()

	writeJSON(w, map[string]any{
		"state": true, "code": 0, "message": "",
		"data": map[string]any{"file_id": strconv.FormatInt(e.id, 10), "file_name": name},
	})
}

func (fr *fakeRemote) handleInfo(w http.ResponseWriter, r *http.Request) {
	var found *fakeEntry

	if p := r.URL.Query().Get("path"); p != "" {
		fr.mu.Lock()
		found = fr.pathInfo[p]
		fr.mu.Unlock()
	} else {
		id, _ := strconv.ParseInt(r.URL.Query().Get("file_id"), 10, 64)
		fr.mu.Lock()
		for _, e := range fr.entries {
			if e.id == id {
				found = e
				break
			}
		}
		fr.mu.Unlock()
	}

	if found == nil {
		writeJSON(w, map[string]any{"state": false, "code": 20018, "message": "not found"})
		return
	}

	fc := 1
	if found.dir {
		fc = 0
	}
	writeJSON(w, map[string]any{
		"state": true, "code": 0, "message": "",
		"data": map[string]any{
			"file_name": found.name, "file_category": fc,
			"pick_code": found.pick, "size_byte": found.size,
		},
	})
}

func (fr *fakeRemote) handleToken(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"state": true, "code": 0, "message": "",
		"data": map[string]any{
			"endpoint":        "https://oss-cn-test.example.com",
			"AccessKeyId":     "ak",
			"AccessKeySecret": "sk",
			"SecurityToken":   "sts",
		},
	})
}

func (fr *fakeRemote) handleInit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		fr.t.Errorf("parse init form: %v", err)
	}

	fr.mu.Lock()
	fr.initForms = append(fr.initForms, r.PostForm)
	fn := fr.initFn
	fr.mu.Unlock()

	if fn != nil {
		writeJSON(w, fn(r.PostForm))
		return
	}
	writeJSON(w, map[string]any{
		"state": true, "code": 0, "message": "",
		"data": map[string]any{"status": 2, "pick_code": "pc-" + r.PostForm.Get("file_name")},
	})
}

func (fr *fakeRemote) handleDownURL(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		fr.t.Errorf("parse downurl form: %v", err)
	}
	pick := r.PostForm.Get("pick_code")

	fr.mu.Lock()
	fr.downURLCalls++
	u := fr.downURLs[pick]
	fr.mu.Unlock()

	if u == "" {
		writeJSON(w, map[string]any{"state": true, "code": 0, "message": "", "data": []any{}})
		return
	}
	writeJSON(w, map[string]any{
		"state": true, "code": 0, "message": "",
		"data": map[string]any{
			"99": map[string]any{
				"file_name": pick + ".bin", "file_size": 11, "pick_code": pick,
				"url": map[string]any{"url": u},
			},
		},
	})
}

func (fr *fakeRemote) forms() []url.Values {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return append([]url.Values(nil), fr.initForms...)
}

func (fr *fakeRemote) adds() int {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return fr.addCalls
}

func (fr *fakeRemote) lists(cid int64) int {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return fr.listCalls[cid]
}

func (fr *fakeRemote) urlCalls() int {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return fr.downURLCalls
}

// initTargets maps submitted file names to their upload targets.
func (fr *fakeRemote) initTargets() map[string]string {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	targets := make(map[string]string, len(fr.initForms))
	for _, form := range fr.initForms {
		targets[form.Get("file_name")] = form.Get("target")
	}
	return targets
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(err)
	}
}
