package transfer

import "sync"

// Result is the uniform outcome record for one file, shared by uploads and
// downloads so batch summaries are built the same way in both directions.
type Result struct {
	Success bool `json:"success"`
	// Skipped marks a file left alone because it already exists locally.
	// Skips count as not-succeeded in batch totals.
	Skipped  bool   `json:"skipped,omitempty"`
	PickCode string `json:"pick_code,omitempty"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	RelPath  string `json:"relative_path,omitempty"`
	DestPath string `json:"dest_path,omitempty"`
	Message  string `json:"message"`
}

// BatchResult aggregates one tree upload or download.
type BatchResult struct {
	FolderID   int64     `json:"folder_id"`
	FolderName string    `json:"folder_name"`
	Root       string    `json:"root"` // destination root (remote folder id rendered by caller, or local dir)
	TotalFiles int       `json:"total_files"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Results    []*Result `json:"results"`
	// Omitted lists subtrees skipped during remote enumeration. Flattening
	// is best-effort; making the skips visible keeps that observable.
	Omitted []string `json:"omitted,omitempty"`
}

// Ok reports whether every file in the batch succeeded.
func (b *BatchResult) Ok() bool {
	return b.Failed == 0
}

// BatchProgress is invoked once per completed file, with the running
// completion count. Invocations are serialized.
type BatchProgress func(done, total int, r *Result)

// Progress is invoked with byte-level progress of a single transfer.
type Progress func(transferred, total int64)

// resultSink collects per-file results from concurrent workers.
// Results land in completion order, not submission order.
type resultSink struct {
	mu       sync.Mutex
	total    int
	done     int
	results  []*Result
	progress BatchProgress
}

func newResultSink(total int, progress BatchProgress) *resultSink {
	return &resultSink{
		total:    total,
		results:  make([]*Result, 0, total),
		progress: progress,
	}
}

// add records one result. Each worker calls this exactly once per file,
// including on its own internal failure.
func (s *resultSink) add(r *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.done++
	s.results = append(s.results, r)
	if s.progress != nil {
		s.progress(s.done, s.total, r)
	}
}

// collect folds the sink into a batch result.
func (s *resultSink) collect(batch *BatchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch.TotalFiles = s.total
	batch.Results = s.results
	for _, r := range s.results {
		if r.Success {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
}
