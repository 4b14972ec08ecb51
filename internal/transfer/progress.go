package transfer

import (
	"io"
	"time"
)

// progressReader wraps an io.Reader and reports cumulative bytes read,
// throttled so callbacks don't dominate small-buffer reads.
type progressReader struct {
	reader       io.Reader
	bytesRead    int64
	totalSize    int64
	callback     Progress
	lastCallback time.Time
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 {
		pr.bytesRead += int64(n)
	}

	if pr.callback != nil {
		now := time.Now()
		if now.Sub(pr.lastCallback) > 500*time.Millisecond || err == io.EOF {
			pr.callback(pr.bytesRead, pr.totalSize)
			pr.lastCallback = now
		}
	}

	return n, err
}
