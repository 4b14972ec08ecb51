package transfer

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// PrefixSize is the byte length of the partial digest the dedup protocol
// requires alongside the whole-file digest.
const PrefixSize = 128 * 1024

// Digest holds the content digests of one local file, uppercase hex as the
// dedup endpoints expect them.
type Digest struct {
	Size   int64
	SHA1   string // whole file
	Prefix string // first 128 KiB, or the whole file if shorter
}

// HashFile streams path once and computes both digests. Memory use is
// constant regardless of file size.
func HashFile(path string) (*Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}
	defer f.Close()

	whole := sha1.New()
	prefix := sha1.New()

	var size int64
	buf := make([]byte, 32*1024)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			whole.Write(chunk)

			if size < PrefixSize {
				remain := PrefixSize - size
				if int64(len(chunk)) > remain {
					chunk = chunk[:remain]
				}
				prefix.Write(chunk)
			}
			size += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", path, err)
		}
	}

	return &Digest{
		Size:   size,
		SHA1:   upperHex(whole.Sum(nil)),
		Prefix: upperHex(prefix.Sum(nil)),
	}, nil
}

// HashRange computes the digest of an inclusive byte range given in the
// second-factor challenge format "<start>-<end>".
func HashRange(path string, rangeSpec string) (string, error) {
	start, end, err := parseRange(rangeSpec)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hash range %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return "", fmt.Errorf("hash range %s: %w", path, err)
	}

	h := sha1.New()
	if _, err := io.CopyN(h, f, end-start+1); err != nil {
		return "", fmt.Errorf("hash range %s: %w", path, err)
	}

	return upperHex(h.Sum(nil)), nil
}

func parseRange(spec string) (start, end int64, err error) {
	lo, hi, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid range spec %q", spec)
	}
	start, err = strconv.ParseInt(lo, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range spec %q: %w", spec, err)
	}
	end, err = strconv.ParseInt(hi, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range spec %q: %w", spec, err)
	}
	if start < 0 || end < start {
		return 0, 0, fmt.Errorf("invalid range spec %q", spec)
	}
	return start, end, nil
}

func upperHex(sum []byte) string {
	return strings.ToUpper(hex.EncodeToString(sum))
}
