package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// Stager copies incoming multipart files to a scratch directory so they can be
// probed and streamed to object storage. Every staged file comes with a
// cleanup function the caller must run on all exit paths.
type Stager struct {
	dir string
}

// NewStager returns a Stager writing under dir, or the system temp directory
// when dir is empty.
func NewStager(dir string) *Stager {
	return &Stager{dir: dir}
}

// Stage copies the uploaded file to local disk and returns its path together
// with a cleanup function that removes it.
func (s *Stager) Stage(fh *multipart.FileHeader) (string, func(), error) {
	if fh == nil {
		return "", nil, fmt.Errorf("stage upload: missing file")
	}

	src, err := fh.Open()
	if err != nil {
		return "", nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	pattern := "upload-*" + filepath.Ext(fh.Filename)
	dst, err := os.CreateTemp(s.dir, pattern)
	if err != nil {
		return "", nil, fmt.Errorf("create staging file: %w", err)
	}

	cleanup := func() { _ = os.Remove(dst.Name()) }

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		cleanup()
		return "", nil, fmt.Errorf("stage upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close staging file: %w", err)
	}

	return dst.Name(), cleanup, nil
}
