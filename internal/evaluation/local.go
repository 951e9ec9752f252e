package evaluation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrMediaNotFound is returned by LocalUploader.Open for unknown ids.
var ErrMediaNotFound = errors.New("media not found")

// LocalUploader keeps clips in a directory on disk. URLs are built from
// baseURL and the clip id, e.g. http://127.0.0.1:8787/media/<id>; with an
// empty baseURL they are file:// URLs.
type LocalUploader struct {
	dir     string
	baseURL string
}

// NewLocalUploader creates the media directory if needed.
func NewLocalUploader(dir, baseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &LocalUploader{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (u *LocalUploader) Upload(ctx context.Context, clip []byte, mimeType string) (MediaReference, error) {
	if err := ctx.Err(); err != nil {
		return MediaReference{}, err
	}
	if len(clip) == 0 {
		return MediaReference{}, &UploadError{Reason: UploadRejected, Err: ErrEmptyClip}
	}

	id := uuid.NewString()
	path := filepath.Join(u.dir, id+extensionFor(mimeType))

	tmp := path + ".part"
	if err := os.WriteFile(tmp, clip, 0o644); err != nil {
		return MediaReference{}, &UploadError{Reason: UploadRejected, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return MediaReference{}, &UploadError{Reason: UploadRejected, Err: err}
	}

	return MediaReference{URL: u.urlFor(id, path), ID: id, MIMEType: mimeType}, nil
}

// Open returns the on-disk path of a stored clip.
func (u *LocalUploader) Open(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil || len(id) != 36 {
		return "", ErrMediaNotFound
	}
	matches, err := filepath.Glob(filepath.Join(u.dir, id+".*"))
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		if !strings.HasSuffix(m, ".part") {
			return m, nil
		}
	}
	return "", ErrMediaNotFound
}

// Prune removes stored clips last modified before cutoff and returns how
// many were removed.
func (u *LocalUploader) Prune(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(u.dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(u.dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (u *LocalUploader) urlFor(id, path string) string {
	if u.baseURL == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		return "file://" + filepath.ToSlash(abs)
	}
	return u.baseURL + "/media/" + id
}
