package mediasvc

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/media"
)

// MediaURLPrefix is the path the API serves local media files under.
const MediaURLPrefix = "/media"

type localStorage struct {
	dir           string
	publicBaseURL string
}

var _ media.Storage = (*localStorage)(nil)

// LocalDir is the directory local media files are stored in.
func LocalDir(conf *core.Config) string {
	dir := conf.Media.LocalDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(conf.WorkDir, dir)
	}
	return dir
}

// NewLocalStorage returns a media.Storage writing to a local directory, served by the API under /media.
func NewLocalStorage(conf *core.Config) (media.Storage, error) {
	dir := LocalDir(conf)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating media dir")
	}
	baseURL := conf.Media.PublicBaseURL
	if baseURL == "" {
		baseURL = MediaURLPrefix
	}
	return &localStorage{dir: dir, publicBaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *localStorage) Upload(ctx context.Context, key, _ string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := os.Create(filepath.Join(s.dir, filepath.Base(key)))
	if err != nil {
		return "", core.NewUpstreamError("media", errors.Wrap(err, "creating file"))
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", core.NewUpstreamError("media", errors.Wrap(err, "writing file"))
	}
	if err = f.Close(); err != nil {
		return "", core.NewUpstreamError("media", errors.Wrap(err, "closing file"))
	}
	return s.publicBaseURL + "/" + filepath.Base(key), nil
}

func (s *localStorage) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(key)))
	if err != nil && !os.IsNotExist(err) {
		return core.NewUpstreamError("media", errors.Wrap(err, "deleting file"))
	}
	return nil
}
