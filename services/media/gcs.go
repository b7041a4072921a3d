package mediasvc

import (
	"context"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/media"
)

const gcsBaseURL = "https://storage.googleapis.com"

type gcsStorage struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

var _ media.Storage = (*gcsStorage)(nil)

// NewGCSStorage returns a media.Storage backed by a Google Cloud Storage bucket.
// Credentials come from conf.Media.CredentialsFile, or the application default credentials.
func NewGCSStorage(ctx context.Context, conf *core.Config) (media.Storage, error) {
	if conf.Media.Bucket == "" {
		return nil, errors.New("media bucket is not configured")
	}

	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if conf.Media.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(conf.Media.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating storage client")
	}

	baseURL := gcsBaseURL + "/" + conf.Media.Bucket
	if conf.Media.PublicBaseURL != "" {
		baseURL = conf.Media.PublicBaseURL
	}
	return &gcsStorage{
		client:        client,
		bucket:        conf.Media.Bucket,
		publicBaseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *gcsStorage) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", core.NewUpstreamError("gcs", errors.Wrap(err, "writing object"))
	}
	if err := w.Close(); err != nil {
		return "", core.NewUpstreamError("gcs", errors.Wrap(err, "closing object writer"))
	}
	return s.publicBaseURL + "/" + key, nil
}

func (s *gcsStorage) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return core.NewUpstreamError("gcs", errors.Wrap(err, "deleting object"))
	}
	return nil
}
