package media

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/elimu/core"
)

const (
	MaxBulkFiles = 10
	sniffLen     = 3072 // bytes read to detect the content type
)

var (
	ErrNoFile        = errors.New("no file provided")
	ErrTooManyFiles  = errors.Errorf("at most %d files can be uploaded at once", MaxBulkFiles)
	ErrFileTooLarge  = errors.New("file is too large")
	ErrNoPublicID    = errors.New("asset id is required")
	ErrUnsupportedCT = errors.New("only images and videos can be uploaded")
)

type (
	// Storage is the media storage backend (cloud bucket, local disk).
	Storage interface {
		// Upload stores the content under key and returns its public URL.
		Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error)
		Delete(ctx context.Context, key string) error
	}

	Service struct {
		storage Storage
		maxSize int64
	}
)

func NewService(conf *core.Config, storage Storage) *Service {
	return &Service{storage: storage, maxSize: conf.Media.MaxUploadSize}
}

// Upload sniffs the content type of the file, then stores it under a fresh key.
func (svc *Service) Upload(ctx context.Context, f File) (Asset, error) {
	if f.Reader == nil {
		return Asset{}, core.NewValidationError(ErrNoFile, core.FieldError{Field: "file", Error: ErrNoFile.Error()})
	}
	if svc.maxSize > 0 && f.Size > svc.maxSize {
		return Asset{}, core.NewValidationError(ErrFileTooLarge, core.FieldError{Field: "file", Error: ErrFileTooLarge.Error()})
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f.Reader, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Asset{}, errors.Wrap(err, "reading file")
	}
	head = head[:n]
	if n == 0 {
		return Asset{}, core.NewValidationError(ErrNoFile, core.FieldError{Field: "file", Error: ErrNoFile.Error()})
	}

	mtype := mimetype.Detect(head)
	resType := resourceType(mtype.String())
	if resType == ResourceRaw {
		return Asset{}, core.NewValidationError(ErrUnsupportedCT, core.FieldError{Field: "file", Error: ErrUnsupportedCT.Error()})
	}

	key := resType + "-" + uuid.NewString() + mtype.Extension()
	counter := &countingReader{r: io.MultiReader(bytes.NewReader(head), f.Reader)}
	url, err := svc.storage.Upload(ctx, key, mtype.String(), counter)
	if err != nil {
		return Asset{}, errors.Wrap(err, "uploading file")
	}
	return Asset{
		URL:          url,
		PublicID:     key,
		ResourceType: resType,
		ContentType:  mtype.String(),
		Bytes:        counter.n,
	}, nil
}

// BulkUpload uploads up to MaxBulkFiles files concurrently. Assets are returned in the files order.
// If any upload fails, the ones that succeeded are deleted.
func (svc *Service) BulkUpload(ctx context.Context, files []File) ([]Asset, error) {
	if len(files) == 0 {
		return nil, core.NewValidationError(ErrNoFile, core.FieldError{Field: "files", Error: ErrNoFile.Error()})
	}
	if len(files) > MaxBulkFiles {
		return nil, core.NewValidationError(ErrTooManyFiles, core.FieldError{Field: "files", Error: ErrTooManyFiles.Error()})
	}

	assets := make([]Asset, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			asset, err := svc.Upload(gctx, f)
			if err != nil {
				return err
			}
			assets[i] = asset
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, a := range assets {
			if a.PublicID != "" {
				_ = svc.storage.Delete(context.Background(), a.PublicID)
			}
		}
		return nil, err
	}
	return assets, nil
}

// Delete removes the asset from the media storage.
func (svc *Service) Delete(ctx context.Context, publicID string) error {
	publicID = core.CleanString(publicID)
	if publicID == "" || strings.ContainsAny(publicID, `/\`) || strings.Contains(publicID, "..") {
		return core.NewValidationError(ErrNoPublicID, core.FieldError{Field: "id", Error: ErrNoPublicID.Error()})
	}
	return errors.Wrap(svc.storage.Delete(ctx, publicID), "deleting file")
}

func resourceType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return ResourceImage
	case strings.HasPrefix(contentType, "video/"):
		return ResourceVideo
	default:
		return ResourceRaw
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}
