package echoapi

import (
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/media"
)

const (
	fileField  = "file"
	filesField = "files"
)

type mediaApi struct {
	svc *media.Service
}

func registerMediaAPI(g *echo.Group, jwt, instructor echo.MiddlewareFunc, svc *media.Service) {
	api := mediaApi{svc: svc}

	mg := g.Group("/media", jwt, instructor)
	mg.POST("/upload", api.upload)
	mg.POST("/bulk-upload", api.bulkUpload)
	mg.DELETE("/:id", api.delete)
}

// Handlers

func (api *mediaApi) upload(ctx echo.Context) error {
	fh, err := ctx.FormFile(fileField)
	if err != nil {
		if errors.Cause(err) == http.ErrMissingFile {
			return core.NewValidationError(media.ErrNoFile, core.FieldError{Field: fileField, Error: media.ErrNoFile.Error()})
		}
		return errors.Wrap(err, "reading multipart form")
	}

	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening form file")
	}
	defer src.Close()

	asset, err := api.svc.Upload(ctx.Request().Context(), media.File{Name: fh.Filename, Size: fh.Size, Reader: src})
	if err != nil {
		return errors.Wrap(err, "uploading file")
	}
	return ctx.JSON(http.StatusCreated, asset)
}

func (api *mediaApi) bulkUpload(ctx echo.Context) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return errors.Wrap(err, "reading multipart form")
	}
	headers := form.File[filesField]
	if len(headers) > media.MaxBulkFiles { // fail before opening anything
		return core.NewValidationError(media.ErrTooManyFiles,
			core.FieldError{Field: filesField, Error: media.ErrTooManyFiles.Error()})
	}

	files := make([]media.File, 0, len(headers))
	srcs := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, src := range srcs {
			_ = src.Close()
		}
	}()
	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening form file")
		}
		srcs = append(srcs, src)
		files = append(files, media.File{Name: fh.Filename, Size: fh.Size, Reader: src})
	}

	assets, err := api.svc.BulkUpload(ctx.Request().Context(), files)
	if err != nil {
		return errors.Wrap(err, "uploading files")
	}
	return ctx.JSON(http.StatusCreated, assets)
}

func (api *mediaApi) delete(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting file")
	}
	return ctx.NoContent(http.StatusNoContent)
}
