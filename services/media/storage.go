package mediasvc

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/media"
)

// NewStorage returns the media.Storage selected by conf.Media.Driver.
func NewStorage(conf *core.Config) (media.Storage, error) {
	switch conf.Media.Driver {
	case "gcs":
		return NewGCSStorage(context.Background(), conf)
	case "local", "":
		return NewLocalStorage(conf)
	default:
		return nil, errors.Errorf("unknown media driver %q", conf.Media.Driver)
	}
}
