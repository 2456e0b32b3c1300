package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/emrgen/blog/internal/model"
	"github.com/emrgen/blog/internal/picture"
	"github.com/emrgen/blog/internal/store"
)

// ImageService resolves served file names to on-disk paths.
type ImageService struct {
	store    store.Store
	pictures *picture.Store
}

func NewImageService(s store.Store, pictures *picture.Store) *ImageService {
	return &ImageService{store: s, pictures: pictures}
}

// FilePath resolves a generated file name to the full path of the file.
// Protected original-resolution images are never resolved.
func (s *ImageService) FilePath(ctx context.Context, fileName string) (string, error) {
	entry, err := s.store.GetImageByFileName(ctx, fileName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrImageNotFound, err)
		}
		return "", err
	}
	if entry.Resolution == model.ResolutionOriginal {
		return "", fmt.Errorf("%w: %q is not servable", ErrImageNotFound, fileName)
	}
	return s.pictures.FullPath(entry), nil
}
