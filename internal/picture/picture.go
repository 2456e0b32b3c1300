// Package picture generates the resolution variants of an article image
// and manages the files backing them on disk. Non-original variants live
// in an "opened" directory readable by the front-facing process; the
// original file is kept in a "protected" directory readable only by the
// backend.
package picture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/emrgen/blog/internal/model"
)

// ErrUnreadableImage is returned when image bytes cannot be decoded.
var ErrUnreadableImage = errors.New("image bytes cannot be decoded")

const compareBufSize = 8 * 1024

var resolutionWidths = []struct {
	resolution model.ImageResolution
	width      int
}{
	{model.ResolutionLow, 320},
	{model.ResolutionMedium, 640},
	{model.ResolutionLarge, 960},
	{model.ResolutionHigh, 1280},
}

// Variant is one generated resolution of a source image.
type Variant struct {
	Resolution model.ImageResolution
	Width      int
	Height     int
	Image      image.Image
}

// Variants decodes data and returns the original plus every applicable
// downscale in ascending width order. Generation stops at the first
// target wider than the source; if the source is narrower than even the
// Low target, Low receives a duplicate of the original so a fallback
// always exists.
func Variants(data []byte) ([]Variant, error) {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnreadableImage, err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	variants := []Variant{{
		Resolution: model.ResolutionOriginal,
		Width:      width,
		Height:     height,
		Image:      src,
	}}

	for _, step := range resolutionWidths {
		if step.width > width {
			if step.resolution == model.ResolutionLow {
				variants = append(variants, Variant{
					Resolution: model.ResolutionLow,
					Width:      width,
					Height:     height,
					Image:      src,
				})
			}
			break
		}
		scaledHeight := int(math.Round(float64(height) * float64(step.width) / float64(width)))
		variants = append(variants, Variant{
			Resolution: step.resolution,
			Width:      step.width,
			Height:     scaledHeight,
			Image:      imaging.Resize(src, step.width, scaledHeight, imaging.Lanczos),
		})
	}

	return variants, nil
}

// Equal reports whether data matches the content of the file at path,
// compared chunk by chunk.
func Equal(data []byte, path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, compareBufSize)
	offset := 0
	for {
		n, err := f.Read(buf)
		if n > 0 {
			if offset+n > len(data) || !bytes.Equal(data[offset:offset+n], buf[:n]) {
				return false, nil
			}
			offset += n
		}
		if errors.Is(err, io.EOF) {
			return offset == len(data), nil
		}
		if err != nil {
			return false, err
		}
	}
}

// Store resolves image rows to file paths and writes variant files with
// the ownership split between the opened and protected directories.
type Store struct {
	OpenedDir      string
	ProtectedDir   string
	OpenedGroup    string
	ProtectedGroup string
}

// FullPath returns the on-disk path backing an image row.
func (s *Store) FullPath(entry *model.Image) string {
	if entry.Resolution == model.ResolutionOriginal {
		return filepath.Join(s.ProtectedDir, entry.FileName())
	}
	return filepath.Join(s.OpenedDir, entry.FileName())
}

// SaveOriginal writes the archived bytes verbatim into the protected
// directory.
func (s *Store) SaveOriginal(entry *model.Image, data []byte) error {
	path := s.FullPath(entry)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return err
	}
	return s.applyOwnership(path, entry.Resolution)
}

// SaveVariant encodes a generated variant into the opened directory. The
// format is inferred from the file extension.
func (s *Store) SaveVariant(entry *model.Image, img image.Image) error {
	path := s.FullPath(entry)
	if err := imaging.Save(img, path); err != nil {
		return err
	}
	return s.applyOwnership(path, entry.Resolution)
}

// Remove unlinks the file backing an image row. A missing file is not an
// error.
func (s *Store) Remove(entry *model.Image) error {
	err := os.Remove(s.FullPath(entry))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// applyOwnership shares opened files with the front-end server's group
// and masks originals to the backend group. Only the backend runner can
// modify image files.
func (s *Store) applyOwnership(path string, resolution model.ImageResolution) error {
	group := s.OpenedGroup
	if resolution == model.ResolutionOriginal {
		group = s.ProtectedGroup
	}
	if group == "" {
		return nil
	}

	grp, err := user.LookupGroup(group)
	if err != nil {
		return err
	}
	gid, err := strconv.Atoi(grp.Gid)
	if err != nil {
		return err
	}
	if err := os.Chown(path, -1, gid); err != nil {
		return err
	}
	return os.Chmod(path, 0o640)
}
