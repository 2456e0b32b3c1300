package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImageResolution identifies one generated variant of an article image.
// Only use ResolutionOriginal when the image should be the single
// available size; originals are never served directly.
type ImageResolution int

// General resolution scale by image width:
//
//	Low    --  320px  << fallback for old browsers
//	Medium --  640px
//	Large  --  960px
//	High   -- 1280px
const (
	ResolutionOriginal ImageResolution = iota + 1
	ResolutionLow
	ResolutionMedium
	ResolutionLarge
	ResolutionHigh
)

func (r ImageResolution) String() string {
	switch r {
	case ResolutionOriginal:
		return "original"
	case ResolutionLow:
		return "low"
	case ResolutionMedium:
		return "medium"
	case ResolutionLarge:
		return "large"
	case ResolutionHigh:
		return "high"
	}
	return fmt.Sprintf("resolution(%d)", int(r))
}

// Image is one stored variant of an article image. Rows are
// soft-deleted so previously served files stay queryable for cleanup.
// For a given (article, alias) there is at most one live row per
// resolution.
type Image struct {
	UUID       uuid.UUID `gorm:"primaryKey;type:uuid"`
	ArticleID  uint      `gorm:"index:idx_image_resolution_group;index:idx_image_identity;not null"`
	Alias      string    `gorm:"index:idx_image_resolution_group;index:idx_image_identity;size:100;not null"`
	Extension  string    `gorm:"size:10;not null"`
	Resolution ImageResolution `gorm:"index:idx_image_identity"`
	Width      int
	Height     int
	CreatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

// FileName is the served file name, derived from the generated id so
// concurrent writes to different images never collide.
func (i *Image) FileName() string {
	return fmt.Sprintf("%s.%s", i.UUID.String(), i.Extension)
}
