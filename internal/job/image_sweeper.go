package job

import (
	"context"
	"time"

	"github.com/emrgen/blog/internal/picture"
	"github.com/emrgen/blog/internal/store"
	"github.com/sirupsen/logrus"
)

// ImageSweeper purges image rows that have been tombstoned longer than
// the retention window and unlinks the files backing them. Tombstoned
// rows inside the window stay queryable for audit.
type ImageSweeper struct {
	store     store.Store
	pictures  *picture.Store
	retention time.Duration
}

func NewImageSweeper(s store.Store, pictures *picture.Store, retention time.Duration) *ImageSweeper {
	return &ImageSweeper{store: s, pictures: pictures, retention: retention}
}

func (s *ImageSweeper) Schedule() string {
	return "@daily"
}

func (s *ImageSweeper) Run() {
	ctx := context.Background()
	cutoff := time.Now().Add(-s.retention)

	images, err := s.store.ListDeletedImagesBefore(ctx, cutoff)
	if err != nil {
		logrus.Errorf("image sweep failed to list tombstoned rows: %v", err)
		return
	}
	if len(images) == 0 {
		return
	}

	logrus.Infof("sweeping %d tombstoned images deleted before %s", len(images), cutoff.Format(time.RFC3339))
	for _, entry := range images {
		if err := s.pictures.Remove(entry); err != nil {
			logrus.Warnf("failed to remove file %q, keeping row for the next sweep: %v", entry.FileName(), err)
			continue
		}
		if err := s.store.PurgeImage(ctx, entry.UUID); err != nil {
			logrus.Errorf("failed to purge image row %s: %v", entry.UUID, err)
		}
	}
}
