package model

import (
	"time"
)

// Article is the root entity of a blog post. The synonym is the
// human-readable slug used in URLs and is immutable once created.
type Article struct {
	ID        uint   `gorm:"primaryKey"`
	Synonym   string `gorm:"uniqueIndex;size:100;not null"`
	Title     string `gorm:"size:200;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RawArticleData holds the markdown source of an article together with
// the caller-supplied version string. One row per article.
type RawArticleData struct {
	ArticleID uint     `gorm:"primaryKey"`
	Article   *Article `gorm:"foreignKey:ArticleID"`
	Version   string   `gorm:"size:30;not null"`
	Data      string   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CompiledArticleData holds the rendered markup with image placeholders
// resolved to served variant URLs. Regenerated whenever the version, the
// raw body, or the image set changes.
type CompiledArticleData struct {
	ArticleID uint     `gorm:"primaryKey"`
	Article   *Article `gorm:"foreignKey:ArticleID"`
	Data      string   `gorm:"not null"`
	UpdatedAt time.Time
}

// ArticleEditHistory is an append-only record of one article update.
// A row exists only for updates that changed the title, the version, or
// the raw body. The patches convert the stored body to the incoming one
// (UpdateData) and back (RecoverData).
//
// PreviousSynonym is reserved for a future synonym-rename flow and is
// never set by the current ingestion logic.
type ArticleEditHistory struct {
	ID              uint `gorm:"primaryKey"`
	ArticleID       uint `gorm:"index;not null"`
	CreatedAt       time.Time
	PreviousTitle   *string `gorm:"size:200"`
	PreviousSynonym *string `gorm:"size:100"`
	PreviousVersion *string `gorm:"size:30"`
	UpdateData      *string
	RecoverData     *string
}

func (ArticleEditHistory) TableName() string {
	return "article_edit_histories"
}
