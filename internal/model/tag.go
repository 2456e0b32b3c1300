package model

import "time"

// Tag names are global and shared across articles, created lazily on
// first use.
type Tag struct {
	ID      uint   `gorm:"primaryKey"`
	TagName string `gorm:"uniqueIndex;size:50;not null"`
}

// ArticleTag links an article to a tag. The pair is unique.
type ArticleTag struct {
	ID        uint `gorm:"primaryKey"`
	ArticleID uint `gorm:"uniqueIndex:idx_article_tag_identity;not null"`
	TagID     uint `gorm:"uniqueIndex:idx_article_tag_identity;not null"`
	Tag       *Tag `gorm:"foreignKey:TagID"`
	CreatedAt time.Time
}
