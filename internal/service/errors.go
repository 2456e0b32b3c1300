package service

import "errors"

var (
	// ErrDuplicateArticle is returned when create-only ingestion hits an
	// already-registered synonym.
	ErrDuplicateArticle = errors.New("article synonym is already registered")
	// ErrArticleNotFound is returned when a read-side lookup matches no article.
	ErrArticleNotFound = errors.New("article not found")
	// ErrImageNotFound is returned when an image file lookup matches no
	// servable image.
	ErrImageNotFound = errors.New("image not found")
	// ErrInvalidPage is returned for non-positive page arguments.
	ErrInvalidPage = errors.New("page and page size must be positive")
)
