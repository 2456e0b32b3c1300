package store

import (
	"context"
	"errors"
	"time"

	"github.com/emrgen/blog/internal/model"
	"github.com/google/uuid"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("record not found")

type Store interface {
	ArticleStore
	RawArticleDataStore
	CompiledArticleDataStore
	EditHistoryStore
	TagStore
	ImageStore
	// Transaction runs f against a store bound to a single database
	// transaction. The transaction commits when f returns nil and rolls
	// back otherwise.
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type ArticleStore interface {
	// CreateArticle creates a new article.
	CreateArticle(ctx context.Context, article *model.Article) error
	// GetArticleBySynonym retrieves an article by its synonym.
	GetArticleBySynonym(ctx context.Context, synonym string) (*model.Article, error)
	// SaveArticle persists changes to an existing article.
	SaveArticle(ctx context.Context, article *model.Article) error
	// ListArticles retrieves articles ordered by id descending, optionally
	// restricted to a tag name.
	ListArticles(ctx context.Context, offset, limit int, tag string) ([]*model.Article, error)
	// PrevArticleSynonym returns the synonym of the closest article with a
	// smaller id, or "" when none exists.
	PrevArticleSynonym(ctx context.Context, articleID uint) (string, error)
	// NextArticleSynonym returns the synonym of the closest article with a
	// larger id, or "" when none exists.
	NextArticleSynonym(ctx context.Context, articleID uint) (string, error)
}

type RawArticleDataStore interface {
	// GetRawArticleData retrieves the raw document of an article.
	GetRawArticleData(ctx context.Context, articleID uint) (*model.RawArticleData, error)
	// SaveRawArticleData creates or updates the raw document of an article.
	SaveRawArticleData(ctx context.Context, raw *model.RawArticleData) error
}

type CompiledArticleDataStore interface {
	// GetCompiledArticleData retrieves the compiled document of an article.
	GetCompiledArticleData(ctx context.Context, articleID uint) (*model.CompiledArticleData, error)
	// SaveCompiledArticleData creates or updates the compiled document of an article.
	SaveCompiledArticleData(ctx context.Context, compiled *model.CompiledArticleData) error
}

type EditHistoryStore interface {
	// CreateEditHistory appends an edit history entry. Existing entries are
	// never modified.
	CreateEditHistory(ctx context.Context, entry *model.ArticleEditHistory) error
	// ListEditHistories retrieves all history entries of an article.
	ListEditHistories(ctx context.Context, articleID uint) ([]*model.ArticleEditHistory, error)
}

type TagStore interface {
	// GetOrCreateTags resolves tag names to rows, creating missing ones.
	GetOrCreateTags(ctx context.Context, names []string) ([]*model.Tag, error)
	// ListArticleTags retrieves the tag links of an article with tags preloaded.
	ListArticleTags(ctx context.Context, articleID uint) ([]*model.ArticleTag, error)
	// CreateArticleTags links tags to articles, skipping pairs that already exist.
	CreateArticleTags(ctx context.Context, links []*model.ArticleTag) error
	// DeleteArticleTags removes the given links.
	DeleteArticleTags(ctx context.Context, links []*model.ArticleTag) error
	// ListTagNamesByArticle retrieves the tag names of an article.
	ListTagNamesByArticle(ctx context.Context, articleID uint) ([]string, error)
	// ListAllTagNames retrieves every tag name ordered alphabetically.
	ListAllTagNames(ctx context.Context) ([]string, error)
}

// ImageStore queries live rows only unless the method says otherwise;
// soft-deleted rows are reachable through the IncludingDeleted and
// DeletedBefore surfaces.
type ImageStore interface {
	// ListOriginalImages retrieves the live original-resolution rows of an
	// article, one per alias.
	ListOriginalImages(ctx context.Context, articleID uint) ([]*model.Image, error)
	// ListImagesByAliases retrieves live rows for the given aliases.
	ListImagesByAliases(ctx context.Context, articleID uint, aliases []string, includeOriginal bool) ([]*model.Image, error)
	// ListImagesExcludingAliases retrieves live rows whose alias is not in
	// aliases, ordered by (alias, resolution).
	ListImagesExcludingAliases(ctx context.Context, articleID uint, aliases []string) ([]*model.Image, error)
	// ListImagesByArticle retrieves the live derived rows of an article,
	// excluding originals unless includeOriginal is set.
	ListImagesByArticle(ctx context.Context, articleID uint, includeOriginal bool) ([]*model.Image, error)
	// ListImagesIncludingDeleted retrieves every row of an article, tombstoned
	// ones included.
	ListImagesIncludingDeleted(ctx context.Context, articleID uint) ([]*model.Image, error)
	// ListDeletedImagesBefore retrieves tombstoned rows deleted before cutoff.
	ListDeletedImagesBefore(ctx context.Context, cutoff time.Time) ([]*model.Image, error)
	// CreateImages inserts new image rows.
	CreateImages(ctx context.Context, images []*model.Image) error
	// SoftDeleteImages tombstones the given rows.
	SoftDeleteImages(ctx context.Context, images []*model.Image) error
	// PurgeImage removes a tombstoned row permanently.
	PurgeImage(ctx context.Context, id uuid.UUID) error
	// GetImageByFileName retrieves a live row by its generated file name.
	GetImageByFileName(ctx context.Context, fileName string) (*model.Image, error)
}
