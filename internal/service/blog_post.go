package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/emrgen/blog/internal/cache"
	"github.com/emrgen/blog/internal/model"
	"github.com/emrgen/blog/internal/store"
	"github.com/sirupsen/logrus"
)

const timestampFormat = "20060102-150405"

// PostSummary is one entry of a paginated listing.
type PostSummary struct {
	Title     string   `json:"title"`
	Synonym   string   `json:"synonym"`
	Timestamp string   `json:"timestamp"`
	Tags      []string `json:"tags"`
}

// PostPage is a listing page ordered newest first. HasNextPage reports
// whether a newer page exists, HasPrevPage whether an older one does.
type PostPage struct {
	PageNum     int           `json:"page_num"`
	Tag         string        `json:"tag,omitempty"`
	HasNextPage bool          `json:"has_next_page"`
	HasPrevPage bool          `json:"has_prev_page"`
	Posts       []PostSummary `json:"posts"`
}

// PostDetail is a single rendered post.
type PostDetail struct {
	Title       string   `json:"title"`
	Timestamp   string   `json:"timestamp"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
	SynonymPrev string   `json:"synonym_prev,omitempty"`
	SynonymNext string   `json:"synonym_next,omitempty"`
}

// BlogService serves the read side: paginated listings, single posts,
// and the tag index.
type BlogService struct {
	store store.Store
	cache *cache.PostCache
}

// NewBlogService creates the read-side service. cache may be nil.
func NewBlogService(s store.Store, postCache *cache.PostCache) *BlogService {
	return &BlogService{store: s, cache: postCache}
}

// PostsByPage lists one page of posts, optionally restricted to a tag.
// A page past the end of the corpus fails with ErrArticleNotFound.
func (b *BlogService) PostsByPage(ctx context.Context, page, pageSize int, tag string) (*PostPage, error) {
	if page <= 0 || pageSize <= 0 {
		return nil, fmt.Errorf("%w: page=%d page_size=%d", ErrInvalidPage, page, pageSize)
	}

	// One extra row is fetched to probe for an older page.
	offset := (page - 1) * pageSize
	articles, err := b.store.ListArticles(ctx, offset, pageSize+1, tag)
	if err != nil {
		return nil, err
	}
	hasPrev := len(articles) == pageSize+1
	if hasPrev {
		articles = articles[:pageSize]
	}
	if len(articles) == 0 && page > 1 {
		return nil, fmt.Errorf("%w: page %d is out of range", ErrArticleNotFound, page)
	}

	posts := make([]PostSummary, 0, len(articles))
	for _, article := range articles {
		tags, err := b.store.ListTagNamesByArticle(ctx, article.ID)
		if err != nil {
			return nil, err
		}
		posts = append(posts, PostSummary{
			Title:     article.Title,
			Synonym:   article.Synonym,
			Timestamp: article.CreatedAt.Format(timestampFormat),
			Tags:      tags,
		})
	}

	return &PostPage{
		PageNum:     page,
		Tag:         tag,
		HasNextPage: page != 1,
		HasPrevPage: hasPrev,
		Posts:       posts,
	}, nil
}

// PostData returns a single rendered post by synonym.
func (b *BlogService) PostData(ctx context.Context, synonym string) (*PostDetail, error) {
	if b.cache != nil {
		var detail PostDetail
		hit, err := b.cache.GetPost(ctx, synonym, &detail)
		if err != nil {
			logrus.Warnf("post cache read failed for %q: %v", synonym, err)
		} else if hit {
			return &detail, nil
		}
	}

	article, err := b.store.GetArticleBySynonym(ctx, synonym)
	if err != nil {
		return nil, notFound(err)
	}
	compiled, err := b.store.GetCompiledArticleData(ctx, article.ID)
	if err != nil {
		return nil, notFound(err)
	}
	tags, err := b.store.ListTagNamesByArticle(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	prev, err := b.store.PrevArticleSynonym(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	next, err := b.store.NextArticleSynonym(ctx, article.ID)
	if err != nil {
		return nil, err
	}

	detail := &PostDetail{
		Title:       article.Title,
		Timestamp:   article.CreatedAt.Format(timestampFormat),
		Content:     compiled.Data,
		Tags:        tags,
		SynonymPrev: prev,
		SynonymNext: next,
	}

	if b.cache != nil {
		if err := b.cache.SetPost(ctx, synonym, detail); err != nil {
			logrus.Warnf("post cache write failed for %q: %v", synonym, err)
		}
	}
	return detail, nil
}

// AllTags lists every tag name alphabetically.
func (b *BlogService) AllTags(ctx context.Context) ([]string, error) {
	return b.store.ListAllTagNames(ctx)
}

// ListEditHistories returns the append-only edit records of a post.
func (b *BlogService) ListEditHistories(ctx context.Context, synonym string) ([]*model.ArticleEditHistory, error) {
	article, err := b.store.GetArticleBySynonym(ctx, synonym)
	if err != nil {
		return nil, notFound(err)
	}
	return b.store.ListEditHistories(ctx, article.ID)
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrArticleNotFound, err)
	}
	return err
}
