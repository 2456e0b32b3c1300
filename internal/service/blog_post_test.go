package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/emrgen/blog/internal/model"
	"github.com/emrgen/blog/internal/tester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedPosts ingests count text-only posts named post-01..post-NN, each
// tagged "all" plus "even" or "odd" by index.
func seedPosts(t *testing.T, updater *PostUpdater, count int) {
	t.Helper()
	ctx := context.TODO()
	for i := 1; i <= count; i++ {
		parity := "odd"
		if i%2 == 0 {
			parity = "even"
		}
		spec := bundleSpec{
			title:   fmt.Sprintf("Post %02d", i),
			tags:    []string{"all", parity},
			version: "v1",
			rawDoc:  fmt.Sprintf("body %d\n", i),
		}
		synonym := fmt.Sprintf("post-%02d", i)
		require.NoError(t, updater.UploadArticle(ctx, writeBundle(t, spec), synonym, true))
	}
}

func TestBlogService_PostsByPage(t *testing.T) {
	tester.Setup()
	updater, st := newUpdater()
	seedPosts(t, updater, 25)
	blog := NewBlogService(st, nil)
	ctx := context.TODO()

	// The first page shows the newest posts and links to older ones.
	page, err := blog.PostsByPage(ctx, 1, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 1, page.PageNum)
	assert.False(t, page.HasNextPage)
	assert.True(t, page.HasPrevPage)
	require.Len(t, page.Posts, 10)
	assert.Equal(t, "post-25", page.Posts[0].Synonym)
	assert.Equal(t, "post-16", page.Posts[9].Synonym)
	assert.Equal(t, "Post 25", page.Posts[0].Title)
	assert.ElementsMatch(t, []string{"all", "odd"}, page.Posts[0].Tags)

	// The last page is short and only links back to newer posts.
	page, err = blog.PostsByPage(ctx, 3, 10, "")
	require.NoError(t, err)
	assert.True(t, page.HasNextPage)
	assert.False(t, page.HasPrevPage)
	require.Len(t, page.Posts, 5)
	assert.Equal(t, "post-05", page.Posts[0].Synonym)
	assert.Equal(t, "post-01", page.Posts[4].Synonym)

	_, err = blog.PostsByPage(ctx, 4, 10, "")
	assert.ErrorIs(t, err, ErrArticleNotFound)

	_, err = blog.PostsByPage(ctx, 0, 10, "")
	assert.ErrorIs(t, err, ErrInvalidPage)
	_, err = blog.PostsByPage(ctx, -2, 10, "")
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestBlogService_PostsByPageExactFit(t *testing.T) {
	tester.Setup()
	updater, st := newUpdater()
	seedPosts(t, updater, 10)
	blog := NewBlogService(st, nil)

	// Exactly one full page: the probe row is absent, so no older page.
	page, err := blog.PostsByPage(context.TODO(), 1, 10, "")
	require.NoError(t, err)
	require.Len(t, page.Posts, 10)
	assert.False(t, page.HasPrevPage)
}

func TestBlogService_PostsByPageTagFilter(t *testing.T) {
	tester.Setup()
	updater, st := newUpdater()
	seedPosts(t, updater, 25)
	blog := NewBlogService(st, nil)
	ctx := context.TODO()

	page, err := blog.PostsByPage(ctx, 1, 10, "even")
	require.NoError(t, err)
	assert.Equal(t, "even", page.Tag)
	require.Len(t, page.Posts, 10)
	assert.Equal(t, "post-24", page.Posts[0].Synonym)
	assert.True(t, page.HasPrevPage)

	page, err = blog.PostsByPage(ctx, 2, 10, "even")
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, "post-02", page.Posts[1].Synonym)
	assert.False(t, page.HasPrevPage)

	_, err = blog.PostsByPage(ctx, 2, 10, "no-such-tag")
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestBlogService_PostData(t *testing.T) {
	tester.Setup()
	updater, st := newUpdater()
	seedPosts(t, updater, 3)
	blog := NewBlogService(st, nil)
	ctx := context.TODO()

	detail, err := blog.PostData(ctx, "post-02")
	require.NoError(t, err)
	assert.Equal(t, "Post 02", detail.Title)
	assert.Contains(t, detail.Content, "Post 02")
	assert.Equal(t, "post-01", detail.SynonymPrev)
	assert.Equal(t, "post-03", detail.SynonymNext)

	// The corpus boundaries have no neighbor on one side.
	detail, err = blog.PostData(ctx, "post-01")
	require.NoError(t, err)
	assert.Empty(t, detail.SynonymPrev)
	assert.Equal(t, "post-02", detail.SynonymNext)

	detail, err = blog.PostData(ctx, "post-03")
	require.NoError(t, err)
	assert.Equal(t, "post-02", detail.SynonymPrev)
	assert.Empty(t, detail.SynonymNext)

	_, err = blog.PostData(ctx, "missing-post")
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestBlogService_AllTags(t *testing.T) {
	tester.Setup()
	updater, st := newUpdater()
	seedPosts(t, updater, 3)
	blog := NewBlogService(st, nil)

	tags, err := blog.AllTags(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, []string{"all", "even", "odd"}, tags)
}

func TestBlogService_ListEditHistories(t *testing.T) {
	tester.Setup()
	updater, st := newUpdater()
	ctx := context.TODO()

	require.NoError(t, updater.UploadArticle(ctx, writeBundle(t, baseBundle(t)), "edited-post", true))
	changed := baseBundle(t)
	changed.title = "Hello Edited"
	require.NoError(t, updater.UploadArticle(ctx, writeBundle(t, changed), "edited-post", false))

	blog := NewBlogService(st, nil)
	histories, err := blog.ListEditHistories(ctx, "edited-post")
	require.NoError(t, err)
	require.Len(t, histories, 1)
	require.NotNil(t, histories[0].PreviousTitle)
	assert.Equal(t, "Hello World", *histories[0].PreviousTitle)

	_, err = blog.ListEditHistories(ctx, "missing-post")
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestImageService_FilePath(t *testing.T) {
	tester.Setup()
	updater, st := newUpdater()
	ctx := context.TODO()

	require.NoError(t, updater.UploadArticle(ctx, writeBundle(t, baseBundle(t)), "image-post", true))
	article, err := st.GetArticleBySynonym(ctx, "image-post")
	require.NoError(t, err)
	entries, err := st.ListImagesByArticle(ctx, article.ID, true)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	images := NewImageService(st, tester.Pictures())
	for _, entry := range entries {
		path, err := images.FilePath(ctx, entry.FileName())
		if entry.Resolution == model.ResolutionOriginal {
			assert.ErrorIs(t, err, ErrImageNotFound, "original files are never served")
			continue
		}
		require.NoError(t, err)
		assert.FileExists(t, path)
	}

	_, err = images.FilePath(ctx, "9a1c2f00-0000-0000-0000-000000000000.png")
	assert.ErrorIs(t, err, ErrImageNotFound)

	_, err = images.FilePath(ctx, "not-a-uuid.png")
	assert.ErrorIs(t, err, ErrImageNotFound)
}
