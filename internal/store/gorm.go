package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emrgen/blog/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

// wrapNotFound maps gorm's miss error onto the store sentinel so callers
// never import gorm to test for it.
func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, err)
	}
	return err
}

func (g *GormStore) CreateArticle(ctx context.Context, article *model.Article) error {
	return g.db.WithContext(ctx).Create(article).Error
}

func (g *GormStore) GetArticleBySynonym(ctx context.Context, synonym string) (*model.Article, error) {
	var article model.Article
	err := g.db.WithContext(ctx).Where("synonym = ?", synonym).First(&article).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &article, nil
}

func (g *GormStore) SaveArticle(ctx context.Context, article *model.Article) error {
	return g.db.WithContext(ctx).Save(article).Error
}

func (g *GormStore) ListArticles(ctx context.Context, offset, limit int, tag string) ([]*model.Article, error) {
	var articles []*model.Article
	query := g.db.WithContext(ctx).Model(&model.Article{})
	if tag != "" {
		query = query.
			Joins("JOIN article_tags ON article_tags.article_id = articles.id").
			Joins("JOIN tags ON tags.id = article_tags.tag_id").
			Where("tags.tag_name = ?", tag)
	}
	err := query.Order("articles.id desc").Offset(offset).Limit(limit).Find(&articles).Error
	return articles, err
}

func (g *GormStore) PrevArticleSynonym(ctx context.Context, articleID uint) (string, error) {
	return g.adjacentSynonym(ctx, "id < ?", "id desc", articleID)
}

func (g *GormStore) NextArticleSynonym(ctx context.Context, articleID uint) (string, error) {
	return g.adjacentSynonym(ctx, "id > ?", "id asc", articleID)
}

func (g *GormStore) adjacentSynonym(ctx context.Context, cond, order string, articleID uint) (string, error) {
	var synonyms []string
	err := g.db.WithContext(ctx).Model(&model.Article{}).
		Where(cond, articleID).Order(order).Limit(1).
		Pluck("synonym", &synonyms).Error
	if err != nil || len(synonyms) == 0 {
		return "", err
	}
	return synonyms[0], nil
}

func (g *GormStore) GetRawArticleData(ctx context.Context, articleID uint) (*model.RawArticleData, error) {
	var raw model.RawArticleData
	err := g.db.WithContext(ctx).Where("article_id = ?", articleID).First(&raw).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &raw, nil
}

func (g *GormStore) SaveRawArticleData(ctx context.Context, raw *model.RawArticleData) error {
	return g.db.WithContext(ctx).Save(raw).Error
}

func (g *GormStore) GetCompiledArticleData(ctx context.Context, articleID uint) (*model.CompiledArticleData, error) {
	var compiled model.CompiledArticleData
	err := g.db.WithContext(ctx).Where("article_id = ?", articleID).First(&compiled).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &compiled, nil
}

func (g *GormStore) SaveCompiledArticleData(ctx context.Context, compiled *model.CompiledArticleData) error {
	return g.db.WithContext(ctx).Save(compiled).Error
}

func (g *GormStore) CreateEditHistory(ctx context.Context, entry *model.ArticleEditHistory) error {
	return g.db.WithContext(ctx).Create(entry).Error
}

func (g *GormStore) ListEditHistories(ctx context.Context, articleID uint) ([]*model.ArticleEditHistory, error) {
	var entries []*model.ArticleEditHistory
	err := g.db.WithContext(ctx).Where("article_id = ?", articleID).Find(&entries).Error
	return entries, err
}

func (g *GormStore) GetOrCreateTags(ctx context.Context, names []string) ([]*model.Tag, error) {
	tags := make([]*model.Tag, 0, len(names))
	for _, name := range names {
		tag := &model.Tag{}
		err := g.db.WithContext(ctx).Where(model.Tag{TagName: name}).FirstOrCreate(tag).Error
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (g *GormStore) ListArticleTags(ctx context.Context, articleID uint) ([]*model.ArticleTag, error) {
	var links []*model.ArticleTag
	err := g.db.WithContext(ctx).Preload("Tag").Where("article_id = ?", articleID).Find(&links).Error
	return links, err
}

func (g *GormStore) CreateArticleTags(ctx context.Context, links []*model.ArticleTag) error {
	for _, link := range links {
		err := g.db.WithContext(ctx).
			Where(model.ArticleTag{ArticleID: link.ArticleID, TagID: link.TagID}).
			FirstOrCreate(link).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (g *GormStore) DeleteArticleTags(ctx context.Context, links []*model.ArticleTag) error {
	if len(links) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(links))
	for _, link := range links {
		ids = append(ids, link.ID)
	}
	return g.db.WithContext(ctx).Delete(&model.ArticleTag{}, "id IN ?", ids).Error
}

func (g *GormStore) ListTagNamesByArticle(ctx context.Context, articleID uint) ([]string, error) {
	var names []string
	err := g.db.WithContext(ctx).Model(&model.Tag{}).
		Joins("JOIN article_tags ON article_tags.tag_id = tags.id").
		Where("article_tags.article_id = ?", articleID).
		Order("tags.tag_name").
		Pluck("tags.tag_name", &names).Error
	return names, err
}

func (g *GormStore) ListAllTagNames(ctx context.Context) ([]string, error) {
	var names []string
	err := g.db.WithContext(ctx).Model(&model.Tag{}).
		Order("tag_name").Pluck("tag_name", &names).Error
	return names, err
}

func (g *GormStore) ListOriginalImages(ctx context.Context, articleID uint) ([]*model.Image, error) {
	var images []*model.Image
	err := g.db.WithContext(ctx).
		Where("article_id = ? AND resolution = ?", articleID, model.ResolutionOriginal).
		Find(&images).Error
	return images, err
}

func (g *GormStore) ListImagesByAliases(ctx context.Context, articleID uint, aliases []string, includeOriginal bool) ([]*model.Image, error) {
	if len(aliases) == 0 {
		return nil, nil
	}
	var images []*model.Image
	query := g.db.WithContext(ctx).Where("article_id = ? AND alias IN ?", articleID, aliases)
	if !includeOriginal {
		query = query.Where("resolution <> ?", model.ResolutionOriginal)
	}
	err := query.Find(&images).Error
	return images, err
}

func (g *GormStore) ListImagesExcludingAliases(ctx context.Context, articleID uint, aliases []string) ([]*model.Image, error) {
	var images []*model.Image
	query := g.db.WithContext(ctx).Where("article_id = ?", articleID)
	if len(aliases) > 0 {
		query = query.Where("alias NOT IN ?", aliases)
	}
	err := query.Order("alias, resolution").Find(&images).Error
	return images, err
}

func (g *GormStore) ListImagesByArticle(ctx context.Context, articleID uint, includeOriginal bool) ([]*model.Image, error) {
	var images []*model.Image
	query := g.db.WithContext(ctx).Where("article_id = ?", articleID)
	if !includeOriginal {
		query = query.Where("resolution <> ?", model.ResolutionOriginal)
	}
	err := query.Find(&images).Error
	return images, err
}

func (g *GormStore) ListImagesIncludingDeleted(ctx context.Context, articleID uint) ([]*model.Image, error) {
	var images []*model.Image
	err := g.db.WithContext(ctx).Unscoped().
		Where("article_id = ?", articleID).Find(&images).Error
	return images, err
}

func (g *GormStore) ListDeletedImagesBefore(ctx context.Context, cutoff time.Time) ([]*model.Image, error) {
	var images []*model.Image
	err := g.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Find(&images).Error
	return images, err
}

func (g *GormStore) CreateImages(ctx context.Context, images []*model.Image) error {
	if len(images) == 0 {
		return nil
	}
	return g.db.WithContext(ctx).CreateInBatches(images, 100).Error
}

func (g *GormStore) SoftDeleteImages(ctx context.Context, images []*model.Image) error {
	if len(images) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(images))
	for _, img := range images {
		ids = append(ids, img.UUID)
	}
	return g.db.WithContext(ctx).Delete(&model.Image{}, "uuid IN ?", ids).Error
}

func (g *GormStore) PurgeImage(ctx context.Context, id uuid.UUID) error {
	return g.db.WithContext(ctx).Unscoped().Delete(&model.Image{}, "uuid = ?", id).Error
}

func (g *GormStore) GetImageByFileName(ctx context.Context, fileName string) (*model.Image, error) {
	idx := strings.LastIndex(fileName, ".")
	if idx <= 0 || idx == len(fileName)-1 {
		return nil, fmt.Errorf("%w: malformed image file name %q", ErrNotFound, fileName)
	}
	id, err := uuid.Parse(fileName[:idx])
	if err != nil {
		return nil, fmt.Errorf("%w: malformed image file name %q", ErrNotFound, fileName)
	}

	var image model.Image
	err = g.db.WithContext(ctx).
		Where("uuid = ? AND extension = ?", id, fileName[idx+1:]).
		First(&image).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &image, nil
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}
