package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/blog/internal/archive"
	"github.com/emrgen/blog/internal/cache"
	"github.com/emrgen/blog/internal/markup"
	"github.com/emrgen/blog/internal/model"
	"github.com/emrgen/blog/internal/patch"
	"github.com/emrgen/blog/internal/picture"
	"github.com/emrgen/blog/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	imageAliasAttr   = "alias"
	imageClassAttr   = "class"
	imageSrcAttr     = "src"
	imageSrcSetAttr  = "data-srcset"
	lazyloadSizeAttr = "data-sizes"

	imageURLRoute    = "/img/"
	classLazyload    = "lazyload"
	lazyloadSizeAuto = "auto"
)

// stagedImage is an image row awaiting insertion plus the buffer that
// backs its file. Originals carry no buffer; their bytes are copied
// verbatim from the archive.
type stagedImage struct {
	entry *model.Image
	image image.Image
}

// PostUpdater ingests article bundles: it reconciles a validated
// submission against stored state, commits the minimal write set in one
// transaction, and materializes image files after the commit succeeds.
type PostUpdater struct {
	store    store.Store
	pictures *picture.Store
	cache    *cache.PostCache
}

// NewPostUpdater creates the ingestion service. cache may be nil.
func NewPostUpdater(s store.Store, pictures *picture.Store, postCache *cache.PostCache) *PostUpdater {
	return &PostUpdater{store: s, pictures: pictures, cache: postCache}
}

// UploadArticle ingests the bundle at bundlePath under the given
// synonym. With createOnly set, an already-registered synonym fails with
// ErrDuplicateArticle before any state is touched.
func (u *PostUpdater) UploadArticle(ctx context.Context, bundlePath, synonym string, createOnly bool) error {
	logrus.Info("reading target archive file...")
	f, err := os.Open(bundlePath)
	if err != nil {
		return err
	}
	defer f.Close()

	logrus.Info("validating archive...")
	doc, err := archive.Read(f)
	if err != nil {
		return err
	}

	article, err := u.store.GetArticleBySynonym(ctx, synonym)
	switch {
	case err == nil:
		if createOnly {
			return fmt.Errorf("%w: %q", ErrDuplicateArticle, synonym)
		}
		logrus.Infof("synonym %q has been registered, updating existing entry", synonym)
		err = u.updateArticle(ctx, article, doc)
	case errors.Is(err, store.ErrNotFound):
		logrus.Infof("synonym %q has not been registered, creating new article entry", synonym)
		err = u.createArticle(ctx, synonym, doc)
	default:
		return err
	}
	if err != nil {
		return err
	}

	if u.cache != nil {
		u.cache.Invalidate(ctx, synonym)
	}
	return nil
}

func (u *PostUpdater) createArticle(ctx context.Context, synonym string, doc *archive.ValidatedDocument) error {
	article := &model.Article{Synonym: synonym, Title: doc.Title}
	logrus.Infof("article tags: %s", strings.Join(doc.Tags, ", "))

	logrus.Infof("loading data of %d images...", len(doc.ImageFiles))
	staged, err := u.buildImageData(doc, nil)
	if err != nil {
		return err
	}

	logrus.Info("handling db write operations...")
	err = u.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateArticle(ctx, article); err != nil {
			return err
		}
		raw := &model.RawArticleData{
			ArticleID: article.ID,
			Version:   doc.Version,
			Data:      doc.RawDocument,
		}
		if err := tx.SaveRawArticleData(ctx, raw); err != nil {
			return err
		}
		if err := u.replaceTags(ctx, tx, article, doc.Tags, nil); err != nil {
			return err
		}
		for _, s := range staged {
			s.entry.ArticleID = article.ID
		}
		if err := tx.CreateImages(ctx, imageEntries(staged)); err != nil {
			return err
		}
		// The compiled document is always generated on creation.
		return u.writeCompiledData(ctx, tx, article, nil, imageEntries(staged), doc)
	})
	if err != nil {
		return err
	}
	logrus.Info("done with writing to the db")

	return u.saveImageFiles(staged, doc)
}

func (u *PostUpdater) updateArticle(ctx context.Context, article *model.Article, doc *archive.ValidatedDocument) error {
	var (
		previousTitle   *string
		previousVersion *string
		patches         *patch.Pair
		history         *model.ArticleEditHistory
	)

	if article.Title != doc.Title {
		logrus.Infof("title changed: %s -> %s", article.Title, doc.Title)
		title := article.Title
		previousTitle = &title
		article.Title = doc.Title
	}

	raw, err := u.store.GetRawArticleData(ctx, article.ID)
	if err != nil {
		return err
	}
	if raw.Data != doc.RawDocument {
		logrus.Info("detected modification on raw markdown file, creating patch...")
		pair := patch.MakePair(raw.Data, doc.RawDocument)
		patches = &pair
		raw.Data = doc.RawDocument
	}
	if raw.Version != doc.Version {
		logrus.Infof("version changed: %s -> %s", raw.Version, doc.Version)
		version := raw.Version
		previousVersion = &version
		raw.Version = doc.Version
	}

	// An edit history entry exists iff the title, the version, or the
	// body changed in this call.
	if previousTitle != nil || previousVersion != nil || patches != nil {
		logrus.Info("... new edit entry required")
		history = &model.ArticleEditHistory{
			ArticleID:       article.ID,
			PreviousTitle:   previousTitle,
			PreviousVersion: previousVersion,
		}
		if patches != nil {
			history.UpdateData = &patches.Forward
			history.RecoverData = &patches.Reverse
		}
	}

	// Three-way image classification by alias. Aliases whose bytes are
	// unchanged drop out of the incoming set entirely.
	incoming := mapset.NewSet[string]()
	for alias := range doc.ImageFiles {
		incoming.Add(alias)
	}
	removed := mapset.NewSet[string]()
	renewed := mapset.NewSet[string]()

	originals, err := u.store.ListOriginalImages(ctx, article.ID)
	if err != nil {
		return err
	}
	for _, entry := range originals {
		if !incoming.Contains(entry.Alias) {
			removed.Add(entry.Alias)
			logrus.Infof("detected image removed: %s", entry.Alias)
			continue
		}
		same, err := picture.Equal(doc.ImageFiles[entry.Alias], u.pictures.FullPath(entry))
		if err != nil {
			return err
		}
		if same {
			incoming.Remove(entry.Alias)
		} else {
			renewed.Add(entry.Alias)
			logrus.Infof("detected image changed: %s", entry.Alias)
		}
	}

	// Renewal is delete-old plus create-new, never an in-place update.
	created := incoming.Difference(removed)
	deleted := removed.Union(renewed)

	deletedEntries, err := u.store.ListImagesByAliases(ctx, article.ID, deleted.ToSlice(), true)
	if err != nil {
		return err
	}
	keptEntries, err := u.store.ListImagesExcludingAliases(ctx, article.ID, created.Union(deleted).ToSlice())
	if err != nil {
		return err
	}

	var staged []*stagedImage
	if created.Cardinality() > 0 {
		staged, err = u.buildImageData(doc, created)
		if err != nil {
			return err
		}
	}

	// The compiled document is regenerated when one of these holds:
	// 1. the version changed (output markup structure can change)
	// 2. the raw markdown changed
	// 3. a new image row is created (new alias, or renewal of an existing one)
	// 4. an existing image was removed
	var compiled *model.CompiledArticleData
	if previousVersion != nil || patches != nil || created.Cardinality() > 0 || removed.Cardinality() > 0 {
		compiled, err = u.store.GetCompiledArticleData(ctx, article.ID)
		if err != nil {
			return err
		}
	}

	existingLinks, err := u.store.ListArticleTags(ctx, article.ID)
	if err != nil {
		return err
	}
	incomingTags := mapset.NewSet[string](doc.Tags...)
	keptTags := mapset.NewSet[string]()
	removedTags := mapset.NewSet[string]()
	var removedLinks []*model.ArticleTag
	for _, link := range existingLinks {
		if incomingTags.Contains(link.Tag.TagName) {
			keptTags.Add(link.Tag.TagName)
		} else {
			removedTags.Add(link.Tag.TagName)
			removedLinks = append(removedLinks, link)
		}
	}
	createdTags := incomingTags.Difference(keptTags).Difference(removedTags)
	logrus.Infof("kept tags: %s; removed tags: %s; created tags: %s",
		strings.Join(keptTags.ToSlice(), ", "),
		strings.Join(removedTags.ToSlice(), ", "),
		strings.Join(createdTags.ToSlice(), ", "))

	tagsChanged := len(removedLinks) > 0 || createdTags.Cardinality() > 0
	imagesChanged := created.Cardinality() > 0 || removed.Cardinality() > 0
	if previousTitle == nil && previousVersion == nil && patches == nil && !tagsChanged && !imagesChanged {
		logrus.Info("no required update detected")
		return nil
	}

	rawChanged := previousVersion != nil || patches != nil

	err = u.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.SaveArticle(ctx, article); err != nil {
			return err
		}
		if rawChanged {
			if err := tx.SaveRawArticleData(ctx, raw); err != nil {
				return err
			}
		}
		if history != nil {
			if err := tx.CreateEditHistory(ctx, history); err != nil {
				return err
			}
		}
		if err := u.replaceTags(ctx, tx, article, doc.Tags, removedLinks); err != nil {
			return err
		}
		if err := tx.SoftDeleteImages(ctx, deletedEntries); err != nil {
			return err
		}
		for _, s := range staged {
			s.entry.ArticleID = article.ID
		}
		if err := tx.CreateImages(ctx, imageEntries(staged)); err != nil {
			return err
		}
		if compiled != nil {
			logrus.Info("need to update compiled markup, processing...")
			final := append(imageEntries(staged), keptEntries...)
			return u.writeCompiledData(ctx, tx, article, compiled, final, doc)
		}
		return nil
	})
	if err != nil {
		u.cleanupImageFiles(staged)
		return err
	}

	return u.saveImageFiles(staged, doc)
}

// buildImageData decodes and resizes every archive image (or only those
// in filter when non-nil) into staged rows plus their buffers.
func (u *PostUpdater) buildImageData(doc *archive.ValidatedDocument, filter mapset.Set[string]) ([]*stagedImage, error) {
	aliases := make([]string, 0, len(doc.ImageFiles))
	for alias := range doc.ImageFiles {
		if filter != nil && !filter.Contains(alias) {
			continue
		}
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	var staged []*stagedImage
	for _, alias := range aliases {
		variants, err := picture.Variants(doc.ImageFiles[alias])
		if err != nil {
			return nil, err
		}
		ext := strings.TrimPrefix(filepath.Ext(doc.ImageNames[alias]), ".")
		for _, variant := range variants {
			staged = append(staged, &stagedImage{
				entry: &model.Image{
					UUID:       uuid.New(),
					Alias:      alias,
					Extension:  ext,
					Resolution: variant.Resolution,
					Width:      variant.Width,
					Height:     variant.Height,
				},
				image: variant.Image,
			})
		}
	}

	return staged, nil
}

// replaceTags makes the article's tag links match names exactly: missing
// tags are created lazily, stale links removed, new links added.
func (u *PostUpdater) replaceTags(ctx context.Context, tx store.Store, article *model.Article, names []string, removedLinks []*model.ArticleTag) error {
	var tags []*model.Tag
	if len(names) > 0 {
		var err error
		tags, err = tx.GetOrCreateTags(ctx, names)
		if err != nil {
			return err
		}
	}

	if err := tx.DeleteArticleTags(ctx, removedLinks); err != nil {
		return err
	}

	if len(tags) == 0 {
		return nil
	}
	links := make([]*model.ArticleTag, 0, len(tags))
	for _, tag := range tags {
		links = append(links, &model.ArticleTag{ArticleID: article.ID, TagID: tag.ID})
	}
	return tx.CreateArticleTags(ctx, links)
}

// writeCompiledData rewrites the image tags of the rendered markup from
// the final image set and stores the serialized result.
func (u *PostUpdater) writeCompiledData(ctx context.Context, tx store.Store, article *model.Article, compiled *model.CompiledArticleData, entries []*model.Image, doc *archive.ValidatedDocument) error {
	if compiled == nil {
		compiled = &model.CompiledArticleData{ArticleID: article.ID}
	}

	attrs := aliasAttributeMapping(entries)
	for _, imageTag := range doc.Content.Images() {
		alias, ok := imageTag.GetAttribute(imageAliasAttr)
		if !ok {
			continue
		}
		if set, ok := attrs[alias]; ok {
			imageTag.SetAttributes(set)
		}
		// The alias is not meaningful downstream.
		imageTag.RemoveAttribute(imageAliasAttr)
	}

	data, err := doc.Content.Serialize()
	if err != nil {
		return err
	}
	compiled.Data = data
	return tx.SaveCompiledArticleData(ctx, compiled)
}

// aliasAttributeMapping builds, per alias, the attributes overwritten on
// its markup image tags: a lazyload marker class, the Low variant as the
// direct source, and a candidate-source list over all non-original
// variants in ascending resolution order. Responsive selection is left
// to the frontend lazyload library via the auto size hint.
func aliasAttributeMapping(entries []*model.Image) map[string][]markup.Attr {
	sorted := make([]*model.Image, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Alias != sorted[j].Alias {
			return sorted[i].Alias < sorted[j].Alias
		}
		return sorted[i].Resolution < sorted[j].Resolution
	})

	mapping := make(map[string][]markup.Attr)
	for i := 0; i < len(sorted); {
		alias := sorted[i].Alias
		src := ""
		var srcSet []string
		for ; i < len(sorted) && sorted[i].Alias == alias; i++ {
			entry := sorted[i]
			if entry.Resolution == model.ResolutionOriginal {
				continue
			}
			if entry.Resolution == model.ResolutionLow {
				src = imageURLRoute + entry.FileName()
			}
			srcSet = append(srcSet, fmt.Sprintf("%s%s %dw", imageURLRoute, entry.FileName(), entry.Width))
		}
		mapping[alias] = []markup.Attr{
			{Key: imageClassAttr, Value: classLazyload},
			{Key: imageSrcAttr, Value: src},
			{Key: imageSrcSetAttr, Value: strings.Join(srcSet, ",")},
			{Key: lazyloadSizeAttr, Value: lazyloadSizeAuto},
		}
	}

	return mapping
}

// saveImageFiles materializes staged files after a successful metadata
// commit. If any write fails, files already written in this call are
// removed best-effort; the committed transaction is not rolled back.
func (u *PostUpdater) saveImageFiles(staged []*stagedImage, doc *archive.ValidatedDocument) error {
	if len(staged) == 0 {
		return nil
	}
	logrus.Info("handling image saving...")
	for _, s := range staged {
		if s.entry.Resolution == model.ResolutionOriginal {
			if err := u.pictures.SaveOriginal(s.entry, doc.ImageFiles[s.entry.Alias]); err != nil {
				logrus.Errorf("error happened during writing process, running cleanup: %v", err)
				u.cleanupImageFiles(staged)
				return err
			}
			logrus.Infof("original image %q(%s) saved", s.entry.FileName(), s.entry.Alias)
			continue
		}
		if err := u.pictures.SaveVariant(s.entry, s.image); err != nil {
			logrus.Errorf("error happened during writing process, running cleanup: %v", err)
			u.cleanupImageFiles(staged)
			return err
		}
		logrus.Infof("resized image %q(%s/%s) saved", s.entry.FileName(), s.entry.Alias, s.entry.Resolution)
	}
	logrus.Infof("complete saving %d images", len(staged))
	return nil
}

func (u *PostUpdater) cleanupImageFiles(staged []*stagedImage) {
	for _, s := range staged {
		logrus.Warnf("try removing file %q...", s.entry.FileName())
		if err := u.pictures.Remove(s.entry); err != nil {
			logrus.Warnf("failed to remove %q: %v", s.entry.FileName(), err)
		}
	}
}

func imageEntries(staged []*stagedImage) []*model.Image {
	entries := make([]*model.Image, 0, len(staged))
	for _, s := range staged {
		entries = append(entries, s.entry)
	}
	return entries
}
