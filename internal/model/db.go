package model

import "gorm.io/gorm"

func Migrate(db *gorm.DB) error {
	for _, m := range []interface{}{
		&Article{},
		&RawArticleData{},
		&CompiledArticleData{},
		&ArticleEditHistory{},
		&Tag{},
		&ArticleTag{},
		&Image{},
	} {
		if err := db.AutoMigrate(m); err != nil {
			return err
		}
	}

	return nil
}
