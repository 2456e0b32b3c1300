package tester

import (
	"os"

	"github.com/emrgen/blog/internal/model"
	"github.com/emrgen/blog/internal/picture"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	testPath = "../../.test/"
)

var (
	db *gorm.DB
)

func Setup() {
	RemoveTestDir()

	_ = os.Setenv("ENV", "test")

	for _, dir := range []string{testPath + "db", testPath + "images/opened", testPath + "images/protected"} {
		err := os.MkdirAll(dir, os.ModePerm)
		if err != nil {
			panic(err)
		}
	}

	var err error
	db, err = gorm.Open(sqlite.Open(testPath+"db/blog.db"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	err = model.Migrate(db)
	if err != nil {
		panic(err)
	}
}

func TestDB() *gorm.DB {
	return db
}

// Pictures returns a picture store rooted in the test directory. Group
// ownership is left empty so tests run without privileged users.
func Pictures() *picture.Store {
	return &picture.Store{
		OpenedDir:    testPath + "images/opened",
		ProtectedDir: testPath + "images/protected",
	}
}

func RemoveTestDir() {
	err := os.RemoveAll(testPath)
	if err != nil {
		panic(err)
	}
}
