package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/emrgen/blog/internal/cache"
	"github.com/emrgen/blog/internal/config"
	"github.com/emrgen/blog/internal/picture"
	"github.com/emrgen/blog/internal/service"
	"github.com/emrgen/blog/internal/store"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Only lower-case alphabets, digits, and hyphens; no leading or
// trailing hyphen.
var synonymPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]+[a-z0-9]$`)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "post commands",
}

func init() {
	postCmd.AddCommand(UploadPost())
}

func UploadPost() *cobra.Command {
	var (
		synonym    string
		createOnly bool
	)

	command := &cobra.Command{
		Use:   "upload <archive-path>",
		Short: "Upload a bundled post to create a new post or update an existing one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.Validate(synonym,
				validation.Required,
				validation.Match(synonymPattern),
			); err != nil {
				return fmt.Errorf("%q is not a valid article synonym: %w", synonym, err)
			}

			cfg := config.LoadConfig()
			if err := ensureImageDirs(cfg); err != nil {
				return err
			}

			updater := service.NewPostUpdater(
				store.NewGormStore(config.GetDb(cfg)),
				pictureStore(cfg),
				cache.NewPostCache(cfg.RedisAddr),
			)
			if err := updater.UploadArticle(context.Background(), expandPath(args[0]), synonym, createOnly); err != nil {
				return err
			}
			logrus.Infof("post %q uploaded", synonym)
			return nil
		},
	}

	command.Flags().StringVarP(&synonym, "synonym", "s", "", "article synonym used in the article's URL")
	command.Flags().BoolVar(&createOnly, "new", false, "only create a new article; fail when the synonym is already used")
	_ = command.MarkFlagRequired("synonym")

	return command
}

func pictureStore(cfg *config.Config) *picture.Store {
	return &picture.Store{
		OpenedDir:      cfg.OpenedImageDir,
		ProtectedDir:   cfg.ProtectedImageDir,
		OpenedGroup:    cfg.OpenedImageGroup,
		ProtectedGroup: cfg.ProtectedImageGroup,
	}
}

func ensureImageDirs(cfg *config.Config) error {
	if err := os.MkdirAll(cfg.OpenedImageDir, 0o750); err != nil {
		return err
	}
	return os.MkdirAll(cfg.ProtectedImageDir, 0o750)
}

func expandPath(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
