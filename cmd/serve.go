package cmd

import (
	"github.com/emrgen/blog/internal/cache"
	"github.com/emrgen/blog/internal/config"
	"github.com/emrgen/blog/internal/job"
	"github.com/emrgen/blog/internal/jobs"
	"github.com/emrgen/blog/internal/server"
	"github.com/emrgen/blog/internal/service"
	"github.com/emrgen/blog/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the blog read api",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()
		if err := ensureImageDirs(cfg); err != nil {
			logrus.Fatalf("failed to prepare image directories: %v", err)
		}

		gormStore := store.NewGormStore(config.GetDb(cfg))
		pictures := pictureStore(cfg)
		postCache := cache.NewPostCache(cfg.RedisAddr)

		executor := jobs.NewTaskExecutor([]jobs.CronJob{
			job.NewImageSweeper(gormStore, pictures, cfg.SweepRetention),
		})
		executor.Run()
		defer executor.Stop()

		srv := server.NewServer(
			service.NewBlogService(gormStore, postCache),
			service.NewImageService(gormStore, pictures),
			cfg.PostPageSize,
		)
		if err := srv.Start(cfg.HTTPAddr); err != nil {
			logrus.Fatalf("server stopped: %v", err)
		}
	},
}
