package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/inklog/internal/config"
	"github.com/inklog/internal/db"
	"github.com/inklog/internal/service"
	"go.uber.org/zap"
)

func main() {
	var (
		createTitle = flag.String("create", "", "create a draft post with the given title")
		content     = flag.String("content", "", "markdown content for -create")
		tags        = flag.String("tags", "", "tag string for -create, e.g. 'go, \"dev, tools\"'")
		author      = flag.String("author", "", "username for -create (created if missing)")
		publishID   = flag.Uint("publish", 0, "publish the post with the given id")
		deleteID    = flag.Uint("delete", 0, "soft-delete the post with the given id")
		hardDelete  = flag.Bool("hard", false, "make -delete remove the row and its dependents")
		list        = flag.Bool("list", false, "list all posts")
	)
	flag.Parse()

	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	gdb, err := db.Init(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	posts := service.NewPostService(gdb, service.PostServiceConfig{
		Vocabulary:   service.NewVocabulary(gdb),
		Slugs:        service.NewSlugAllocator(gdb, cfg.SlugRetryLimit),
		URLs:         service.NewURLBuilder(cfg.SiteBaseURL),
		SiteHostName: cfg.SiteHostName,
		Logger:       logger,
	})

	switch {
	case *createTitle != "":
		input := service.PostInput{Title: *createTitle, Content: *content, Tags: *tags}
		if *author != "" {
			user, err := db.EnsureUser(gdb, *author, os.Getenv("INKLOG_AUTHOR_PASSWORD"))
			if err != nil {
				logger.Fatal("failed to ensure author", zap.Error(err))
			}
			if user != nil {
				input.UserID = user.ID
			}
		}
		post, err := posts.Create(input)
		if err != nil {
			logger.Fatal("failed to create post", zap.Error(err))
		}
		fmt.Printf("created post %d slug=%s %s\n", post.ID(), post.Slug(), post.Permalink())

	case *publishID != 0:
		post, err := posts.Get(*publishID)
		if err != nil {
			logger.Fatal("failed to load post", zap.Error(err))
		}
		if err := post.Publish(); err != nil {
			logger.Fatal("failed to publish post", zap.Error(err))
		}
		fmt.Printf("published post %d\n", post.ID())

	case *deleteID != 0:
		post, err := posts.Get(*deleteID)
		if err != nil {
			logger.Fatal("failed to load post", zap.Error(err))
		}
		if err := post.Delete(*hardDelete); err != nil {
			logger.Fatal("failed to delete post", zap.Error(err))
		}
		fmt.Printf("deleted post %d (hard=%v)\n", *deleteID, *hardDelete)

	case *list:
		var rows []db.Post
		if err := gdb.Order("id asc").Find(&rows).Error; err != nil {
			logger.Fatal("failed to list posts", zap.Error(err))
		}
		for _, row := range rows {
			fmt.Printf("%4d  %-12s  status=%d  %s\n", row.ID, row.Slug, row.Status, row.Title)
		}

	default:
		flag.Usage()
	}
}
