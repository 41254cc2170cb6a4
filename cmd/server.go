package cmd

import (
	"context"
	"fmt"

	"magicwords/core/imagegen"
	"magicwords/core/passwords"
	"magicwords/db"
	"magicwords/logger"
	"magicwords/server"
	"magicwords/storage"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动HTTP服务器",
	Long:  `Starts the account API: registration, tokens, profile editing, admin management and image generation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(ctx context.Context) error {
	logger.Info("Starting Magic Words server...")

	gdb, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	images, err := storage.NewMinioStore(cfg)
	if err != nil {
		return err
	}
	if err := images.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("prepare bucket %s: %w", images.Bucket(), err)
	}

	revocations, closeRevocations, err := openRevocations(ctx)
	if err != nil {
		return err
	}
	defer closeRevocations()

	denylist, err := passwords.LoadDenylist(cfg.PasswordDenylist)
	if err != nil {
		return err
	}
	logger.Info("Password denylist ready", logger.Int("entries", denylist.Len()))
	if err := denylist.Watch(ctx); err != nil {
		logger.Warn("Password denylist will not be reloaded", logger.ErrorField(err))
	}

	svc, err := newAccountService(gdb, accountDeps{revocations: revocations, images: images, denylist: denylist})
	if err != nil {
		return err
	}
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, image generation requests will fail")
	}
	generator := imagegen.NewClient(imagegen.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.ImageTimeout,
	})

	health := func(ctx context.Context) error { return db.Ping(ctx, gdb) }
	handler := server.NewRouter(server.NewAPIHandler(svc, images, generator, health, cfg))
	return server.Start(ctx, cfg, handler)
}
