package cmd

import (
	"context"
	"fmt"

	"magicwords/cache"
	"magicwords/core/account"
	"magicwords/core/auth"
	"magicwords/core/passwords"
	"magicwords/db"
	"magicwords/logger"
	"magicwords/repository"
	"magicwords/storage"

	"gorm.io/gorm"
)

// openDatabase connects and migrates the accounts table.
func openDatabase() (*gorm.DB, error) {
	gdb, err := db.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(gdb); err != nil {
		db.Close(gdb)
		return nil, err
	}
	return gdb, nil
}

// openRevocations uses Redis when configured and memory otherwise. The
// returned func releases the connection.
func openRevocations(ctx context.Context) (cache.RevocationStore, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, refresh token revocations are kept in memory")
		return cache.NewMemoryRevocations(), func() {}, nil
	}
	client, err := cache.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Connected to Redis", logger.String("addr", cfg.RedisAddr))
	return cache.NewRedisRevocations(client), func() { client.Close() }, nil
}

// accountDeps are the optional collaborators of newAccountService.
type accountDeps struct {
	revocations cache.RevocationStore
	images      storage.ImageStore
	denylist    *passwords.Denylist
}

func newAccountService(gdb *gorm.DB, d accountDeps) (*account.Service, error) {
	hasher, err := auth.NewPasswords(cfg.PasswordHasher)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}
	policy := passwords.NewDefaultValidator(passwords.Options{
		MinLength:     cfg.PasswordMinLength,
		MaxSimilarity: cfg.PasswordSimilarity,
		Denylist:      d.denylist,
	})
	return account.NewService(account.Deps{
		Accounts:       repository.NewGormAccountRepository(gdb),
		Passwords:      policy,
		Hasher:         hasher,
		Tokens:         auth.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Revocations:    d.revocations,
		Images:         d.images,
		URLs:           storage.URLBuilder{Prefix: cfg.MediaURLPrefix},
		MaxUploadBytes: cfg.MaxUploadBytes,
		MaxImagePixels: cfg.MaxImagePixels,
	}), nil
}
