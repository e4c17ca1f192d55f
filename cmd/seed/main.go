// Command seed creates the first admin account.  Credentials come from
// ADMIN_EMAIL and ADMIN_PASSWORD (flags override them); database settings
// are the server's.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/khIbrahim/popcornon/internal/config"
	"github.com/khIbrahim/popcornon/internal/database"
	"github.com/khIbrahim/popcornon/internal/logging"
	"github.com/khIbrahim/popcornon/internal/model"
	"github.com/khIbrahim/popcornon/internal/repository"
	"github.com/khIbrahim/popcornon/internal/utils"
)

func main() {
	_ = godotenv.Load()

	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	if *email == "" {
		logger.Fatal().Msg("admin email is required (-email or ADMIN_EMAIL)")
	}
	if err := utils.CheckPassword(*password); err != nil {
		logger.Fatal().Err(err).Msg("refusing to create admin")
	}
	if !cfg.HasDB() {
		logger.Fatal().Msg("DB_HOST is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	id, err := repository.NewUserRepo(db).Create(ctx, *email, *password, model.RoleAdmin, cfg.BcryptCost)
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		logger.Info().Str("email", *email).Msg("admin already exists, nothing to do")
	case err != nil:
		logger.Fatal().Err(err).Msg("failed to create admin")
	default:
		logger.Info().Uint64("id", id).Str("email", *email).Msg("admin created")
	}
}
