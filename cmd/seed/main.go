// seed inserts the development users u1 and u2. Idempotent: existing rows are updated in place.
package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"direct-messaging/backend/internal/config"
	"direct-messaging/backend/internal/db"
	"direct-messaging/backend/internal/logging"
	"direct-messaging/backend/internal/security"
	"direct-messaging/backend/internal/user/domain"
	userrepo "direct-messaging/backend/internal/user/repository"
)

const devPassword = "password123"

var devUsers = []domain.User{
	{ID: "u1", Name: "User One", Email: "u1@example.com", Role: domain.RoleMember},
	{ID: "u2", Name: "User Two", Email: "u2@example.com", Role: domain.RoleMember},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	defer conn.Close()

	hasher := security.NewHasher(cfg.BcryptCost)
	hash, err := hasher.Hash(devPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("hash password")
	}

	repo := userrepo.NewPostgresRepository(conn)
	now := time.Now().UTC()
	for _, u := range devUsers {
		u.PasswordHash = hash
		u.CreatedAt = now
		u.UpdatedAt = now
		if err := repo.Upsert(ctx, &u); err != nil {
			if errors.Is(err, userrepo.ErrEmailTaken) {
				log.Fatal().Str("user_id", u.ID).Str("email", u.Email).Msg("email held by another user; remove it or change the seed")
			}
			log.Fatal().Err(err).Str("user_id", u.ID).Msg("upsert user")
		}
		log.Info().Str("user_id", u.ID).Str("email", u.Email).Msg("seeded user")
	}

	for _, u := range devUsers {
		fmt.Printf("Dev login: %s / %s\n", u.Email, devPassword)
	}
}
