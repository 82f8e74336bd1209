package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/blockduel/go-server/internal/httpserver"
	"github.com/blockduel/go-server/internal/match"
	"github.com/blockduel/go-server/internal/profile"
	"github.com/blockduel/go-server/internal/ws"
	"os"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := openDB(getEnv("DB_PATH", "./data/app.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	profiles := profile.NewSQLStore(db)
	hub := ws.NewHub()
	mgr := match.NewManager(hub, profiles)

	srv := httpserver.New(db, profiles, hub, mgr)
	port := getEnv("PORT", "3000")
	log.Info().Str("port", port).Msg("starting blockduel server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" { return v }
	return def
}
