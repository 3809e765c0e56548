package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhttp "github.com/mkravets/authd/internal/auth/http"
	"github.com/mkravets/authd/internal/auth/service"
	"github.com/mkravets/authd/internal/common/clock"
	"github.com/mkravets/authd/internal/common/config"
	commoncrypto "github.com/mkravets/authd/internal/common/crypto"
	"github.com/mkravets/authd/internal/common/db"
	commonhttp "github.com/mkravets/authd/internal/common/http"
	"github.com/mkravets/authd/internal/common/logger"
	srv "github.com/mkravets/authd/internal/common/server"
	userrepo "github.com/mkravets/authd/internal/user/repository"
)

func main() {
	// Optional .env for local runs; real deployments set the environment.
	_ = godotenv.Load()

	log, err := logger.New(os.Getenv("LOG_DIR"), "auth", os.Getenv("LOG_LEVEL"))
	if err != nil {
		os.Stderr.WriteString(fmt.Sprintf("failed to initialize logger: %v\n", err))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pool := db.NewPool(log, cfg.DatabaseURL)
	defer pool.Close()

	userRepo := userrepo.NewPgRepository(pool)
	hasher := &commoncrypto.BcryptHasher{}
	idGenerator := commoncrypto.NewUUIDGenerator()
	tokenIssuer := service.NewTokenIssuer(
		cfg.JWTSecret,
		cfg.JWTRefreshSecret,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		clock.NewRealClock(),
	)
	sessionService := service.NewSessionService(userRepo, hasher, idGenerator, tokenIssuer, log)

	handler := authhttp.NewHandler(sessionService, cfg, log)

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.Handle("/metrics", promhttp.Handler())

	finalHandler := commonhttp.BuildBaseHandler(log, mux)

	serverConfig := srv.DefaultServerConfig(cfg.HTTPPort)
	server := srv.NewServer(serverConfig, finalHandler)

	srv.StartWithGracefulShutdown(server, log, "auth")
}
